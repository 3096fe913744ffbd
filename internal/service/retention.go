package service

import (
	"context"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"dealership-backend/internal/metrics"
	"dealership-backend/internal/repository"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RetentionConfig controls the message purge schedule.
type RetentionConfig struct {
	Horizon  time.Duration
	Schedule string // standard 5-field cron expression
	TimeZone string
}

// RetentionSweeper hard-deletes messages older than the horizon on a clock
// schedule and once at start.
type RetentionSweeper struct {
	store    repository.MessageStore
	notifier *Notifier
	horizon  time.Duration
	cron     *cron.Cron
	now      func() time.Time
	log      zerolog.Logger

	mu sync.Mutex // one sweep at a time
}

func NewRetentionSweeper(store repository.MessageStore, notifier *Notifier, cfg RetentionConfig, log zerolog.Logger) (*RetentionSweeper, error) {
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("retention horizon must be positive")
	}
	loc := time.UTC
	if cfg.TimeZone != "" {
		l, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("load retention time zone: %w", err)
		}
		loc = l
	}

	s := &RetentionSweeper{
		store:    store,
		notifier: notifier,
		horizon:  cfg.Horizon,
		cron:     cron.New(cron.WithLocation(loc)),
		now:      time.Now,
		log:      log.With().Str("component", "retention").Logger(),
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("parse retention schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start runs one sweep immediately and then follows the schedule.
func (s *RetentionSweeper) Start() {
	s.run()
	s.cron.Start()
	s.log.Info().Dur("horizon", s.horizon).Msg("retention sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to end.
func (s *RetentionSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *RetentionSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, _ = s.Sweep(ctx)
}

// Sweep purges rows older than now minus the horizon and, when anything was
// deleted, tells admins to refresh once. Errors are logged; the schedule
// keeps running.
func (s *RetentionSweeper) Sweep(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	horizon := s.now().Add(-s.horizon)
	n, err := s.store.PurgeOlderThan(ctx, horizon)
	if err != nil {
		metrics.RetentionRuns.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Time("horizon", horizon).Msg("purge failed")
		return 0, err
	}
	metrics.RetentionRuns.WithLabelValues("ok").Inc()
	metrics.RetentionPurged.Add(float64(n))

	if n > 0 {
		s.log.Info().Int64("deleted", n).Time("horizon", horizon).Msg("old messages purged")
		s.notifier.RefreshAdmins()
	}
	return n, nil
}
