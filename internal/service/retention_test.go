package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealership-backend/internal/model"
	"dealership-backend/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRetention() RetentionConfig {
	return RetentionConfig{Horizon: 72 * time.Hour, Schedule: "0 0 * * *", TimeZone: "Europe/Istanbul"}
}

func TestRetention_PurgesOnlyExpiredRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := *env.clock

	*env.clock = now.Add(-96 * time.Hour)
	_, err := env.store.Append(ctx, &model.Message{ConversationKey: key731, SenderID: 7, ReceiverID: 1, Body: "four days old"}, model.RoleUser)
	require.NoError(t, err)
	*env.clock = now.Add(-time.Hour)
	_, err = env.store.Append(ctx, &model.Message{ConversationKey: key731, SenderID: 7, ReceiverID: 1, Body: "an hour old"}, model.RoleUser)
	require.NoError(t, err)
	*env.clock = now

	admin := env.connect(&admin1)
	otherAdmin := env.connect(&model.Identity{SubjectID: 2, Role: model.RoleAdmin})
	buyer := env.connect(&buyer7)

	sweeper, err := NewRetentionSweeper(env.store, env.notifier, defaultRetention(), zerolog.Nop())
	require.NoError(t, err)
	sweeper.now = func() time.Time { return now }

	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	history, err := env.store.History(ctx, key731)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "an hour old", history[0].Body)

	assert.Equal(t, []string{model.EventAdminRefresh}, types(drain(t, admin)))
	assert.Equal(t, []string{model.EventAdminRefresh}, types(drain(t, otherAdmin)))
	assert.Empty(t, drain(t, buyer))

	// Nothing left to purge: no refresh.
	n, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, drain(t, admin))
}

type failingStore struct {
	repository.MessageStore
}

func (failingStore) PurgeOlderThan(context.Context, time.Time) (int64, error) {
	return 0, errors.New("database unavailable")
}

func TestRetention_ErrorIsReported(t *testing.T) {
	env := newTestEnv(t)
	admin := env.connect(&admin1)

	sweeper, err := NewRetentionSweeper(failingStore{}, env.notifier, defaultRetention(), zerolog.Nop())
	require.NoError(t, err)

	_, err = sweeper.Sweep(context.Background())
	assert.Error(t, err)
	assert.Empty(t, drain(t, admin))
}

func TestRetention_Config(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewRetentionSweeper(env.store, env.notifier, RetentionConfig{Horizon: 0, Schedule: "0 0 * * *"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewRetentionSweeper(env.store, env.notifier, RetentionConfig{Horizon: time.Hour, Schedule: "every day"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewRetentionSweeper(env.store, env.notifier, RetentionConfig{Horizon: time.Hour, Schedule: "0 0 * * *", TimeZone: "Mars/Olympus"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRetention_StartAndStop(t *testing.T) {
	env := newTestEnv(t)
	sweeper, err := NewRetentionSweeper(env.store, env.notifier, defaultRetention(), zerolog.Nop())
	require.NoError(t, err)

	sweeper.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sweeper.Stop(ctx)
}
