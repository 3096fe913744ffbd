// Package cluster shares realtime deliveries between server instances over NATS.
package cluster

import (
	"encoding/json"
	"fmt"
	"time"

	"dealership-backend/internal/metrics"
	"dealership-backend/internal/model"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Deliverer applies a remote delivery to local connections.
type Deliverer interface {
	DeliverRemote(env *model.FanoutEnvelope) int
}

// Relay publishes local deliveries and replays those of other instances.
type Relay struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	origin  string
	hub     Deliverer
	log     zerolog.Logger
}

// Connect dials NATS and subscribes to the fan-out subject.
func Connect(url, subject string, hub Deliverer, log zerolog.Logger) (*Relay, error) {
	r := newRelay(subject, hub, log)

	nc, err := nats.Connect(url,
		nats.Name("dealership-chat-"+r.origin[:8]),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				r.log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			r.log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	r.nc = nc

	sub, err := nc.Subscribe(subject, r.handleMsg)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	r.sub = sub

	r.log.Info().Str("subject", subject).Msg("relay connected")
	return r, nil
}

func newRelay(subject string, hub Deliverer, log zerolog.Logger) *Relay {
	origin := uuid.NewString()
	return &Relay{
		subject: subject,
		origin:  origin,
		hub:     hub,
		log:     log.With().Str("component", "relay").Str("origin", origin).Logger(),
	}
}

// Publish stamps the envelope with this instance's origin and sends it.
func (r *Relay) Publish(env *model.FanoutEnvelope) {
	if r.nc == nil {
		return
	}
	out := *env
	out.Origin = r.origin
	data, err := json.Marshal(&out)
	if err != nil {
		r.log.Error().Err(err).Msg("encode envelope")
		return
	}
	if err := r.nc.Publish(r.subject, data); err != nil {
		metrics.RelayMessages.WithLabelValues("publish_error").Inc()
		r.log.Warn().Err(err).Msg("publish envelope")
		return
	}
	metrics.RelayMessages.WithLabelValues("out").Inc()
}

func (r *Relay) handleMsg(msg *nats.Msg) {
	var env model.FanoutEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		r.log.Warn().Err(err).Msg("decode envelope")
		return
	}
	if env.Origin == r.origin {
		return
	}
	metrics.RelayMessages.WithLabelValues("in").Inc()
	r.hub.DeliverRemote(&env)
}

// Close drains the subscription and closes the connection.
func (r *Relay) Close() error {
	if r.nc == nil {
		return nil
	}
	if err := r.nc.Drain(); err != nil {
		r.nc.Close()
		return err
	}
	return nil
}
