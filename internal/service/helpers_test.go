package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"dealership-backend/internal/model"
	"dealership-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type staticVerifier map[string]model.Identity

func (v staticVerifier) VerifyAccessToken(token string) (model.Identity, error) {
	id, ok := v[token]
	if !ok {
		return model.Identity{}, ErrInvalidToken
	}
	return id, nil
}

var (
	buyer7  = model.Identity{SubjectID: 7, Role: model.RoleUser, DisplayName: "Ayşe"}
	buyer8  = model.Identity{SubjectID: 8, Role: model.RoleUser, DisplayName: "Mehmet"}
	buyer9  = model.Identity{SubjectID: 9, Role: model.RoleUser, DisplayName: "Can"}
	admin1  = model.Identity{SubjectID: 1, Role: model.RoleAdmin, DisplayName: "Galeri"}
	testVer = staticVerifier{"t7": buyer7, "t8": buyer8, "t9": buyer9, "t1": admin1}
)

type testEnv struct {
	store    *repository.SQLiteMessageStore
	hub      *WSHub
	notifier *Notifier
	chat     *ChatService
	clock    *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env := &testEnv{clock: &now}

	store, err := repository.NewSQLiteMessageStore(context.Background(), ":memory:",
		repository.WithClock(func() time.Time { return *env.clock }))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	log := zerolog.Nop()
	env.store = store
	env.hub = NewWSHub(log)
	env.notifier = NewNotifier(env.hub, nil, log)
	env.chat = NewChatService(store, env.hub, NewAccessGuard(log), env.notifier, testVer, log)
	return env
}

// connect registers a socketless client, optionally identified at upgrade.
func (e *testEnv) connect(id *model.Identity) *WSClient {
	c := NewWSClient(uuid.NewString(), nil)
	e.chat.Connect(c, id)
	return c
}

func (e *testEnv) event(t *testing.T, c *WSClient, eventType string, data any) {
	t.Helper()
	ev, err := model.NewWSEvent(eventType, data)
	require.NoError(t, err)
	e.chat.HandleEvent(context.Background(), c, ev)
}

// drain returns every event queued for c so far.
func drain(t *testing.T, c *WSClient) []model.WSEvent {
	t.Helper()
	var out []model.WSEvent
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var ev model.WSEvent
			require.NoError(t, json.Unmarshal(data, &ev))
			out = append(out, ev)
		default:
			return out
		}
	}
}

func types(events []model.WSEvent) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func find(events []model.WSEvent, eventType string) []model.WSEvent {
	var out []model.WSEvent
	for _, ev := range events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
