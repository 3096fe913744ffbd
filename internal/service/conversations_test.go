package service

import (
	"context"
	"testing"

	"dealership-backend/internal/model"
	"dealership-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticNames map[int64]string

func (s staticNames) NamesByIDs(_ context.Context, ids []int64) (map[int64]string, error) {
	out := map[int64]string{}
	for _, id := range ids {
		if n, ok := s[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type staticListings map[int64][2]string

func (s staticListings) BrandModelByIDs(_ context.Context, ids []int64) (map[int64][2]string, error) {
	out := map[int64][2]string{}
	for _, id := range ids {
		if v, ok := s[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func seed(t *testing.T, env *testEnv, key string, sender model.Role, body string) *model.Message {
	t.Helper()
	k, err := model.ParseKey(key)
	require.NoError(t, err)
	msg := &model.Message{ConversationKey: key, Body: body}
	if sender == model.RoleUser {
		msg.SenderID, msg.ReceiverID = k.BuyerID, k.AdminID
	} else {
		msg.SenderID, msg.ReceiverID = k.AdminID, k.BuyerID
	}
	msg.ListingID = &k.ListingID
	stored, err := env.store.Append(context.Background(), msg, sender)
	require.NoError(t, err)
	return stored
}

func newConversations(env *testEnv) *ConversationService {
	return NewConversationService(env.store,
		staticNames{7: "Ayşe", 8: "Mehmet", 1: "Galeri"},
		staticListings{3: {"Toyota", "Corolla"}},
		env.notifier)
}

func TestConversations_ListEnriched(t *testing.T) {
	env := newTestEnv(t)
	svc := newConversations(env)
	ctx := context.Background()

	seed(t, env, key731, model.RoleUser, "Merhaba")
	seed(t, env, "user_8_vehicle_4_admin_1", model.RoleUser, "Selam")

	list, err := svc.List(ctx, admin1)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byKey := map[string]model.ConversationSummary{}
	for _, c := range list {
		byKey[c.ConversationKey] = c
	}
	first := byKey[key731]
	assert.Equal(t, "Ayşe", first.CounterpartName)
	assert.Equal(t, "Toyota", first.Brand)
	assert.Equal(t, "Corolla", first.Model)
	assert.Equal(t, 1, first.UnreadCount)
	second := byKey["user_8_vehicle_4_admin_1"]
	assert.Equal(t, "Mehmet", second.CounterpartName)
	assert.Empty(t, second.Brand)

	mine, err := svc.List(ctx, buyer7)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Galeri", mine[0].CounterpartName)
	assert.Zero(t, mine[0].UnreadCount)

	unread, err := svc.UnreadCount(ctx, admin1)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
}

func TestConversations_DeleteMessage(t *testing.T) {
	env := newTestEnv(t)
	svc := newConversations(env)
	ctx := context.Background()

	msg := seed(t, env, key731, model.RoleUser, "oops")
	room := env.connect(nil)
	env.hub.JoinRoom(room, key731)

	assert.ErrorIs(t, svc.DeleteMessage(ctx, buyer8, msg.ID), ErrForbidden)
	require.NoError(t, svc.DeleteMessage(ctx, buyer7, msg.ID))
	assert.Equal(t, []string{model.EventMessageDeleted}, types(drain(t, room)))
	assert.ErrorIs(t, svc.DeleteMessage(ctx, admin1, msg.ID), repository.ErrNotFound)

	other := seed(t, env, key731, model.RoleUser, "admin removes this")
	require.NoError(t, svc.DeleteMessage(ctx, model.Identity{SubjectID: 5, Role: model.RoleAdmin}, other.ID))
}

func TestConversations_DeleteConversation(t *testing.T) {
	env := newTestEnv(t)
	svc := newConversations(env)
	ctx := context.Background()

	seed(t, env, key731, model.RoleUser, "one")
	seed(t, env, key731, model.RoleAdmin, "two")
	admin := env.connect(&admin1)

	assert.ErrorIs(t, svc.DeleteConversation(ctx, buyer8, key731), ErrForbidden)
	assert.ErrorIs(t, svc.DeleteConversation(ctx, model.Identity{SubjectID: 2, Role: model.RoleAdmin}, key731), ErrForbidden)
	assert.ErrorIs(t, svc.DeleteConversation(ctx, buyer7, "garbage"), model.ErrInvalidIdentity)

	require.NoError(t, svc.DeleteConversation(ctx, buyer7, key731))
	assert.Equal(t, []string{model.EventAdminRefresh}, types(drain(t, admin)))

	assert.ErrorIs(t, svc.DeleteConversation(ctx, admin1, key731), repository.ErrNotFound)
}

func TestConversations_DeleteListing(t *testing.T) {
	env := newTestEnv(t)
	svc := newConversations(env)
	ctx := context.Background()

	seed(t, env, key731, model.RoleUser, "about listing 3")
	seed(t, env, "user_8_vehicle_4_admin_1", model.RoleUser, "about listing 4")

	n, err := svc.DeleteListing(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := svc.List(ctx, admin1)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "user_8_vehicle_4_admin_1", left[0].ConversationKey)
}
