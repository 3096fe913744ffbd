package service

import (
	"fmt"
	"testing"

	"dealership-backend/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAuthorizeJoin_Permutations(t *testing.T) {
	g := NewAccessGuard(zerolog.Nop())
	roles := []model.Role{model.RoleUser, model.RoleAdmin, model.Role("guest"), model.Role("")}
	ids := []int64{0, 1, 3, 7, 8}
	key := "user_7_vehicle_3_admin_1"

	for _, role := range roles {
		for _, id := range ids {
			want := (role == model.RoleUser && id == 7) || (role == model.RoleAdmin && id == 1)
			got := g.AuthorizeJoin(model.Identity{SubjectID: id, Role: role}, key)
			assert.Equal(t, want, got.IsAllowed(), fmt.Sprintf("role=%q id=%d", role, id))
		}
	}
}

func TestAuthorizeJoin_MalformedKeys(t *testing.T) {
	g := NewAccessGuard(zerolog.Nop())
	for _, key := range []string{"", "user_7_", "admin_1", "user_7_vehicle_3_admin_1 ", "user_7_vehicle_x_admin_1"} {
		assert.Equal(t, Denied, g.AuthorizeJoin(buyer7, key), key)
		assert.Equal(t, Denied, g.AuthorizeJoin(admin1, key), key)
	}
}

func TestAuthorizeSend(t *testing.T) {
	g := NewAccessGuard(zerolog.Nop())
	joined := ConnState{Identity: buyer7, Identified: true, Room: key731}

	tests := []struct {
		name  string
		state ConnState
		req   model.SendMessageRequest
		want  Decision
	}{
		{"own message in own room", joined, sendReq(key731, 7, 1, "x"), Allowed},
		{"anonymous connection", ConnState{Room: key731}, sendReq(key731, 7, 1, "x"), Denied},
		{"spoofed sender", joined, sendReq(key731, 1, 7, "x"), Denied},
		{"different room", joined, sendReq("user_7_vehicle_4_admin_1", 7, 1, "x"), Denied},
		{"room not owned", ConnState{Identity: buyer7, Identified: true, Room: "user_8_vehicle_3_admin_1"},
			sendReq("user_8_vehicle_3_admin_1", 7, 1, "x"), Denied},
		{"admin in own room", ConnState{Identity: admin1, Identified: true, Room: key731}, sendReq(key731, 1, 7, "x"), Allowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.AuthorizeSend(tt.state, &tt.req))
		})
	}
}

func TestAuthorizeClear(t *testing.T) {
	g := NewAccessGuard(zerolog.Nop())
	adminState := ConnState{Identity: admin1, Identified: true}

	assert.Equal(t, Allowed, g.AuthorizeClear(adminState, model.RoleAdmin, 1))
	assert.Equal(t, Denied, g.AuthorizeClear(adminState, model.RoleAdmin, 2))
	assert.Equal(t, Denied, g.AuthorizeClear(adminState, model.RoleUser, 1))
	assert.Equal(t, Denied, g.AuthorizeClear(ConnState{}, model.RoleUser, 0))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "denied", Denied.String())
	assert.False(t, Decision(0).IsAllowed())
}
