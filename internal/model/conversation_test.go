package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_RoundTrip(t *testing.T) {
	ids := []int64{1, 2, 7, 9, 10, 42, 999, 1 << 40}
	for _, b := range ids {
		for _, l := range ids {
			for _, a := range ids {
				key, err := DeriveKey(b, l, a)
				require.NoError(t, err)

				s := key.String()
				buyer, ok := ParseBuyerID(s)
				require.True(t, ok, s)
				admin, ok := ParseAdminID(s)
				require.True(t, ok, s)
				assert.Equal(t, b, buyer)
				assert.Equal(t, a, admin)

				parsed, err := ParseKey(s)
				require.NoError(t, err)
				assert.Equal(t, key, parsed)
			}
		}
	}
}

func TestDeriveKey_Format(t *testing.T) {
	key, err := DeriveKey(7, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, "user_7_vehicle_3_admin_1", key.String())
}

func TestDeriveKey_RejectsNonPositive(t *testing.T) {
	tests := []struct {
		name                  string
		buyer, listing, admin int64
	}{
		{"zero buyer", 0, 3, 1},
		{"zero listing", 7, 0, 1},
		{"zero admin", 7, 3, 0},
		{"negative buyer", -7, 3, 1},
		{"negative admin", 7, 3, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveKey(tt.buyer, tt.listing, tt.admin)
			assert.ErrorIs(t, err, ErrInvalidIdentity)
		})
	}
}

func TestParseKey_Invalid(t *testing.T) {
	for _, s := range []string{
		"",
		"user_7_vehicle_3",
		"user_7_vehicle_3_admin_",
		"user_x_vehicle_3_admin_1",
		"xuser_7_vehicle_3_admin_1",
		"user_7_vehicle_3_admin_1_extra",
		"user_0_vehicle_3_admin_1",
		"user_99999999999999999999_vehicle_3_admin_1",
		"user_07_vehicle_3_admin_1",
		"user_7_vehicle_03_admin_1",
		"user_7_vehicle_3_admin_001",
	} {
		_, err := ParseKey(s)
		assert.ErrorIs(t, err, ErrInvalidIdentity, s)
	}
}

func TestParseIDs_Missing(t *testing.T) {
	_, ok := ParseBuyerID("vehicle_3_admin_1")
	assert.False(t, ok)
	_, ok = ParseAdminID("user_7_vehicle_3")
	assert.False(t, ok)
	_, ok = ParseAdminID("user_7_vehicle_3_admin_1_")
	assert.False(t, ok)
}

func TestConversationKey_Sides(t *testing.T) {
	key := ConversationKey{BuyerID: 7, ListingID: 3, AdminID: 1}

	id, ok := key.ParticipantFor(RoleAdmin)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	id, _ = key.ParticipantFor(RoleUser)
	assert.Equal(t, int64(7), id)

	id, _ = key.Counterpart(RoleUser)
	assert.Equal(t, int64(1), id)
	id, _ = key.Counterpart(RoleAdmin)
	assert.Equal(t, int64(7), id)

	_, ok = key.ParticipantFor(Role("guest"))
	assert.False(t, ok)
}

func TestConversationKey_JSON(t *testing.T) {
	var out struct {
		Key ConversationKey `json:"key"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"key":"user_7_vehicle_3_admin_1"}`), &out))
	assert.Equal(t, ConversationKey{BuyerID: 7, ListingID: 3, AdminID: 1}, out.Key)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"user_7_vehicle_3_admin_1"}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"key":"user_7"}`), &out))
}

func TestReadFlagsFor(t *testing.T) {
	a, u := ReadFlagsFor(RoleAdmin)
	assert.True(t, a)
	assert.False(t, u)

	a, u = ReadFlagsFor(RoleUser)
	assert.False(t, a)
	assert.True(t, u)

	m := Message{ReadByAdmin: true}
	assert.Equal(t, RoleUser, m.ReceiverRole())
	m = Message{ReadByUser: true}
	assert.Equal(t, RoleAdmin, m.ReceiverRole())
}
