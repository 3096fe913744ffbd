package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidIdentity is returned when a conversation key cannot be derived or parsed.
var ErrInvalidIdentity = errors.New("invalid conversation identity")

var (
	keyPattern   = regexp.MustCompile(`^user_(\d+)_vehicle_(\d+)_admin_(\d+)$`)
	buyerPattern = regexp.MustCompile(`^user_(\d+)_`)
	adminPattern = regexp.MustCompile(`admin_(\d+)$`)
)

// ConversationKey identifies a buyer/admin conversation about one listing.
// Its text form "user_<buyer>_vehicle_<listing>_admin_<admin>" is part of the
// wire protocol and doubles as the room name.
type ConversationKey struct {
	BuyerID   int64
	ListingID int64
	AdminID   int64
}

// DeriveKey builds the key for a conversation. All ids must be positive.
func DeriveKey(buyerID, listingID, adminID int64) (ConversationKey, error) {
	if buyerID <= 0 || listingID <= 0 || adminID <= 0 {
		return ConversationKey{}, ErrInvalidIdentity
	}
	return ConversationKey{BuyerID: buyerID, ListingID: listingID, AdminID: adminID}, nil
}

// ParseKey is the single decoding boundary for conversation keys.
func ParseKey(s string) (ConversationKey, error) {
	m := keyPattern.FindStringSubmatch(s)
	if m == nil {
		return ConversationKey{}, fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	ids := make([]int64, 3)
	for i := range ids {
		v, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return ConversationKey{}, fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
		}
		ids[i] = v
	}
	key, err := DeriveKey(ids[0], ids[1], ids[2])
	if err != nil {
		return ConversationKey{}, err
	}
	// One conversation has exactly one spelling; "user_07_..." would name a
	// different room than the rows stored under "user_7_...".
	if key.String() != s {
		return ConversationKey{}, fmt.Errorf("%w: non-canonical %q", ErrInvalidIdentity, s)
	}
	return key, nil
}

// ParseBuyerID extracts the buyer id from the "user_<N>_" prefix.
func ParseBuyerID(s string) (int64, bool) {
	return extractID(buyerPattern, s)
}

// ParseAdminID extracts the admin id from the trailing "admin_<N>".
func ParseAdminID(s string) (int64, bool) {
	return extractID(adminPattern, s)
}

func extractID(re *regexp.Regexp, s string) (int64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func (k ConversationKey) String() string {
	return fmt.Sprintf("user_%d_vehicle_%d_admin_%d", k.BuyerID, k.ListingID, k.AdminID)
}

// Valid reports whether every id is positive.
func (k ConversationKey) Valid() bool {
	return k.BuyerID > 0 && k.ListingID > 0 && k.AdminID > 0
}

// ParticipantFor returns the subject id that plays role in this conversation.
func (k ConversationKey) ParticipantFor(role Role) (int64, bool) {
	switch role {
	case RoleAdmin:
		return k.AdminID, true
	case RoleUser:
		return k.BuyerID, true
	default:
		return 0, false
	}
}

// Counterpart returns the subject id on the other side of role.
func (k ConversationKey) Counterpart(role Role) (int64, bool) {
	switch role {
	case RoleAdmin:
		return k.BuyerID, true
	case RoleUser:
		return k.AdminID, true
	default:
		return 0, false
	}
}

func (k ConversationKey) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, ErrInvalidIdentity
	}
	return []byte(k.String()), nil
}

func (k *ConversationKey) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ConversationSummary is the derived per-conversation view built from message rows.
type ConversationSummary struct {
	ConversationKey string    `json:"conversation_key"`
	LastMessage     string    `json:"last_message"`
	LastMessageAt   time.Time `json:"last_message_at"`
	ListingID       *int64    `json:"listing_id"`
	UnreadCount     int       `json:"unread_count"`

	// Filled from the vehicle and user tables.
	Brand           string `json:"brand,omitempty"`
	Model           string `json:"model,omitempty"`
	CounterpartID   int64  `json:"counterpart_id"`
	CounterpartName string `json:"counterpart_name,omitempty"`
}
