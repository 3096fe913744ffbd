package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"dealership-backend/internal/model"
)

// MaxBodyLength caps a chat message body in bytes.
const MaxBodyLength = 5000

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidRole = errors.New("invalid role")
	ErrEmptyBody   = errors.New("message body is empty")
	ErrBodyTooLong = errors.New("message body too long")
	ErrInvalidBody = errors.New("message body is not valid UTF-8")
)

// MessageStore is the persistence contract of the chat core. Both the
// Postgres repository and the SQLite store implement it; every mutation is a
// single statement.
type MessageStore interface {
	// Append assigns id and server timestamp and sets exactly one read flag
	// according to the sender's role.
	Append(ctx context.Context, msg *model.Message, sender model.Role) (*model.Message, error)
	// History returns all messages of a conversation, oldest first.
	History(ctx context.Context, key string) ([]model.Message, error)
	// MarkRead flips the role's read flag on unread rows addressed to
	// subjectID, within key when non-empty.
	MarkRead(ctx context.Context, subjectID int64, role model.Role, key string) (int64, error)
	// PurgeOlderThan hard-deletes rows created strictly before horizon.
	PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error)
	// UnreadConversationCount counts distinct keys with unread rows for subjectID.
	UnreadConversationCount(ctx context.Context, subjectID int64, role model.Role) (int, error)

	GetMessage(ctx context.Context, id int64) (*model.Message, error)
	DeleteMessage(ctx context.Context, id int64) (int64, error)
	DeleteConversation(ctx context.Context, key string) (int64, error)
	DeleteListing(ctx context.Context, listingID int64) (int64, error)
	// Conversations derives one summary per conversation the subject takes part in.
	Conversations(ctx context.Context, subjectID int64, role model.Role) ([]model.ConversationSummary, error)

	Ping(ctx context.Context) error
	Close()
}

type options struct {
	now func() time.Time
}

// Option configures a message store.
type Option func(*options)

// WithClock replaces the server clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ValidateBody trims and checks a message body.
func ValidateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	switch {
	case body == "":
		return "", ErrEmptyBody
	case len(body) > MaxBodyLength:
		return "", ErrBodyTooLong
	case !utf8.ValidString(body):
		return "", ErrInvalidBody
	}
	return body, nil
}

// prepareAppend validates msg and returns the row to insert along with its
// parsed key.
func prepareAppend(msg *model.Message, sender model.Role, now time.Time) (model.Message, model.ConversationKey, error) {
	if !sender.Valid() {
		return model.Message{}, model.ConversationKey{}, ErrInvalidRole
	}
	key, err := model.ParseKey(msg.ConversationKey)
	if err != nil {
		return model.Message{}, model.ConversationKey{}, err
	}
	body, err := ValidateBody(msg.Body)
	if err != nil {
		return model.Message{}, model.ConversationKey{}, err
	}

	row := *msg
	row.ID = 0
	row.Body = body
	row.CreatedAt = now.UTC()
	row.ReadByAdmin, row.ReadByUser = model.ReadFlagsFor(sender)
	return row, key, nil
}

// roleColumns maps a role to its side column, counterpart column and read flag.
func roleColumns(role model.Role) (side, counterpart, flag string, err error) {
	switch role {
	case model.RoleAdmin:
		return "admin_id", "buyer_id", "read_by_admin", nil
	case model.RoleUser:
		return "buyer_id", "admin_id", "read_by_user", nil
	default:
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
}
