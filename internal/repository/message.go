package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dealership-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `id, conversation_key, sender_id, sender_name, receiver_id, listing_id,
	body, created_at, read_by_admin, read_by_user`

// MessageRepository is the Postgres MessageStore.
type MessageRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ MessageStore = (*MessageRepository)(nil)

func NewMessageRepository(pool *pgxpool.Pool, opts ...Option) *MessageRepository {
	o := buildOptions(opts)
	return &MessageRepository{pool: pool, now: o.now}
}

func (r *MessageRepository) Append(ctx context.Context, msg *model.Message, sender model.Role) (*model.Message, error) {
	row, key, err := prepareAppend(msg, sender, r.now())
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_key, buyer_id, admin_id, sender_id, sender_name,
		                      receiver_id, listing_id, body, created_at, read_by_admin, read_by_user)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, key.String(), key.BuyerID, key.AdminID, row.SenderID, row.SenderName,
		row.ReceiverID, row.ListingID, row.Body, row.CreatedAt, row.ReadByAdmin, row.ReadByUser,
	).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &row, nil
}

func (r *MessageRepository) History(ctx context.Context, key string) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_key = $1
		ORDER BY created_at ASC, id ASC
	`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepository) MarkRead(ctx context.Context, subjectID int64, role model.Role, key string) (int64, error) {
	_, _, flag, err := roleColumns(role)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`UPDATE messages SET %[1]s = TRUE WHERE receiver_id = $1 AND %[1]s = FALSE`, flag)
	args := []any{subjectID}
	if key != "" {
		query += ` AND conversation_key = $2`
		args = append(args, key)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepository) PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE created_at < $1`, horizon.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepository) UnreadConversationCount(ctx context.Context, subjectID int64, role model.Role) (int, error) {
	_, _, flag, err := roleColumns(role)
	if err != nil {
		return 0, err
	}

	var count int
	err = r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT COUNT(DISTINCT conversation_key)
		FROM messages
		WHERE receiver_id = $1 AND %s = FALSE
	`, flag), subjectID).Scan(&count)
	return count, err
}

func (r *MessageRepository) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	m, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *MessageRepository) DeleteMessage(ctx context.Context, id int64) (int64, error) {
	return r.exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
}

func (r *MessageRepository) DeleteConversation(ctx context.Context, key string) (int64, error) {
	return r.exec(ctx, `DELETE FROM messages WHERE conversation_key = $1`, key)
}

func (r *MessageRepository) DeleteListing(ctx context.Context, listingID int64) (int64, error) {
	return r.exec(ctx, `DELETE FROM messages WHERE listing_id = $1`, listingID)
}

func (r *MessageRepository) Conversations(ctx context.Context, subjectID int64, role model.Role) ([]model.ConversationSummary, error) {
	side, counterpart, flag, err := roleColumns(role)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT m.conversation_key, m.body, m.created_at, m.listing_id, m.%[2]s,
		       (SELECT COUNT(*) FROM messages u
		         WHERE u.conversation_key = m.conversation_key
		           AND u.receiver_id = $1
		           AND u.%[3]s = FALSE)
		FROM messages m
		WHERE m.id IN (SELECT MAX(id) FROM messages WHERE %[1]s = $1 GROUP BY conversation_key)
		ORDER BY m.created_at DESC, m.id DESC
	`, side, counterpart, flag), subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ConversationSummary{}
	for rows.Next() {
		var s model.ConversationSummary
		if err := rows.Scan(&s.ConversationKey, &s.LastMessage, &s.LastMessageAt, &s.ListingID,
			&s.CounterpartID, &s.UnreadCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *MessageRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close is a no-op: the pool is shared and owned by main.
func (r *MessageRepository) Close() {}

func (r *MessageRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.ConversationKey, &m.SenderID, &m.SenderName, &m.ReceiverID,
		&m.ListingID, &m.Body, &m.CreatedAt, &m.ReadByAdmin, &m.ReadByUser)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
