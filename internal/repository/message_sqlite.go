package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dealership-backend/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteMessageStore keeps the chat log in a local SQLite file. It serves
// single-node deployments and tests; ":memory:" gives a throwaway database.
type SQLiteMessageStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ MessageStore = (*SQLiteMessageStore)(nil)

func NewSQLiteMessageStore(ctx context.Context, dbPath string, opts ...Option) (*SQLiteMessageStore, error) {
	if dbPath == "" {
		dbPath = "./data/chat.db"
	}

	dsn := ":memory:"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite serializes writers anyway, and an in-memory
	// database only lives on the connection that created it.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	o := buildOptions(opts)
	s := &SQLiteMessageStore{db: db, now: o.now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteMessageStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS messages (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_key TEXT     NOT NULL,
		buyer_id         INTEGER  NOT NULL,
		admin_id         INTEGER  NOT NULL,
		sender_id        INTEGER  NOT NULL,
		sender_name      TEXT     NOT NULL DEFAULT '',
		receiver_id      INTEGER  NOT NULL,
		listing_id       INTEGER,
		body             TEXT     NOT NULL,
		created_at       DATETIME NOT NULL,
		read_by_admin    BOOLEAN  NOT NULL DEFAULT 0,
		read_by_user     BOOLEAN  NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_messages_key_created ON messages(conversation_key, created_at, id);
	CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id);
	CREATE INDEX IF NOT EXISTS idx_messages_buyer ON messages(buyer_id);
	CREATE INDEX IF NOT EXISTS idx_messages_admin ON messages(admin_id);
	CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);
	`)
	return err
}

func (s *SQLiteMessageStore) Append(ctx context.Context, msg *model.Message, sender model.Role) (*model.Message, error) {
	row, key, err := prepareAppend(msg, sender, s.now())
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_key, buyer_id, admin_id, sender_id, sender_name,
		                      receiver_id, listing_id, body, created_at, read_by_admin, read_by_user)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, key.String(), key.BuyerID, key.AdminID, row.SenderID, row.SenderName,
		row.ReceiverID, row.ListingID, row.Body, row.CreatedAt, row.ReadByAdmin, row.ReadByUser)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if row.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *SQLiteMessageStore) History(ctx context.Context, key string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_key = ?
		ORDER BY created_at ASC, id ASC
	`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		m, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteMessageStore) MarkRead(ctx context.Context, subjectID int64, role model.Role, key string) (int64, error) {
	_, _, flag, err := roleColumns(role)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`UPDATE messages SET %[1]s = 1 WHERE receiver_id = ? AND %[1]s = 0`, flag)
	args := []any{subjectID}
	if key != "" {
		query += ` AND conversation_key = ?`
		args = append(args, key)
	}
	return s.exec(ctx, query, args...)
}

func (s *SQLiteMessageStore) PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	return s.exec(ctx, `DELETE FROM messages WHERE created_at < ?`, horizon.UTC())
}

func (s *SQLiteMessageStore) UnreadConversationCount(ctx context.Context, subjectID int64, role model.Role) (int, error) {
	_, _, flag, err := roleColumns(role)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(DISTINCT conversation_key)
		FROM messages
		WHERE receiver_id = ? AND %s = 0
	`, flag), subjectID).Scan(&count)
	return count, err
}

func (s *SQLiteMessageStore) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanSQLiteMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *SQLiteMessageStore) DeleteMessage(ctx context.Context, id int64) (int64, error) {
	return s.exec(ctx, `DELETE FROM messages WHERE id = ?`, id)
}

func (s *SQLiteMessageStore) DeleteConversation(ctx context.Context, key string) (int64, error) {
	return s.exec(ctx, `DELETE FROM messages WHERE conversation_key = ?`, key)
}

func (s *SQLiteMessageStore) DeleteListing(ctx context.Context, listingID int64) (int64, error) {
	return s.exec(ctx, `DELETE FROM messages WHERE listing_id = ?`, listingID)
}

func (s *SQLiteMessageStore) Conversations(ctx context.Context, subjectID int64, role model.Role) ([]model.ConversationSummary, error) {
	side, counterpart, flag, err := roleColumns(role)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT m.conversation_key, m.body, m.created_at, m.listing_id, m.%[2]s,
		       (SELECT COUNT(*) FROM messages u
		         WHERE u.conversation_key = m.conversation_key
		           AND u.receiver_id = ?
		           AND u.%[3]s = 0)
		FROM messages m
		WHERE m.id IN (SELECT MAX(id) FROM messages WHERE %[1]s = ? GROUP BY conversation_key)
		ORDER BY m.created_at DESC, m.id DESC
	`, side, counterpart, flag), subjectID, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ConversationSummary{}
	for rows.Next() {
		var c model.ConversationSummary
		if err := rows.Scan(&c.ConversationKey, &c.LastMessage, &c.LastMessageAt, &c.ListingID,
			&c.CounterpartID, &c.UnreadCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteMessageStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteMessageStore) Close() {
	s.db.Close()
}

func (s *SQLiteMessageStore) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteMessage(row rowScanner) (*model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.ConversationKey, &m.SenderID, &m.SenderName, &m.ReceiverID,
		&m.ListingID, &m.Body, &m.CreatedAt, &m.ReadByAdmin, &m.ReadByUser)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
