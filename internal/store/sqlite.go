package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS saved_items (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	source_type TEXT NOT NULL DEFAULT 'note',
	category    TEXT NOT NULL DEFAULT 'other',
	summary     TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	pinned      INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saved_items_user_created ON saved_items (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC);
`

const itemColumns = `id, user_id, title, content, url, source_type, category, summary, tags, pinned, created_at`

// SQLiteStore is the embedded single-file backend.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLite opens or creates the database at path and applies the schema.
// Pass MemoryDSN for a throwaway database.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and a
	// file database avoids "database is locked".
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL", sqliteSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialising database: %w", err)
		}
	}

	logger.Info("sqlite store opened", zap.String("path", path))
	return &SQLiteStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, item domain.SavedItem) (domain.SavedItem, error) {
	item, err := prepareItem(item, s.now())
	if err != nil {
		return domain.SavedItem{}, err
	}
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return domain.SavedItem{}, backendError(DriverSQLite, "create", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Title, item.Content, item.URL, string(item.SourceType),
		string(item.Category), item.Summary, string(tags), item.Pinned, item.CreatedAt.UnixNano())
	if err != nil {
		return domain.SavedItem{}, backendError(DriverSQLite, "create", err)
	}
	return item, nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID, id string) (domain.SavedItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM saved_items WHERE user_id = ? AND id = ?`, userID, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SavedItem{}, itemNotFound(userID, id)
	}
	if err != nil {
		return domain.SavedItem{}, backendError(DriverSQLite, "get", err)
	}
	return item, nil
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM saved_items WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, backendError(DriverSQLite, "list", err)
	}
	defer rows.Close()

	items := []domain.SavedItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, backendError(DriverSQLite, "list", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, backendError(DriverSQLite, "list", err)
	}
	return items, nil
}

func (s *SQLiteStore) Update(ctx context.Context, userID, id string, patch domain.ItemPatch) (domain.SavedItem, error) {
	if err := patch.Validate(); err != nil {
		return domain.SavedItem{}, err
	}
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return domain.SavedItem{}, err
	}
	next := patch.Apply(current)
	tags, err := json.Marshal(next.Tags)
	if err != nil {
		return domain.SavedItem{}, backendError(DriverSQLite, "update", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE saved_items SET title = ?, summary = ?, tags = ?, category = ? WHERE user_id = ? AND id = ?`,
		next.Title, next.Summary, string(tags), string(next.Category), userID, id)
	if err != nil {
		return domain.SavedItem{}, backendError(DriverSQLite, "update", err)
	}
	if err := expectOneRow(res, itemNotFound(userID, id)); err != nil {
		return domain.SavedItem{}, err
	}
	return next, nil
}

func (s *SQLiteStore) SetPinned(ctx context.Context, userID, id string, pinned bool) (domain.SavedItem, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE saved_items SET pinned = ? WHERE user_id = ? AND id = ?`, pinned, userID, id)
	if err != nil {
		return domain.SavedItem{}, backendError(DriverSQLite, "pin", err)
	}
	if err := expectOneRow(res, itemNotFound(userID, id)); err != nil {
		return domain.SavedItem{}, err
	}
	return s.Get(ctx, userID, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_items WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return backendError(DriverSQLite, "delete", err)
	}
	return expectOneRow(res, itemNotFound(userID, id))
}

// ============================================================================
// NOTIFICATIONS
// ============================================================================

func (s *SQLiteStore) AddNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n, err := prepareNotification(n, s.now())
	if err != nil {
		return domain.Notification{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, title, message, type, read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Message, string(n.Type), n.Read, n.CreatedAt.UnixNano())
	if err != nil {
		return domain.Notification{}, backendError(DriverSQLite, "add notification", err)
	}
	return n, nil
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, type, read, created_at FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC, id ASC LIMIT ?`, userID, notificationLimit(limit))
	if err != nil {
		return nil, backendError(DriverSQLite, "list notifications", err)
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		var (
			n       domain.Notification
			typ     string
			created int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &n.Read, &created); err != nil {
			return nil, backendError(DriverSQLite, "list notifications", err)
		}
		n.Type = domain.NotificationType(typ)
		n.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, backendError(DriverSQLite, "list notifications", err)
	}
	return out, nil
}

func (s *SQLiteStore) MarkRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return backendError(DriverSQLite, "mark read", err)
	}
	return expectOneRow(res, notificationNotFound(userID, id))
}

func (s *SQLiteStore) MarkAllRead(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE user_id = ?`, userID); err != nil {
		return backendError(DriverSQLite, "mark all read", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteNotification(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return backendError(DriverSQLite, "delete notification", err)
	}
	return expectOneRow(res, notificationNotFound(userID, id))
}

func (s *SQLiteStore) ClearNotifications(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = ?`, userID); err != nil {
		return backendError(DriverSQLite, "clear notifications", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return backendError(DriverSQLite, "ping", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.SavedItem, error) {
	var (
		item                 domain.SavedItem
		sourceType, category string
		tags                 string
		created              int64
	)
	if err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Content, &item.URL,
		&sourceType, &category, &item.Summary, &tags, &item.Pinned, &created); err != nil {
		return domain.SavedItem{}, err
	}
	item.SourceType = domain.ParseSourceType(sourceType)
	item.Category = domain.Category(category)
	item.CreatedAt = time.Unix(0, created).UTC()
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil || item.Tags == nil {
		item.Tags = []string{}
	}
	return item, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return backendError(DriverSQLite, "rows affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
