// Package store persists clipboard history in an embedded SQLite database.
//
// Every exported method holds the store mutex for exactly one logical
// operation. Sequences that must not interleave (touch = lookup + update,
// insert = upsert + read-back, purge = select + delete) run inside a single
// critical section, so two concurrent captures of identical content can never
// produce two rows.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"go.klb.dev/clipkeep/internal/item"
)

// ErrNotFound is returned when no item has the requested id.
var ErrNotFound = errors.New("clip not found")

// timeLayout is fixed width so that lexical order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const defaultBusyTimeout = 5 * time.Second

// Store is the SQLite-backed clip repository.
type Store struct {
	mu sync.Mutex
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path and migrates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		abs, defaultBusyTimeout.Milliseconds())
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS clip_items (
		id TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		content TEXT NOT NULL,
		preview_text TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		source_app TEXT NOT NULL,
		created_at TEXT NOT NULL,
		last_used_at TEXT NOT NULL,
		pinned INTEGER NOT NULL DEFAULT 0,
		metadata TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_created_at ON clip_items(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_pinned ON clip_items(pinned DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_content_type ON clip_items(content_type)`,
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrate: %w", err)
	}
	return nil
}

// row is the database shape of an item.ClipItem.
type row struct {
	ID          string         `db:"id"`
	ContentType string         `db:"content_type"`
	Content     string         `db:"content"`
	PreviewText string         `db:"preview_text"`
	Tags        string         `db:"tags"`
	SourceApp   string         `db:"source_app"`
	CreatedAt   string         `db:"created_at"`
	LastUsedAt  string         `db:"last_used_at"`
	Pinned      bool           `db:"pinned"`
	Metadata    sql.NullString `db:"metadata"`
}

const columns = `id, content_type, content, preview_text, tags, source_app, created_at, last_used_at, pinned, metadata`

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func toRow(it item.ClipItem) (row, error) {
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	tb, err := json.Marshal(tags)
	if err != nil {
		return row{}, fmt.Errorf("encode tags: %w", err)
	}
	r := row{
		ID:          it.ID,
		ContentType: string(it.ContentType),
		Content:     it.Content,
		PreviewText: it.PreviewText,
		Tags:        string(tb),
		SourceApp:   it.SourceApp,
		CreatedAt:   formatTime(it.CreatedAt),
		LastUsedAt:  formatTime(it.LastUsedAt),
		Pinned:      it.Pinned,
	}
	if len(it.Metadata) > 0 {
		r.Metadata = sql.NullString{String: string(it.Metadata), Valid: true}
	}
	return r, nil
}

func (r row) item() (item.ClipItem, error) {
	it := item.ClipItem{
		ID:          r.ID,
		ContentType: item.ContentType(r.ContentType),
		Content:     r.Content,
		PreviewText: r.PreviewText,
		SourceApp:   r.SourceApp,
		Pinned:      r.Pinned,
		Tags:        []string{},
	}
	if r.Tags != "" {
		if err := json.Unmarshal([]byte(r.Tags), &it.Tags); err != nil {
			return it, fmt.Errorf("decode tags for %s: %w", r.ID, err)
		}
	}
	var err error
	if it.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return it, err
	}
	if it.LastUsedAt, err = parseTime(r.LastUsedAt); err != nil {
		return it, err
	}
	if r.Metadata.Valid && r.Metadata.String != "" {
		it.Metadata = json.RawMessage(r.Metadata.String)
	}
	return it, nil
}

func toItems(rows []row) ([]item.ClipItem, error) {
	out := make([]item.ClipItem, 0, len(rows))
	for _, r := range rows {
		it, err := r.item()
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

const upsertQuery = `INSERT INTO clip_items (` + columns + `)
VALUES (:id, :content_type, :content, :preview_text, :tags, :source_app, :created_at, :last_used_at, :pinned, :metadata)
ON CONFLICT(id) DO UPDATE SET
	last_used_at = excluded.last_used_at,
	content = excluded.content`

// Upsert inserts it, or on an id conflict refreshes only last_used_at and
// content of the existing row.
func (s *Store) Upsert(ctx context.Context, it item.ClipItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(ctx, it)
}

func (s *Store) upsertLocked(ctx context.Context, it item.ClipItem) error {
	r, err := toRow(it)
	if err != nil {
		return err
	}
	if _, err := s.db.NamedExecContext(ctx, upsertQuery, r); err != nil {
		return fmt.Errorf("upsert %s: %w", it.ID, err)
	}
	return nil
}

// Insert upserts it and returns the row as persisted.
func (s *Store) Insert(ctx context.Context, it item.ClipItem) (item.ClipItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upsertLocked(ctx, it); err != nil {
		return item.ClipItem{}, err
	}
	return s.getLocked(ctx, it.ID)
}

// Get returns the item with the given id.
func (s *Store) Get(ctx context.Context, id string) (item.ClipItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, id)
}

func (s *Store) getLocked(ctx context.Context, id string) (item.ClipItem, error) {
	var r row
	err := s.db.GetContext(ctx, &r, `SELECT `+columns+` FROM clip_items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return item.ClipItem{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return item.ClipItem{}, fmt.Errorf("get %s: %w", id, err)
	}
	return r.item()
}

// Touch bumps last_used_at of an existing item and returns it. found is
// false, with a nil error, when no item has that id.
func (s *Store) Touch(ctx context.Context, id string, now time.Time) (it item.ClipItem, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `UPDATE clip_items SET last_used_at = ? WHERE id = ?`, formatTime(now), id)
	if err != nil {
		return item.ClipItem{}, false, fmt.Errorf("touch %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return item.ClipItem{}, false, nil
	}
	it, err = s.getLocked(ctx, id)
	if err != nil {
		return item.ClipItem{}, false, err
	}
	return it, true, nil
}

// List returns items pinned first, then newest first. A limit <= 0 means no
// limit.
func (s *Store) List(ctx context.Context, limit, offset int) ([]item.ClipItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(ctx, "", nil, limit, offset)
}

const orderClause = ` ORDER BY pinned DESC, created_at DESC LIMIT ? OFFSET ?`

func (s *Store) selectLocked(ctx context.Context, where string, args []any, limit, offset int) ([]item.ClipItem, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + columns + ` FROM clip_items`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += orderClause
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, q, append(args, limit, offset)...); err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	return toItems(rows)
}

// SetTags replaces the tag list of an item.
func (s *Store) SetTags(ctx context.Context, id string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	return s.execOne(ctx, id, `UPDATE clip_items SET tags = ? WHERE id = ?`, string(b), id)
}

// SetPinned pins or unpins an item.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool) error {
	return s.execOne(ctx, id, `UPDATE clip_items SET pinned = ? WHERE id = ?`, pinned, id)
}

// Delete removes an item row. Artifact cleanup is the caller's concern.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.execOne(ctx, id, `DELETE FROM clip_items WHERE id = ?`, id)
}

func (s *Store) execOne(ctx context.Context, id, q string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM clip_items`); err != nil {
		return 0, fmt.Errorf("count clips: %w", err)
	}
	return n, nil
}
