package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.klb.dev/clipkeep/internal/item"
)

// ErrInvalidWindow is returned for retention windows that select nothing by
// construction (non-positive age, empty range).
var ErrInvalidWindow = errors.New("invalid retention window")

// Purge reports the outcome of a retention pass.
type Purge struct {
	Count     int
	Artifacts []string
}

// PurgeOlderThan deletes un-pinned items created more than days before now.
func (s *Store) PurgeOlderThan(ctx context.Context, days int, now time.Time) (Purge, error) {
	if days <= 0 {
		return Purge{}, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidWindow, days)
	}
	return s.PurgeBefore(ctx, now.AddDate(0, 0, -days))
}

// PurgeBefore deletes un-pinned items created strictly before t.
func (s *Store) PurgeBefore(ctx context.Context, t time.Time) (Purge, error) {
	return s.purge(ctx, `pinned = 0 AND created_at < ?`, formatTime(t))
}

// PurgeBetween deletes un-pinned items with start <= created_at < end.
func (s *Store) PurgeBetween(ctx context.Context, start, end time.Time) (Purge, error) {
	if !end.After(start) {
		return Purge{}, fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return s.purge(ctx, `pinned = 0 AND created_at >= ? AND created_at < ?`, formatTime(start), formatTime(end))
}

// TrimTo keeps the keep newest un-pinned items and deletes the rest. Pinned
// items are never removed and do not count toward keep.
func (s *Store) TrimTo(ctx context.Context, keep int) (Purge, error) {
	if keep < 0 {
		return Purge{}, fmt.Errorf("%w: negative keep %d", ErrInvalidWindow, keep)
	}
	return s.purge(ctx, `pinned = 0 AND id NOT IN (
		SELECT id FROM clip_items WHERE pinned = 0 ORDER BY created_at DESC, id LIMIT ?)`, keep)
}

type victim struct {
	ID          string  `db:"id"`
	ContentType string  `db:"content_type"`
	Content     string  `db:"content"`
	Metadata    *string `db:"metadata"`
}

func (s *Store) purge(ctx context.Context, where string, args ...any) (Purge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Purge{}, fmt.Errorf("begin purge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var victims []victim
	if err := tx.SelectContext(ctx, &victims,
		`SELECT id, content_type, content, metadata FROM clip_items WHERE `+where, args...); err != nil {
		return Purge{}, fmt.Errorf("select purge: %w", err)
	}
	if len(victims) == 0 {
		return Purge{}, nil
	}
	// Same predicate in the same transaction, so exactly the victims go.
	res, err := tx.ExecContext(ctx, `DELETE FROM clip_items WHERE `+where, args...)
	if err != nil {
		return Purge{}, fmt.Errorf("purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Purge{}, fmt.Errorf("purge: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Purge{}, fmt.Errorf("commit purge: %w", err)
	}

	p := Purge{Count: int(n)}
	for _, v := range victims {
		it := item.ClipItem{ID: v.ID, ContentType: item.ContentType(v.ContentType), Content: v.Content}
		if v.Metadata != nil {
			it.Metadata = []byte(*v.Metadata)
		}
		p.Artifacts = append(p.Artifacts, it.Artifacts()...)
	}
	return p, nil
}
