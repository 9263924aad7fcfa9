package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.klb.dev/clipkeep/internal/item"
	"go.klb.dev/clipkeep/internal/store"
)

// Delete removes an item and, for images, its files. File removal is best
// effort; a missing item yields store.ErrNotFound.
func (m *Manager) Delete(ctx context.Context, id string) error {
	it, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	RemoveFiles(it.Artifacts())
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("clip deleted", "id", id, "type", it.ContentType)
	return nil
}

// ImageBytes returns the stored PNG of an image item.
func (m *Manager) ImageBytes(ctx context.Context, id string) ([]byte, error) {
	it, err := m.imageItem(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(it.Content)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", id, err)
	}
	return b, nil
}

// ThumbnailBytes returns the thumbnail PNG of an image item, falling back to
// the full image when no thumbnail is recorded or it cannot be read.
func (m *Manager) ThumbnailBytes(ctx context.Context, id string) ([]byte, error) {
	it, err := m.imageItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta, err := it.Image(); err == nil && meta.ThumbnailPath != "" {
		b, err := os.ReadFile(meta.ThumbnailPath)
		if err == nil {
			return b, nil
		}
		slog.Debug("thumbnail unreadable, using full image", "id", id, "err", err)
	}
	b, err := os.ReadFile(it.Content)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", id, err)
	}
	return b, nil
}

func (m *Manager) imageItem(ctx context.Context, id string) (item.ClipItem, error) {
	it, err := m.store.Get(ctx, id)
	if err != nil {
		return item.ClipItem{}, err
	}
	if it.ContentType != item.TypeImage {
		return item.ClipItem{}, fmt.Errorf("%s is %s: %w", id, it.ContentType, ErrNotImage)
	}
	return it, nil
}

// PurgeOlderThan removes un-pinned items older than days and their files.
func (m *Manager) PurgeOlderThan(ctx context.Context, days int) (int, error) {
	return m.finishPurge(m.store.PurgeOlderThan(ctx, days, m.now()))
}

// PurgeBefore removes un-pinned items created before t and their files.
func (m *Manager) PurgeBefore(ctx context.Context, t time.Time) (int, error) {
	return m.finishPurge(m.store.PurgeBefore(ctx, t))
}

// PurgeBetween removes un-pinned items created in [start, end) and their files.
func (m *Manager) PurgeBetween(ctx context.Context, start, end time.Time) (int, error) {
	return m.finishPurge(m.store.PurgeBetween(ctx, start, end))
}

// TrimTo keeps the keep newest un-pinned items and removes the rest.
func (m *Manager) TrimTo(ctx context.Context, keep int) (int, error) {
	return m.finishPurge(m.store.TrimTo(ctx, keep))
}

func (m *Manager) finishPurge(p store.Purge, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	RemoveFiles(p.Artifacts)
	if p.Count > 0 {
		slog.Info("clips purged", "count", p.Count, "files", len(p.Artifacts))
	}
	return p.Count, nil
}

// RemoveFiles deletes paths, logging and ignoring failures. Already missing
// files are not an error.
func RemoveFiles(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove clip file", "path", p, "err", err)
		}
	}
}
