// Package capture turns observed clipboard content into stored history items.
//
// Every capture fingerprints the normalized content first. A known
// fingerprint only bumps last_used_at of the existing item; an unknown one
// builds the full item (preview, metadata, image artifacts) and persists it.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/fingerprint"
	"go.klb.dev/clipkeep/internal/imaging"
	"go.klb.dev/clipkeep/internal/item"
	"go.klb.dev/clipkeep/internal/store"
)

var (
	// ErrEmptyContent is returned for content with nothing worth keeping.
	ErrEmptyContent = errors.New("empty content")
	// ErrInvalidImage is returned for image data that cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNotImage is returned when image bytes are requested for a non-image item.
	ErrNotImage = errors.New("item is not an image")
)

// Manager is the capture/dedup manager.
type Manager struct {
	store  *store.Store
	layout Layout
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New returns a Manager persisting to st with artifacts under layout.
func New(st *store.Store, layout Layout, opts ...Option) *Manager {
	m := &Manager{store: st, layout: layout, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Store returns the underlying store.
func (m *Manager) Store() *store.Store { return m.store }

// Layout returns the data directory layout.
func (m *Manager) Layout() Layout { return m.layout }

func sourceOr(s string) string {
	if strings.TrimSpace(s) == "" {
		return item.UnknownSource
	}
	return s
}

// existing bumps and returns the item with fingerprint id, if stored.
func (m *Manager) existing(ctx context.Context, id string) (item.ClipItem, bool, error) {
	it, found, err := m.store.Touch(ctx, id, m.now())
	if err != nil {
		return item.ClipItem{}, false, fmt.Errorf("dedup lookup: %w", err)
	}
	if found {
		slog.Debug("clip already stored, touched", "id", id, "type", it.ContentType)
	}
	return it, found, nil
}

func (m *Manager) persist(ctx context.Context, it item.ClipItem) (item.ClipItem, error) {
	now := m.now()
	it.CreatedAt = now
	it.LastUsedAt = now
	it.SourceApp = sourceOr(it.SourceApp)
	if it.Tags == nil {
		it.Tags = []string{}
	}
	saved, err := m.store.Insert(ctx, it)
	if err != nil {
		return item.ClipItem{}, fmt.Errorf("persist: %w", err)
	}
	slog.Info("clip captured", "id", saved.ID, "type", saved.ContentType, "source", saved.SourceApp)
	return saved, nil
}

// Capture dispatches c to the matching kind-specific capture.
func (m *Manager) Capture(ctx context.Context, c clip.Content) (item.ClipItem, error) {
	switch c.Kind {
	case clip.KindText:
		return m.CaptureText(ctx, c.Text, c.Source)
	case clip.KindImage:
		return m.CaptureImage(ctx, c.Image, c.Source)
	case clip.KindRichText:
		return m.CaptureRichText(ctx, c.Rich, c.Source)
	case clip.KindFiles:
		return m.CaptureFiles(ctx, c.Files, c.Source)
	default:
		return item.ClipItem{}, fmt.Errorf("unknown content kind %q", c.Kind)
	}
}

// CaptureText stores plain text.
func (m *Manager) CaptureText(ctx context.Context, text, source string) (item.ClipItem, error) {
	if strings.TrimSpace(text) == "" {
		return item.ClipItem{}, fmt.Errorf("text: %w", ErrEmptyContent)
	}
	id := fingerprint.String(text)
	if it, found, err := m.existing(ctx, id); err != nil || found {
		return it, err
	}
	return m.persist(ctx, item.ClipItem{
		ID:          id,
		ContentType: item.TypePlain,
		Content:     text,
		PreviewText: item.TextPreview(text),
		SourceApp:   source,
	})
}

// CaptureImage normalizes img to PNG and stores it with a thumbnail.
func (m *Manager) CaptureImage(ctx context.Context, img clip.Image, source string) (item.ClipItem, error) {
	if len(img.Data) == 0 {
		return item.ClipItem{}, fmt.Errorf("image: %w", ErrEmptyContent)
	}
	layout := img.Layout
	if layout == "" {
		layout = imaging.LayoutEncoded
	}
	norm, err := imaging.Normalize(img.Data, img.Width, img.Height, layout)
	if err != nil {
		return item.ClipItem{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	id := fingerprint.Bytes(norm.PNG)
	if it, found, err := m.existing(ctx, id); err != nil || found {
		return it, err
	}

	imagePath := m.layout.ImagePath(id)
	thumbPath := m.layout.ThumbnailPath(id)
	if err := writeFile(imagePath, norm.PNG); err != nil {
		return item.ClipItem{}, fmt.Errorf("save image: %w", err)
	}
	thumb, err := imaging.Thumbnail(norm.PNG)
	if err != nil {
		return item.ClipItem{}, fmt.Errorf("thumbnail: %w", err)
	}
	if err := writeFile(thumbPath, thumb); err != nil {
		return item.ClipItem{}, fmt.Errorf("save thumbnail: %w", err)
	}

	meta, err := item.MarshalMetadata(item.ImageMetadata{
		Width:         norm.Width,
		Height:        norm.Height,
		Format:        "png",
		SizeBytes:     len(norm.PNG),
		ThumbnailPath: thumbPath,
	})
	if err != nil {
		return item.ClipItem{}, err
	}
	return m.persist(ctx, item.ClipItem{
		ID:          id,
		ContentType: item.TypeImage,
		Content:     imagePath,
		PreviewText: item.ImagePreview(norm.Width, norm.Height, len(norm.PNG)),
		SourceApp:   source,
		Metadata:    meta,
	})
}

// CaptureRichText stores formatted text with its plain-text rendering.
func (m *Manager) CaptureRichText(ctx context.Context, rt clip.RichText, source string) (item.ClipItem, error) {
	if rt.Empty() {
		return item.ClipItem{}, fmt.Errorf("rich text: %w", ErrEmptyContent)
	}
	id := fingerprint.Rich(rt.HTML, rt.RTF, rt.Plain)
	if it, found, err := m.existing(ctx, id); err != nil || found {
		return it, err
	}

	content, err := json.Marshal(item.RichContent{HTML: rt.HTML, RTF: rt.RTF, Plain: rt.Plain})
	if err != nil {
		return item.ClipItem{}, fmt.Errorf("encode rich text: %w", err)
	}
	rm := item.RichTextMetadata{HasHTML: rt.HTML != nil, HasRTF: rt.RTF != nil}
	if rt.HTML != nil {
		rm.HTMLPreview = item.Truncate(*rt.HTML, item.HTMLPreviewLimit)
	}
	meta, err := item.MarshalMetadata(rm)
	if err != nil {
		return item.ClipItem{}, err
	}
	preview := rt.Plain
	if strings.TrimSpace(preview) == "" && rt.HTML != nil {
		preview = *rt.HTML
	}
	return m.persist(ctx, item.ClipItem{
		ID:          id,
		ContentType: item.TypeRich,
		Content:     string(content),
		PreviewText: item.TextPreview(preview),
		SourceApp:   source,
		Metadata:    meta,
	})
}

// CaptureFiles stores a list of file references. Paths are made absolute and
// cleaned; paths that do not exist are dropped.
func (m *Manager) CaptureFiles(ctx context.Context, paths []string, source string) (item.ClipItem, error) {
	var (
		kept  []string
		total int64
	)
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			slog.Debug("skipping missing file", "path", abs, "err", err)
			continue
		}
		kept = append(kept, abs)
		if !info.IsDir() {
			total += info.Size()
		}
	}
	if len(kept) == 0 {
		return item.ClipItem{}, fmt.Errorf("files: %w", ErrEmptyContent)
	}

	id := fingerprint.Paths(kept)
	if it, found, err := m.existing(ctx, id); err != nil || found {
		return it, err
	}
	content, err := json.Marshal(kept)
	if err != nil {
		return item.ClipItem{}, fmt.Errorf("encode files: %w", err)
	}
	meta, err := item.MarshalMetadata(item.FileMetadata{FilePaths: kept, TotalSizeBytes: total})
	if err != nil {
		return item.ClipItem{}, err
	}
	return m.persist(ctx, item.ClipItem{
		ID:          id,
		ContentType: item.TypeFile,
		Content:     string(content),
		PreviewText: item.FilePreview(kept, total),
		SourceApp:   source,
		Metadata:    meta,
	})
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
