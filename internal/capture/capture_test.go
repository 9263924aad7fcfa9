package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/fingerprint"
	"go.klb.dev/clipkeep/internal/imaging"
	"go.klb.dev/clipkeep/internal/item"
	"go.klb.dev/clipkeep/internal/store"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newManager(t *testing.T) (*Manager, *clock) {
	t.Helper()
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, layout.Ensure())
	st, err := store.Open(context.Background(), layout.DatabasePath())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	c := &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	return New(st, layout, WithClock(c.Now)), c
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCaptureTextDedup(t *testing.T) {
	m, c := newManager(t)
	ctx := context.Background()

	first, err := m.CaptureText(ctx, "Hello World", "Notes")
	require.NoError(t, err)
	assert.Equal(t, item.TypePlain, first.ContentType)
	assert.Equal(t, "Hello World", first.PreviewText)
	assert.Equal(t, "Notes", first.SourceApp)
	assert.False(t, first.Pinned)
	assert.Equal(t, fingerprint.String("Hello World"), first.ID)

	c.Advance(time.Minute)
	second, err := m.CaptureText(ctx, "Hello World", "Editor")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Notes", second.SourceApp)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, second.LastUsedAt.After(first.LastUsedAt))

	n, err := m.Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCaptureTextRejectsBlank(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.CaptureText(context.Background(), "  \n\t", "x")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCaptureTextUnknownSource(t *testing.T) {
	m, _ := newManager(t)
	it, err := m.CaptureText(context.Background(), "abc", "")
	require.NoError(t, err)
	assert.Equal(t, item.UnknownSource, it.SourceApp)
}

func TestCaptureImage(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	data := pngOf(t, 640, 480)

	it, err := m.CaptureImage(ctx, clip.Image{Data: data, Layout: imaging.LayoutEncoded}, "Preview")
	require.NoError(t, err)
	assert.Equal(t, item.TypeImage, it.ContentType)
	assert.Regexp(t, regexp.MustCompile(`^\[Image\] 640x480px \(\d+\.\d KB\)$`), it.PreviewText)
	assert.Equal(t, m.Layout().ImagePath(it.ID), it.Content)

	meta, err := it.Image()
	require.NoError(t, err)
	assert.Equal(t, uint32(640), meta.Width)
	assert.Equal(t, uint32(480), meta.Height)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, len(data), meta.SizeBytes)
	assert.NotEqual(t, it.Content, meta.ThumbnailPath)

	full, err := m.ImageBytes(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, data, full)

	thumb, err := m.ThumbnailBytes(ctx, it.ID)
	require.NoError(t, err)
	require.NotEmpty(t, thumb)
	cfg, err := png.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
}

func TestCaptureImageRawBGRA(t *testing.T) {
	m, _ := newManager(t)
	raw := []byte{0, 0, 255, 255, 0, 255, 0, 255}
	it, err := m.CaptureImage(context.Background(), clip.Image{Data: raw, Width: 2, Height: 1, Layout: imaging.LayoutBGRA}, "")
	require.NoError(t, err)
	assert.Equal(t, "[Image] 2x1px", it.PreviewText[:len("[Image] 2x1px")])
}

func TestCaptureImageInvalid(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.CaptureImage(context.Background(), clip.Image{Data: []byte("nope")}, "")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestThumbnailFallsBackToImage(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	data := pngOf(t, 10, 10)
	it, err := m.CaptureImage(ctx, clip.Image{Data: data}, "")
	require.NoError(t, err)

	meta, err := it.Image()
	require.NoError(t, err)
	require.NoError(t, os.Remove(meta.ThumbnailPath))

	got, err := m.ThumbnailBytes(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestImageBytesRequiresImage(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	it, err := m.CaptureText(ctx, "text", "")
	require.NoError(t, err)

	_, err = m.ImageBytes(ctx, it.ID)
	assert.ErrorIs(t, err, ErrNotImage)
	_, err = m.ThumbnailBytes(ctx, it.ID)
	assert.ErrorIs(t, err, ErrNotImage)
	_, err = m.ImageBytes(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteRemovesArtifacts(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	it, err := m.CaptureImage(ctx, clip.Image{Data: pngOf(t, 30, 20)}, "")
	require.NoError(t, err)
	meta, err := it.Image()
	require.NoError(t, err)
	require.FileExists(t, it.Content)
	require.FileExists(t, meta.ThumbnailPath)

	require.NoError(t, m.Delete(ctx, it.ID))
	assert.NoFileExists(t, it.Content)
	assert.NoFileExists(t, meta.ThumbnailPath)
	_, err = m.Store().Get(ctx, it.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, m.Delete(ctx, it.ID), store.ErrNotFound)
}

func TestDeleteToleratesMissingFiles(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	it, err := m.CaptureImage(ctx, clip.Image{Data: pngOf(t, 3, 3)}, "")
	require.NoError(t, err)
	require.NoError(t, os.Remove(it.Content))
	assert.NoError(t, m.Delete(ctx, it.ID))
}

func TestCaptureRichText(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	html := "<p>Hello <b>there</b></p>"

	it, err := m.CaptureRichText(ctx, clip.RichText{HTML: &html, Plain: "Hello there"}, "Browser")
	require.NoError(t, err)
	assert.Equal(t, item.TypeRich, it.ContentType)
	assert.Equal(t, fingerprint.Rich(&html, nil, "Hello there"), it.ID)
	assert.Equal(t, "Hello there", it.PreviewText)
	assert.JSONEq(t, `{"html":"<p>Hello <b>there</b></p>","rtf":null,"plain":"Hello there"}`, it.Content)
	assert.JSONEq(t, `{"has_html":true,"has_rtf":false,"html_preview":"<p>Hello <b>there</b></p>"}`, string(it.Metadata))

	_, err = m.CaptureRichText(ctx, clip.RichText{}, "")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCaptureFiles(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(a, make([]byte, 1024*1024), 0o644))
	require.NoError(t, os.WriteFile(b, make([]byte, 512*1024), 0o644))

	one, err := m.CaptureFiles(ctx, []string{a}, "Finder")
	require.NoError(t, err)
	assert.Equal(t, "[File] a.txt", one.PreviewText)

	many, err := m.CaptureFiles(ctx, []string{a, filepath.Join(dir, "gone"), b}, "Finder")
	require.NoError(t, err)
	assert.Equal(t, "[Files] 2 items (1.5 MB)", many.PreviewText)
	paths, err := many.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, paths)
	assert.Equal(t, fingerprint.Paths([]string{a, b}), many.ID)

	_, err = m.CaptureFiles(ctx, []string{filepath.Join(dir, "gone")}, "")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCaptureDispatch(t *testing.T) {
	m, _ := newManager(t)
	it, err := m.Capture(context.Background(), clip.Content{Kind: clip.KindText, Text: "dispatch", Source: "Term"})
	require.NoError(t, err)
	assert.Equal(t, item.TypePlain, it.ContentType)
	assert.Equal(t, "Term", it.SourceApp)

	_, err = m.Capture(context.Background(), clip.Content{Kind: "bogus"})
	assert.Error(t, err)
}

func TestConcurrentIdenticalCaptures(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	data := pngOf(t, 20, 20)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := m.CaptureText(ctx, "same text", "A")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := m.CaptureImage(ctx, clip.Image{Data: data}, "B")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := m.Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPurgeOlderThanRemovesFilesAndSparesPinned(t *testing.T) {
	m, c := newManager(t)
	ctx := context.Background()

	pinned, err := m.CaptureText(ctx, "keep me", "")
	require.NoError(t, err)
	require.NoError(t, m.Store().SetPinned(ctx, pinned.ID, true))
	img, err := m.CaptureImage(ctx, clip.Image{Data: pngOf(t, 5, 5)}, "")
	require.NoError(t, err)

	c.Advance(40 * 24 * time.Hour)
	_, err = m.CaptureText(ctx, "recent", "")
	require.NoError(t, err)

	n, err := m.PurgeOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, img.Content)

	left, err := m.Store().List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}
