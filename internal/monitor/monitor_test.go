package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/item"
	"go.klb.dev/clipkeep/internal/notify"
)

type fakeExtractor struct {
	mu      sync.Mutex
	text    string
	image   []byte
	rich    *clip.RichText
	files   []string
	textErr error
	reads   int
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) ReadText() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.textErr != nil {
		return "", f.textErr
	}
	if f.text == "" {
		return "", clip.ErrAbsent
	}
	return f.text, nil
}

func (f *fakeExtractor) ReadImage() (clip.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.image == nil {
		return clip.Image{}, errors.New("boom")
	}
	return clip.Image{Data: f.image}, nil
}

func (f *fakeExtractor) ReadRichText() (clip.RichText, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rich == nil {
		return clip.RichText{}, clip.ErrAbsent
	}
	return *f.rich, nil
}

func (f *fakeExtractor) ReadFiles() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.files) == 0 {
		return nil, clip.ErrAbsent
	}
	return f.files, nil
}

func (f *fakeExtractor) SourceApp() string       { return "Notes" }
func (f *fakeExtractor) WriteText(string) error  { return nil }
func (f *fakeExtractor) WriteImage([]byte) error { return nil }
func (f *fakeExtractor) Close()                  {}

func (f *fakeExtractor) set(fn func(*fakeExtractor)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

type recorder struct {
	mu       sync.Mutex
	captured []clip.Content
	fail     map[clip.Kind]bool
}

func (r *recorder) Capture(_ context.Context, c clip.Content) (item.ClipItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[c.Kind] {
		return item.ClipItem{}, errors.New("disk full")
	}
	r.captured = append(r.captured, c)
	return item.ClipItem{ID: string(c.Kind)}, nil
}

func (r *recorder) kinds() []clip.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]clip.Kind, len(r.captured))
	for i, c := range r.captured {
		out[i] = c.Kind
	}
	return out
}

type publisher struct {
	mu  sync.Mutex
	ids []string
}

func (p *publisher) Changed(_ notify.Reason, id string) {
	p.mu.Lock()
	p.ids = append(p.ids, id)
	p.mu.Unlock()
}

func TestPerKindSlots(t *testing.T) {
	ext := &fakeExtractor{text: "hello", image: []byte{1, 2, 3}}
	rec := &recorder{}
	pub := &publisher{}
	m := New(ext, rec, pub, time.Second)
	ctx := context.Background()

	m.poll(ctx)
	assert.Equal(t, []clip.Kind{clip.KindText, clip.KindImage}, rec.kinds())
	assert.Equal(t, []string{"text", "image"}, pub.ids)
	assert.Equal(t, "Notes", rec.captured[0].Source)

	// Unchanged clipboard: nothing new.
	m.poll(ctx)
	assert.Len(t, rec.kinds(), 2)

	// Only text changes: only text is captured.
	ext.set(func(f *fakeExtractor) { f.text = "world" })
	m.poll(ctx)
	assert.Equal(t, []clip.Kind{clip.KindText, clip.KindImage, clip.KindText}, rec.kinds())
}

func TestSkipsBlankTextAndFailedReads(t *testing.T) {
	ext := &fakeExtractor{text: "   \n"}
	rec := &recorder{}
	m := New(ext, rec, nil, time.Second)
	m.poll(context.Background())
	assert.Empty(t, rec.kinds())
}

func TestRichAndFiles(t *testing.T) {
	html := "<b>x</b>"
	ext := &fakeExtractor{
		rich:  &clip.RichText{HTML: &html, Plain: "x"},
		files: []string{"/tmp/a", "/tmp/b"},
	}
	rec := &recorder{}
	m := New(ext, rec, nil, time.Second)
	m.poll(context.Background())
	assert.Equal(t, []clip.Kind{clip.KindRichText, clip.KindFiles}, rec.kinds())

	// Plain-only rich text is not a rich-text observation.
	ext.set(func(f *fakeExtractor) { f.rich = &clip.RichText{Plain: "y"} })
	m.poll(context.Background())
	assert.Len(t, rec.kinds(), 2)
}

func TestCaptureFailureDoesNotStopPolling(t *testing.T) {
	ext := &fakeExtractor{text: "a", image: []byte{9}}
	rec := &recorder{fail: map[clip.Kind]bool{clip.KindText: true}}
	pub := &publisher{}
	m := New(ext, rec, pub, time.Second)

	m.poll(context.Background())
	assert.Equal(t, []clip.Kind{clip.KindImage}, rec.kinds())
	assert.Equal(t, []string{"image"}, pub.ids)

	rec.mu.Lock()
	rec.fail = nil
	rec.mu.Unlock()
	ext.set(func(f *fakeExtractor) { f.text = "b" })
	m.poll(context.Background())
	assert.Equal(t, []clip.Kind{clip.KindImage, clip.KindText}, rec.kinds())
}

func TestFailedReadIsRetriedNextTick(t *testing.T) {
	ext := &fakeExtractor{text: "copied text", textErr: errors.New("clipboard busy")}
	rec := &recorder{}
	m := New(ext, rec, nil, time.Second)

	m.poll(context.Background())
	assert.Empty(t, rec.kinds())

	ext.set(func(f *fakeExtractor) { f.textErr = nil })
	m.poll(context.Background())
	m.poll(context.Background())
	require.Equal(t, []clip.Kind{clip.KindText}, rec.kinds())
	assert.Equal(t, "copied text", rec.captured[0].Text)

	ext.mu.Lock()
	reads := ext.reads
	ext.mu.Unlock()
	assert.Equal(t, 3, reads)
}

func TestRunStopsOnCancel(t *testing.T) {
	ext := &fakeExtractor{text: "loop"}
	rec := &recorder{}
	m := New(ext, rec, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.kinds()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.Len(t, rec.kinds(), 1)
}
