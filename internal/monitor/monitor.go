// Package monitor polls the system clipboard and hands new content to the
// capture manager.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/fingerprint"
	"go.klb.dev/clipkeep/internal/item"
	"go.klb.dev/clipkeep/internal/notify"
)

// DefaultInterval is the polling period.
const DefaultInterval = 500 * time.Millisecond

// Capturer persists observed content.
type Capturer interface {
	Capture(ctx context.Context, c clip.Content) (item.ClipItem, error)
}

// Publisher is told about every successful capture.
type Publisher interface {
	Changed(reason notify.Reason, id string)
}

// Monitor is the single clipboard polling loop. Each content kind has its
// own fingerprint slot, so an image and a text copied together are both
// captured and re-copying unchanged content is ignored.
type Monitor struct {
	ext      clip.Extractor
	capturer Capturer
	pub      Publisher
	interval time.Duration

	// Owned by the Run goroutine.
	last map[clip.Kind]string
}

// New returns a Monitor. pub may be nil; interval <= 0 uses DefaultInterval.
func New(ext clip.Extractor, capturer Capturer, pub Publisher, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		ext:      ext,
		capturer: capturer,
		pub:      pub,
		interval: interval,
		last:     make(map[clip.Kind]string),
	}
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("clipboard monitor started", "extractor", m.ext.Name(), "interval", m.interval)
	t := time.NewTicker(m.interval)
	defer t.Stop()

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("clipboard monitor stopped")
			return nil
		case <-t.C:
			m.poll(ctx)
		}
	}
}

// observation is one channel's read for a tick.
type observation struct {
	kind    clip.Kind
	digest  string
	content clip.Content
}

func (m *Monitor) poll(ctx context.Context) {
	source := ""
	for _, read := range []func() (observation, bool){m.readText, m.readImage, m.readRichText, m.readFiles} {
		if ctx.Err() != nil {
			return
		}
		obs, ok := read()
		if !ok || m.last[obs.kind] == obs.digest {
			continue
		}
		m.last[obs.kind] = obs.digest

		if source == "" {
			source = m.ext.SourceApp()
		}
		obs.content.Source = source
		it, err := m.capturer.Capture(ctx, obs.content)
		if err != nil {
			slog.Error("clipboard capture failed", "kind", obs.kind, "err", err)
			continue
		}
		slog.Debug("clipboard change captured", "kind", obs.kind, "id", it.ID)
		if m.pub != nil {
			m.pub.Changed(notify.ReasonCaptured, it.ID)
		}
	}
}

func readFailed(kind clip.Kind, err error) bool {
	if err != nil && !errors.Is(err, clip.ErrAbsent) {
		slog.Debug("clipboard read failed", "kind", kind, "err", err)
	}
	return err != nil
}

func (m *Monitor) readText() (observation, bool) {
	text, err := m.ext.ReadText()
	if readFailed(clip.KindText, err) || strings.TrimSpace(text) == "" {
		return observation{}, false
	}
	return observation{
		kind:    clip.KindText,
		digest:  fingerprint.String(text),
		content: clip.Content{Kind: clip.KindText, Text: text},
	}, true
}

func (m *Monitor) readImage() (observation, bool) {
	img, err := m.ext.ReadImage()
	if readFailed(clip.KindImage, err) || len(img.Data) == 0 {
		return observation{}, false
	}
	return observation{
		kind:    clip.KindImage,
		digest:  fingerprint.Bytes(img.Data),
		content: clip.Content{Kind: clip.KindImage, Image: img},
	}, true
}

func (m *Monitor) readRichText() (observation, bool) {
	rt, err := m.ext.ReadRichText()
	if readFailed(clip.KindRichText, err) || !rt.Formatted() {
		return observation{}, false
	}
	return observation{
		kind:    clip.KindRichText,
		digest:  fingerprint.Rich(rt.HTML, rt.RTF, rt.Plain),
		content: clip.Content{Kind: clip.KindRichText, Rich: rt},
	}, true
}

func (m *Monitor) readFiles() (observation, bool) {
	paths, err := m.ext.ReadFiles()
	if readFailed(clip.KindFiles, err) || len(paths) == 0 {
		return observation{}, false
	}
	return observation{
		kind:    clip.KindFiles,
		digest:  fingerprint.Paths(paths),
		content: clip.Content{Kind: clip.KindFiles, Files: paths},
	}, true
}
