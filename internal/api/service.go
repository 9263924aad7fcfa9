// Package api is the clipboard history command surface: an in-process
// Service, its gRPC binding (JSON codec, hand-written service descriptor),
// HTTP/JSON routes and a gRPC client.
package api

import (
	"context"
	"fmt"
	"strings"

	"go.klb.dev/clipkeep/internal/capture"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/imaging"
	"go.klb.dev/clipkeep/internal/notify"
	"go.klb.dev/clipkeep/internal/store"
)

// Service implements API on top of a capture manager. Every successful
// mutation publishes a change event.
type Service struct {
	mgr        *capture.Manager
	broker     *notify.Broker
	ext        clip.Extractor
	version    string
	monitoring bool
}

// Option configures a Service.
type Option func(*Service)

// WithVersion sets the version reported by Status.
func WithVersion(v string) Option { return func(s *Service) { s.version = v } }

// WithMonitoring records whether a clipboard monitor is running.
func WithMonitoring(on bool) Option { return func(s *Service) { s.monitoring = on } }

// New returns a Service. ext may be nil, in which case clipboard writes
// fail with clip.ErrUnavailable.
func New(mgr *capture.Manager, broker *notify.Broker, ext clip.Extractor, opts ...Option) *Service {
	s := &Service{mgr: mgr, broker: broker, ext: ext, version: "dev"}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ API = (*Service)(nil)

func (s *Service) store() *store.Store { return s.mgr.Store() }

func (s *Service) captured(resp *ItemResponse, err error) (*ItemResponse, error) {
	if err != nil {
		return nil, err
	}
	s.broker.Changed(notify.ReasonCaptured, resp.Item.ID)
	return resp, nil
}

func (s *Service) CaptureText(ctx context.Context, req *CaptureTextRequest) (*ItemResponse, error) {
	it, err := s.mgr.CaptureText(ctx, req.Text, req.Source)
	return s.captured(&ItemResponse{Item: it}, err)
}

func (s *Service) CaptureImage(ctx context.Context, req *CaptureImageRequest) (*ItemResponse, error) {
	layout, err := parseLayout(req.Layout)
	if err != nil {
		return nil, err
	}
	img := clip.Image{Data: req.Data, Width: req.Width, Height: req.Height, Layout: layout}
	it, err := s.mgr.CaptureImage(ctx, img, req.Source)
	return s.captured(&ItemResponse{Item: it}, err)
}

func (s *Service) CaptureRichText(ctx context.Context, req *CaptureRichTextRequest) (*ItemResponse, error) {
	rt := clip.RichText{HTML: req.HTML, RTF: req.RTF, Plain: req.Plain}
	it, err := s.mgr.CaptureRichText(ctx, rt, req.Source)
	return s.captured(&ItemResponse{Item: it}, err)
}

func (s *Service) CaptureFiles(ctx context.Context, req *CaptureFilesRequest) (*ItemResponse, error) {
	it, err := s.mgr.CaptureFiles(ctx, req.Paths, req.Source)
	return s.captured(&ItemResponse{Item: it}, err)
}

func (s *Service) ListRecent(ctx context.Context, req *ListRequest) (*ItemsResponse, error) {
	items, err := s.store().List(ctx, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}
	return &ItemsResponse{Items: items}, nil
}

func (s *Service) Search(ctx context.Context, req *SearchRequest) (*ItemsResponse, error) {
	items, err := s.store().Search(ctx, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}
	return &ItemsResponse{Items: items}, nil
}

func (s *Service) Get(ctx context.Context, req *IDRequest) (*ItemResponse, error) {
	it, err := s.store().Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &ItemResponse{Item: it}, nil
}

func (s *Service) ListTags(ctx context.Context, req *TagsRequest) (*TagsResponse, error) {
	var (
		tags []string
		err  error
	)
	if strings.TrimSpace(req.Query) == "" {
		tags, err = s.store().AllTags(ctx)
	} else {
		tags, err = s.store().SearchTags(ctx, req.Query)
	}
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return &TagsResponse{Tags: tags}, nil
}

func (s *Service) SetTags(ctx context.Context, req *SetTagsRequest) (*ItemResponse, error) {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	if err := s.store().SetTags(ctx, req.ID, tags); err != nil {
		return nil, err
	}
	return s.updated(ctx, req.ID)
}

func (s *Service) SetPinned(ctx context.Context, req *SetPinnedRequest) (*ItemResponse, error) {
	if err := s.store().SetPinned(ctx, req.ID, req.Pinned); err != nil {
		return nil, err
	}
	return s.updated(ctx, req.ID)
}

func (s *Service) updated(ctx context.Context, id string) (*ItemResponse, error) {
	s.broker.Changed(notify.ReasonUpdated, id)
	it, err := s.store().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ItemResponse{Item: it}, nil
}

func (s *Service) Delete(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.mgr.Delete(ctx, req.ID); err != nil {
		return nil, err
	}
	s.broker.Changed(notify.ReasonDeleted, req.ID)
	return &Empty{}, nil
}

func (s *Service) ImageBytes(ctx context.Context, req *IDRequest) (*BytesResponse, error) {
	b, err := s.mgr.ImageBytes(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &BytesResponse{Data: b}, nil
}

func (s *Service) ThumbnailBytes(ctx context.Context, req *IDRequest) (*BytesResponse, error) {
	b, err := s.mgr.ThumbnailBytes(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &BytesResponse{Data: b}, nil
}

// Cleanup validates req completely before deleting anything.
func (s *Service) Cleanup(ctx context.Context, req *CleanupRequest) (*CleanupResponse, error) {
	p, err := req.plan()
	if err != nil {
		return nil, err
	}
	var n int
	switch p.mode {
	case ModeOlderThan:
		n, err = s.mgr.PurgeOlderThan(ctx, p.days)
	case ModeBefore:
		n, err = s.mgr.PurgeBefore(ctx, p.end)
	case ModeRange:
		n, err = s.mgr.PurgeBetween(ctx, p.start, p.end)
	}
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.broker.Changed(notify.ReasonCleanup, "")
	}
	return &CleanupResponse{Removed: n}, nil
}

func (s *Service) WriteClipboardText(_ context.Context, req *WriteTextRequest) (*Empty, error) {
	if s.ext == nil {
		return nil, clip.ErrUnavailable
	}
	if req.Text == "" {
		return nil, capture.ErrEmptyContent
	}
	if err := s.ext.WriteText(req.Text); err != nil {
		return nil, fmt.Errorf("write clipboard: %w", err)
	}
	return &Empty{}, nil
}

// WriteClipboardImage accepts any decodable image and puts it on the
// clipboard as PNG.
func (s *Service) WriteClipboardImage(_ context.Context, req *WriteImageRequest) (*Empty, error) {
	if s.ext == nil {
		return nil, clip.ErrUnavailable
	}
	n, err := imaging.Normalize(req.Data, 0, 0, imaging.LayoutEncoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrInvalidImage, err)
	}
	if err := s.ext.WriteImage(n.PNG); err != nil {
		return nil, fmt.Errorf("write clipboard: %w", err)
	}
	return &Empty{}, nil
}

func (s *Service) Watch(ctx context.Context, fn func(notify.Event) error) error {
	_, events, cancel := s.broker.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := fn(ev); err != nil {
				return err
			}
		}
	}
}

func (s *Service) Status(ctx context.Context, _ *StatusRequest) (*StatusResponse, error) {
	n, err := s.store().Count(ctx)
	if err != nil {
		return nil, err
	}
	name := "none"
	if s.ext != nil {
		name = s.ext.Name()
	}
	return &StatusResponse{
		Version:     s.version,
		DataDir:     s.mgr.Layout().Root,
		Items:       n,
		Extractor:   name,
		Monitoring:  s.monitoring,
		Subscribers: s.broker.Subscribers(),
	}, nil
}

func parseLayout(s string) (imaging.Layout, error) {
	switch strings.ToLower(s) {
	case "", "png", "encoded":
		return imaging.LayoutEncoded, nil
	case "rgba":
		return imaging.LayoutRGBA, nil
	case "bgra":
		return imaging.LayoutBGRA, nil
	}
	return "", fmt.Errorf("%w: unknown layout %q", capture.ErrInvalidImage, s)
}
