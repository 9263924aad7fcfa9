package api

import (
	"context"

	"go.klb.dev/clipkeep/internal/item"
	"go.klb.dev/clipkeep/internal/notify"
)

// API is the command surface. *Service implements it in-process and
// *Client implements it over gRPC.
type API interface {
	CaptureText(context.Context, *CaptureTextRequest) (*ItemResponse, error)
	CaptureImage(context.Context, *CaptureImageRequest) (*ItemResponse, error)
	CaptureRichText(context.Context, *CaptureRichTextRequest) (*ItemResponse, error)
	CaptureFiles(context.Context, *CaptureFilesRequest) (*ItemResponse, error)

	ListRecent(context.Context, *ListRequest) (*ItemsResponse, error)
	Search(context.Context, *SearchRequest) (*ItemsResponse, error)
	Get(context.Context, *IDRequest) (*ItemResponse, error)
	ListTags(context.Context, *TagsRequest) (*TagsResponse, error)

	SetTags(context.Context, *SetTagsRequest) (*ItemResponse, error)
	SetPinned(context.Context, *SetPinnedRequest) (*ItemResponse, error)
	Delete(context.Context, *IDRequest) (*Empty, error)

	ImageBytes(context.Context, *IDRequest) (*BytesResponse, error)
	ThumbnailBytes(context.Context, *IDRequest) (*BytesResponse, error)

	Cleanup(context.Context, *CleanupRequest) (*CleanupResponse, error)

	WriteClipboardText(context.Context, *WriteTextRequest) (*Empty, error)
	WriteClipboardImage(context.Context, *WriteImageRequest) (*Empty, error)

	// Watch calls fn for every store change until ctx is done or fn fails.
	Watch(ctx context.Context, fn func(notify.Event) error) error

	Status(context.Context, *StatusRequest) (*StatusResponse, error)
}

type Empty struct{}

type CaptureTextRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// CaptureImageRequest carries encoded image bytes, or a raw pixel buffer
// when Layout is "rgba" or "bgra".
type CaptureImageRequest struct {
	Data   []byte `json:"data"`
	Width  uint32 `json:"width,omitempty"`
	Height uint32 `json:"height,omitempty"`
	Layout string `json:"layout,omitempty"`
	Source string `json:"source,omitempty"`
}

type CaptureRichTextRequest struct {
	HTML   *string `json:"html"`
	RTF    *string `json:"rtf"`
	Plain  string  `json:"plain"`
	Source string  `json:"source,omitempty"`
}

type CaptureFilesRequest struct {
	Paths  []string `json:"paths"`
	Source string   `json:"source,omitempty"`
}

type ItemResponse struct {
	Item item.ClipItem `json:"item"`
}

type ListRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type ItemsResponse struct {
	Items []item.ClipItem `json:"items"`
}

type IDRequest struct {
	ID string `json:"id"`
}

// TagsRequest lists every tag when Query is empty, otherwise at most
// store.MaxTagSuggestions matching ones.
type TagsRequest struct {
	Query string `json:"query,omitempty"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

type SetTagsRequest struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
}

type SetPinnedRequest struct {
	ID     string `json:"id"`
	Pinned bool   `json:"pinned"`
}

type BytesResponse struct {
	Data []byte `json:"data"`
}

type CleanupResponse struct {
	Removed int `json:"removed"`
}

type WriteTextRequest struct {
	Text string `json:"text"`
}

type WriteImageRequest struct {
	Data []byte `json:"data"`
}

type WatchRequest struct{}

type StatusRequest struct{}

type StatusResponse struct {
	Version     string `json:"version"`
	DataDir     string `json:"data_dir"`
	Items       int    `json:"items"`
	Extractor   string `json:"extractor"`
	Monitoring  bool   `json:"monitoring"`
	Subscribers int    `json:"subscribers"`
}
