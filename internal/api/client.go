package api

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipkeep/internal/notify"
)

// Client implements API against a remote ClipService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc. The JSON codec is forced per call, so cc needs no
// codec options of its own.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

var _ API = (*Client)(nil)

func invoke[Resp any](ctx context.Context, c *Client, name string, req any) (*Resp, error) {
	resp := new(Resp)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+name, req, resp, grpc.ForceCodec(Codec())); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CaptureText(ctx context.Context, req *CaptureTextRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "CaptureText", req)
}

func (c *Client) CaptureImage(ctx context.Context, req *CaptureImageRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "CaptureImage", req)
}

func (c *Client) CaptureRichText(ctx context.Context, req *CaptureRichTextRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "CaptureRichText", req)
}

func (c *Client) CaptureFiles(ctx context.Context, req *CaptureFilesRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "CaptureFiles", req)
}

func (c *Client) ListRecent(ctx context.Context, req *ListRequest) (*ItemsResponse, error) {
	return invoke[ItemsResponse](ctx, c, "ListRecent", req)
}

func (c *Client) Search(ctx context.Context, req *SearchRequest) (*ItemsResponse, error) {
	return invoke[ItemsResponse](ctx, c, "Search", req)
}

func (c *Client) Get(ctx context.Context, req *IDRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "Get", req)
}

func (c *Client) ListTags(ctx context.Context, req *TagsRequest) (*TagsResponse, error) {
	return invoke[TagsResponse](ctx, c, "ListTags", req)
}

func (c *Client) SetTags(ctx context.Context, req *SetTagsRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "SetTags", req)
}

func (c *Client) SetPinned(ctx context.Context, req *SetPinnedRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "SetPinned", req)
}

func (c *Client) Delete(ctx context.Context, req *IDRequest) (*Empty, error) {
	return invoke[Empty](ctx, c, "Delete", req)
}

func (c *Client) ImageBytes(ctx context.Context, req *IDRequest) (*BytesResponse, error) {
	return invoke[BytesResponse](ctx, c, "ImageBytes", req)
}

func (c *Client) ThumbnailBytes(ctx context.Context, req *IDRequest) (*BytesResponse, error) {
	return invoke[BytesResponse](ctx, c, "ThumbnailBytes", req)
}

func (c *Client) Cleanup(ctx context.Context, req *CleanupRequest) (*CleanupResponse, error) {
	return invoke[CleanupResponse](ctx, c, "Cleanup", req)
}

func (c *Client) WriteClipboardText(ctx context.Context, req *WriteTextRequest) (*Empty, error) {
	return invoke[Empty](ctx, c, "WriteClipboardText", req)
}

func (c *Client) WriteClipboardImage(ctx context.Context, req *WriteImageRequest) (*Empty, error) {
	return invoke[Empty](ctx, c, "WriteClipboardImage", req)
}

func (c *Client) Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c, "Status", req)
}

// Watch streams change events until ctx is cancelled, the server ends the
// stream, or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(notify.Event) error) error {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], "/"+ServiceName+"/Watch", grpc.ForceCodec(Codec()))
	if err != nil {
		return err
	}
	// io.EOF here means the server already ended the stream; RecvMsg
	// reports the real status.
	if err := stream.SendMsg(&WatchRequest{}); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		var ev notify.Event
		if err := stream.RecvMsg(&ev); err != nil {
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

// Credentials attaches a bearer token to every call.
type Credentials struct {
	Token string
}

func (c Credentials) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	if c.Token == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + c.Token}, nil
}

func (Credentials) RequireTransportSecurity() bool { return false }
