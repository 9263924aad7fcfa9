package api

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipkeep/internal/notify"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "clipkeep.v1.ClipService"

// method builds the descriptor of one unary RPC.
func method[Req, Resp any](name string, call func(API, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			handler := func(ctx context.Context, r any) (any, error) {
				resp, err := call(srv.(API), ctx, r.(*Req))
				if err != nil {
					return nil, toStatus(err)
				}
				return resp, nil
			}
			if interceptor == nil {
				return handler(ctx, req)
			}
			return interceptor(ctx, req, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*API)(nil),
	Methods: []grpc.MethodDesc{
		method("CaptureText", API.CaptureText),
		method("CaptureImage", API.CaptureImage),
		method("CaptureRichText", API.CaptureRichText),
		method("CaptureFiles", API.CaptureFiles),
		method("ListRecent", API.ListRecent),
		method("Search", API.Search),
		method("Get", API.Get),
		method("ListTags", API.ListTags),
		method("SetTags", API.SetTags),
		method("SetPinned", API.SetPinned),
		method("Delete", API.Delete),
		method("ImageBytes", API.ImageBytes),
		method("ThumbnailBytes", API.ThumbnailBytes),
		method("Cleanup", API.Cleanup),
		method("WriteClipboardText", API.WriteClipboardText),
		method("WriteClipboardImage", API.WriteClipboardImage),
		method("Status", API.Status),
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "clipkeep/v1/clip.proto",
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	var req WatchRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	slog.Debug("watch started")
	err := srv.(API).Watch(stream.Context(), func(ev notify.Event) error {
		return stream.SendMsg(&ev)
	})
	slog.Debug("watch ended", "err", err)
	return toStatus(err)
}

// NewServer returns a gRPC server exposing svc. When token is non-empty
// every call must carry "authorization: Bearer <token>".
func NewServer(svc API, token string, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ForceServerCodec(Codec()))
	if token != "" {
		a := authenticator(token)
		opts = append(opts,
			grpc.ChainUnaryInterceptor(a.unary),
			grpc.ChainStreamInterceptor(a.stream),
		)
	}
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&serviceDesc, svc)
	return srv
}

type authenticator string

func (a authenticator) unary(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if err := a.check(ctx); err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

func (a authenticator) stream(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if err := a.check(ss.Context()); err != nil {
		return err
	}
	return handler(srv, ss)
}

// check validates the bearer token in ctx metadata.
func (a authenticator) check(ctx context.Context) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing authorization header")
	}
	if !a.valid(vals[0]) {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	return nil
}

// valid reports whether header is "Bearer <token>" with the expected token.
func (a authenticator) valid(header string) bool {
	tok, ok := strings.CutPrefix(header, "Bearer ")
	return ok && tok == string(a)
}
