package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.klb.dev/clipkeep/internal/api"
	"go.klb.dev/clipkeep/internal/capture"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/notify"
	"go.klb.dev/clipkeep/internal/tlsconf"
)

// session is a connected command surface plus its cleanup.
type session struct {
	api.API
	via   string
	close func()
}

func (s *session) Close() { s.close() }

// connect returns the command surface for a CLI command, in order of
// preference: the remote daemon named by --server, the local daemon on the
// IPC socket, or the history opened in-process.
func connect(ctx context.Context, v *viper.Viper) (*session, error) {
	if addr := v.GetString("server"); addr != "" {
		return dialServer(addr, v.GetString("token"))
	}

	path := ipc.Path(v.GetString("socket"))
	if ipc.IsRunning(path) {
		cc, err := dialIPC(path)
		if err == nil {
			slog.Debug("using daemon", "socket", path)
			return &session{API: api.NewClient(cc), via: "ipc (" + path + ")", close: func() { _ = cc.Close() }}, nil
		}
		slog.Warn("daemon socket unusable, opening history directly", "err", err)
	}

	layout, st, err := openData(ctx, v)
	if err != nil {
		return nil, err
	}
	ext := clip.New(clip.Options{DisplayServer: clip.ParseDisplayServer(v.GetString("display-server"))})
	svc := api.New(capture.New(st, layout), notify.New(), ext, api.WithVersion(Version))
	return &session{
		API: svc,
		via: "local (" + layout.Root + ")",
		close: func() {
			ext.Close()
			_ = st.Close()
		},
	}, nil
}

// dialIPC returns a *grpc.ClientConn over the local IPC socket.
// No auth needed: the socket is local and owner-restricted by the OS.
func dialIPC(path string) (*grpc.ClientConn, error) {
	return grpc.NewClient("passthrough:///clipkeep",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ipc.Dial(ctx, path)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
}

// dialServer connects to a daemon's TCP listener. With a token the
// connection uses the token-derived TLS and bearer auth.
func dialServer(addr, token string) (*session, error) {
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if token != "" {
		pair, err := tlsconf.Derive(token)
		if err != nil {
			return nil, fmt.Errorf("tls credentials: %w", err)
		}
		opts = []grpc.DialOption{
			grpc.WithTransportCredentials(pair.Credentials()),
			grpc.WithPerRPCCredentials(api.Credentials{Token: token}),
		}
	}
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &session{API: api.NewClient(cc), via: "tcp (" + addr + ")", close: func() { _ = cc.Close() }}, nil
}
