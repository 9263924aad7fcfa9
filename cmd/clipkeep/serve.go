package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"go.klb.dev/clipkeep/internal/api"
)

const shutdownTimeout = 5 * time.Second

// serve splits ln with cmux into gRPC (HTTP/2 with application/grpc) and
// everything else (the HTTP/JSON routes) and serves both in g until ctx is
// done.
func serve(ctx context.Context, g *errgroup.Group, ln net.Listener, svc api.API, token string) error {
	mux, err := api.NewHTTPMux(svc, token)
	if err != nil {
		_ = ln.Close()
		return err
	}
	grpcSrv := api.NewServer(svc, token)
	httpSrv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	addr := ln.Addr().String()
	g.Go(func() error { return quiet(grpcSrv.Serve(grpcL)) })
	g.Go(func() error { return quiet(httpSrv.Serve(httpL)) })
	g.Go(func() error { return quiet(m.Serve()) })
	g.Go(func() error {
		<-ctx.Done()
		slog.Debug("listener shutting down", "addr", addr)
		grpcSrv.Stop()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			_ = httpSrv.Close()
		}
		_ = ln.Close()
		return nil
	})
	return nil
}

// quiet turns the errors servers return on orderly shutdown into nil.
func quiet(err error) error {
	switch {
	case err == nil,
		errors.Is(err, net.ErrClosed),
		errors.Is(err, http.ErrServerClosed),
		errors.Is(err, grpc.ErrServerStopped),
		errors.Is(err, cmux.ErrListenerClosed):
		return nil
	}
	return err
}
