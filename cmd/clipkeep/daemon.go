package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipkeep/internal/api"
	"go.klb.dev/clipkeep/internal/capture"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/janitor"
	"go.klb.dev/clipkeep/internal/monitor"
	"go.klb.dev/clipkeep/internal/notify"
	"go.klb.dev/clipkeep/internal/tlsconf"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Watch the clipboard and serve the history",
		Long: `Starts the clipkeep daemon. It polls the system clipboard, records every
new text, rich text, image and file list, applies automatic cleanup, and
serves the history over gRPC and HTTP on the local socket (and optionally
on a TCP address).

Config file search order:
  /etc/clipkeep/clipkeep.toml
  $HOME/.config/clipkeep/clipkeep.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPKEEP_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	f := cmd.Flags()
	f.Duration("poll-interval", monitor.DefaultInterval, "clipboard polling period")
	f.Bool("no-monitor", false, "do not watch the clipboard (serve the history only)")
	f.String("listen", "", "additional TCP listen address, e.g. 127.0.0.1:8753 (empty = local socket only)")
	f.String("token", "", "API token for the TCP listener; also enables TLS")
	f.Int("max-history", janitor.DefaultMaxItems, "keep at most this many un-pinned items (0 = unlimited)")
	f.Int("auto-cleanup-days", janitor.DefaultMaxAgeDays, "delete un-pinned items older than this many days (0 = never)")
	f.Duration("cleanup-interval", janitor.DefaultInterval, "how often automatic cleanup runs")
	addStorageFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(v *viper.Viper) error {
	setupLogging(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	layout, st, err := openData(ctx, v)
	if err != nil {
		return err
	}
	defer st.Close()

	ext := clip.New(clip.Options{DisplayServer: clip.ParseDisplayServer(v.GetString("display-server"))})
	defer ext.Close()

	monitoring := !v.GetBool("no-monitor")
	broker := notify.New()
	mgr := capture.New(st, layout)
	svc := api.New(mgr, broker, ext, api.WithVersion(Version), api.WithMonitoring(monitoring))

	slog.Info("clipkeep daemon starting",
		"version", Version,
		"data_dir", layout.Root,
		"extractor", ext.Name(),
		"monitor", monitoring,
	)

	g, ctx := errgroup.WithContext(ctx)

	if monitoring {
		mon := monitor.New(ext, mgr, broker, v.GetDuration("poll-interval"))
		g.Go(func() error { return mon.Run(ctx) })
	}

	jan := janitor.New(mgr, broker, janitor.Config{
		Interval:   v.GetDuration("cleanup-interval"),
		MaxAgeDays: v.GetInt("auto-cleanup-days"),
		MaxItems:   v.GetInt("max-history"),
	})
	g.Go(func() error { return jan.Run(ctx) })

	// Anything failing from here on must stop the goroutines already started.
	fail := func(err error) error {
		stop()
		_ = g.Wait()
		return err
	}

	sock := ipc.Path(v.GetString("socket"))
	ipcLn, err := ipc.Listen(sock)
	if err != nil {
		return fail(err)
	}
	slog.Info("IPC socket listening", "path", sock)
	if err := serve(ctx, g, ipcLn, svc, ""); err != nil {
		return fail(err)
	}

	if addr := v.GetString("listen"); addr != "" {
		token := v.GetString("token")
		ln, err := listenTCP(addr, token)
		if err != nil {
			return fail(err)
		}
		if err := serve(ctx, g, ln, svc, token); err != nil {
			return fail(err)
		}
	}

	err = g.Wait()
	slog.Info("clipkeep daemon stopped")
	return err
}

// listenTCP opens the optional TCP listener, wrapped in token-derived TLS
// when a token is configured.
func listenTCP(addr, token string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if token == "" {
		slog.Warn("TCP listener has no token: unauthenticated and unencrypted", "addr", ln.Addr())
		return ln, nil
	}
	pair, err := tlsconf.Derive(token)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	slog.Info("TCP listener", "addr", ln.Addr(), "tls", true)
	return tls.NewListener(ln, pair.Server), nil
}
