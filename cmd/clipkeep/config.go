package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/capture"
	"go.klb.dev/clipkeep/internal/logging"
	"go.klb.dev/clipkeep/internal/store"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPKEEP_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPKEEP_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipkeep")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipkeep/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "clipkeep"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPKEEP")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addStorageFlags adds the flags locating the history and the daemon socket.
func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", defaultDataDir(), "directory holding clipkeep.db, images/ and thumbnails/")
	cmd.Flags().String("socket", "", "daemon socket path (default $XDG_RUNTIME_DIR/clipkeep.sock)")
	cmd.Flags().String("display-server", "auto", "Linux clipboard backend order: auto|x11|wayland")
}

// addClientFlags adds the flags used by commands that talk to a daemon.
func addClientFlags(cmd *cobra.Command) {
	addStorageFlags(cmd)
	addConfigFlag(cmd)
	cmd.Flags().String("server", "", "remote daemon address host:port (default: local socket)")
	cmd.Flags().String("token", "", "API token of the remote daemon")
	cmd.Flags().String("log-level", "warn", "log level: debug|info|warn|error")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	logging.Resolve(interactive, v.GetString("log-format"), v.GetString("log-level"))
}

func defaultDataDir() string {
	return filepath.Join(xdg.DataHome, "clipkeep")
}

// openData creates the data directory layout and opens the store in it.
func openData(ctx context.Context, v *viper.Viper) (capture.Layout, *store.Store, error) {
	layout, err := capture.NewLayout(v.GetString("data-dir"))
	if err != nil {
		return capture.Layout{}, nil, fmt.Errorf("data dir: %w", err)
	}
	if err := layout.Ensure(); err != nil {
		return capture.Layout{}, nil, fmt.Errorf("data dir: %w", err)
	}
	st, err := store.Open(ctx, layout.DatabasePath())
	if err != nil {
		return capture.Layout{}, nil, err
	}
	return layout, st, nil
}
