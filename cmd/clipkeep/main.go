// clipkeep: local clipboard history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipkeep",
		Short: "Clipboard history that stays on your machine",
		Long: `clipkeep records everything you copy (text, rich text, images and
file lists) into a local SQLite history, deduplicated by content.

Run "clipkeep daemon" to watch the clipboard. The other commands query and
manage the history through the daemon's local socket, or open the history
directly when no daemon is running.

Config file search order (first found wins):
  /etc/clipkeep/clipkeep.toml
  $HOME/.config/clipkeep/clipkeep.toml
  path supplied via --config

All flags can be set via CLIPKEEP_<FLAG> env vars or config-file keys.
See "clipkeep daemon --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newListCmd(),
		newSearchCmd(),
		newTagsCmd(),
		newTagCmd(),
		newPinCmd(true),
		newPinCmd(false),
		newDeleteCmd(),
		newCleanupCmd(),
		newImageCmd(),
		newCaptureCmd(),
		newCopyCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipkeep %s\n", Version)
		},
	}
}
