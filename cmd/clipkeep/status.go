package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/api"
	"go.klb.dev/clipkeep/internal/notify"
)

func newStatusCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "status",
		Short: "Show where the history lives and whether a daemon is serving it",
		Args:  cobra.NoArgs,
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, _ []string) error {
		st, err := s.Status(ctx, &api.StatusRequest{})
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if f := v.GetString("format"); f != formatTable {
			return encode(cmd.OutOrStdout(), f, struct {
				*api.StatusResponse
				Via string `json:"via"`
			}{st, s.via})
		}

		monitoring := "off"
		if st.Monitoring {
			monitoring = "on"
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 1, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(tw, "Connected via:\t%s\n", s.via)
		_, _ = fmt.Fprintf(tw, "Version:\t%s\n", st.Version)
		_, _ = fmt.Fprintf(tw, "Data dir:\t%s\n", st.DataDir)
		_, _ = fmt.Fprintf(tw, "Clips:\t%d\n", st.Items)
		_, _ = fmt.Fprintf(tw, "Clipboard:\t%s\n", st.Extractor)
		_, _ = fmt.Fprintf(tw, "Monitoring:\t%s\n", monitoring)
		_, _ = fmt.Fprintf(tw, "Watchers:\t%d\n", st.Subscribers)
		return tw.Flush()
	})
	addFormatFlag(cmd)
	return cmd
}

func newWatchCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "watch",
		Short: "Print history changes as they happen",
		Long: `Streams change events from the daemon until interrupted. Each line is
either "TIME REASON ID" or, with --json, one JSON object per event.`,
		Args: cobra.NoArgs,
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, _ []string) error {
		out := cmd.OutOrStdout()
		asJSON := v.GetBool("json")
		enc := json.NewEncoder(out)
		return s.Watch(ctx, func(ev notify.Event) error {
			if asJSON {
				return enc.Encode(ev)
			}
			_, err := fmt.Fprintf(out, "%s  %-8s  %s\n", ev.At.Local().Format(time.TimeOnly), ev.Reason, ev.ID)
			return err
		})
	})
	cmd.Flags().Bool("json", false, "print one JSON object per event")
	return cmd
}
