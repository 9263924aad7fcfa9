package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/api"
)

func newTagCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "tag <id> [tag...]",
		Short: "Set the tags of a clip",
		Long: `Replaces the tags of a clip with the given list. With --add the tags are
appended instead. "clipkeep tag <id>" with no tags clears them.`,
		Args: cobra.MinimumNArgs(1),
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, args []string) error {
		id, err := resolveID(ctx, s, args[0])
		if err != nil {
			return err
		}
		tags := args[1:]
		if v.GetBool("add") {
			cur, err := s.Get(ctx, &api.IDRequest{ID: id})
			if err != nil {
				return err
			}
			tags = append(cur.Item.Tags, tags...)
		}
		resp, err := s.SetTags(ctx, &api.SetTagsRequest{ID: id, Tags: tags})
		if err != nil {
			return fmt.Errorf("tag: %w", err)
		}
		return printItem(cmd.OutOrStdout(), v.GetString("format"), resp.Item)
	})
	cmd.Flags().Bool("add", false, "append to the existing tags")
	addFormatFlag(cmd)
	return cmd
}

func newPinCmd(pin bool) *cobra.Command {
	use, short := "pin <id>", "Pin a clip: it sorts first and is never cleaned up"
	if !pin {
		use, short = "unpin <id>", "Unpin a clip"
	}
	return clientCmd(&cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
	}, func(ctx context.Context, _ *cobra.Command, _ *viper.Viper, s *session, args []string) error {
		id, err := resolveID(ctx, s, args[0])
		if err != nil {
			return err
		}
		if _, err := s.SetPinned(ctx, &api.SetPinnedRequest{ID: id, Pinned: pin}); err != nil {
			return fmt.Errorf("pin: %w", err)
		}
		return nil
	})
}

func newDeleteCmd() *cobra.Command {
	return clientCmd(&cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete clips and their image files",
		Args:    cobra.MinimumNArgs(1),
	}, func(ctx context.Context, _ *cobra.Command, _ *viper.Viper, s *session, args []string) error {
		var errs []error
		for _, ref := range args {
			id, err := resolveID(ctx, s, ref)
			if err == nil {
				_, err = s.Delete(ctx, &api.IDRequest{ID: id})
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", ref, err))
			}
		}
		return errors.Join(errs...)
	})
}

func newCleanupCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "cleanup",
		Short: "Delete un-pinned clips by age or date",
		Long: `Deletes un-pinned clips. Exactly one selection is required:

  --older-than N          created more than N days ago
  --before DATE           created before DATE
  --from DATE --to DATE   created on or after --from, up to and including --to

DATE is YYYY-MM-DD (UTC) or an RFC 3339 timestamp.`,
		Args: cobra.NoArgs,
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, _ []string) error {
		req, err := cleanupRequest(v)
		if err != nil {
			return err
		}
		resp, err := s.Cleanup(ctx, req)
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d clip(s).\n", resp.Removed)
		return nil
	})
	f := cmd.Flags()
	f.Int("older-than", 0, "delete clips older than this many days")
	f.String("before", "", "delete clips created before this date")
	f.String("from", "", "start of the date range")
	f.String("to", "", "end of the date range (inclusive)")
	return cmd
}

func cleanupRequest(v *viper.Viper) (*api.CleanupRequest, error) {
	var reqs []*api.CleanupRequest
	if days := v.GetInt("older-than"); days != 0 {
		reqs = append(reqs, &api.CleanupRequest{Mode: api.ModeOlderThan, OlderThanDays: days})
	}
	if before := v.GetString("before"); before != "" {
		reqs = append(reqs, &api.CleanupRequest{Mode: api.ModeBefore, BeforeDate: before})
	}
	if from, to := v.GetString("from"), v.GetString("to"); from != "" || to != "" {
		reqs = append(reqs, &api.CleanupRequest{Mode: api.ModeRange, StartDate: from, EndDate: to})
	}
	if len(reqs) != 1 {
		return nil, errors.New("cleanup: give exactly one of --older-than, --before or --from/--to")
	}
	return reqs[0], nil
}
