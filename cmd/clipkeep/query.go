package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/api"
	"go.klb.dev/clipkeep/internal/item"
)

// clientCmd builds a command that runs against a session.
func clientCmd(cmd *cobra.Command, run func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, args []string) error) *cobra.Command {
	v := viper.New()
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) }
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		setupLogging(v)
		if cmd.Flags().Lookup("format") != nil {
			if err := checkFormat(v.GetString("format")); err != nil {
				return err
			}
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := connect(ctx, v)
		if err != nil {
			return err
		}
		defer s.Close()
		return run(ctx, cmd, v, s, args)
	}
	addClientFlags(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent clips, pinned first",
		Args:    cobra.NoArgs,
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, _ []string) error {
		resp, err := s.ListRecent(ctx, &api.ListRequest{Limit: v.GetInt("limit"), Offset: v.GetInt("offset")})
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		return printItems(cmd.OutOrStdout(), v.GetString("format"), resp.Items)
	})
	cmd.Flags().IntP("limit", "n", 20, "maximum number of clips (0 = all)")
	cmd.Flags().Int("offset", 0, "skip this many clips")
	addFormatFlag(cmd)
	return cmd
}

func newSearchCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "search <query>",
		Short: "Search clips by text, tag or type",
		Long: `Searches the history. The query is matched case-insensitively against
previews and content, unless it starts with a prefix:

  tag:<name> or #<name>   clips carrying the tag
  type:<kind>             clips of one kind: plain|text, rich|html, image, file|files`,
		Args: cobra.MinimumNArgs(1),
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, args []string) error {
		resp, err := s.Search(ctx, &api.SearchRequest{Query: strings.Join(args, " "), Limit: v.GetInt("limit")})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		return printItems(cmd.OutOrStdout(), v.GetString("format"), resp.Items)
	})
	cmd.Flags().IntP("limit", "n", 50, "maximum number of clips (0 = all)")
	addFormatFlag(cmd)
	return cmd
}

func newTagsCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "tags [query]",
		Short: "List tags, or suggest tags matching query",
		Args:  cobra.MaximumNArgs(1),
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, args []string) error {
		req := &api.TagsRequest{}
		if len(args) == 1 {
			req.Query = args[0]
		}
		resp, err := s.ListTags(ctx, req)
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		if f := v.GetString("format"); f != formatTable {
			return encode(cmd.OutOrStdout(), f, resp.Tags)
		}
		for _, t := range resp.Tags {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	})
	addFormatFlag(cmd)
	return cmd
}

// resolveID expands a unique ID prefix, as printed by "list", to the full ID.
func resolveID(ctx context.Context, s api.API, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty clip id")
	}
	got, err := s.Get(ctx, &api.IDRequest{ID: ref})
	if err == nil {
		return got.Item.ID, nil
	}
	if !api.IsNotFound(err) {
		return "", err
	}
	resp, err := s.ListRecent(ctx, &api.ListRequest{})
	if err != nil {
		return "", err
	}
	var match []item.ClipItem
	for _, it := range resp.Items {
		if strings.HasPrefix(it.ID, ref) {
			match = append(match, it)
		}
	}
	switch len(match) {
	case 0:
		return "", fmt.Errorf("no clip with id %q", ref)
	case 1:
		return match[0].ID, nil
	}
	return "", fmt.Errorf("clip id %q is ambiguous (%d matches)", ref, len(match))
}
