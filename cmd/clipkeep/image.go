package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/api"
	"go.klb.dev/clipkeep/internal/logging"
)

func newImageCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "image <id>",
		Short: "Write the PNG of an image clip to a file or stdout",
		Args:  cobra.ExactArgs(1),
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, args []string) error {
		id, err := resolveID(ctx, s, args[0])
		if err != nil {
			return err
		}
		var resp *api.BytesResponse
		if v.GetBool("thumbnail") {
			resp, err = s.ThumbnailBytes(ctx, &api.IDRequest{ID: id})
		} else {
			resp, err = s.ImageBytes(ctx, &api.IDRequest{ID: id})
		}
		if err != nil {
			return fmt.Errorf("image: %w", err)
		}

		out := v.GetString("output")
		if out == "" || out == "-" {
			if logging.IsTTY(os.Stdout) {
				return errors.New("image: refusing to write PNG data to a terminal; use --output")
			}
			_, err = cmd.OutOrStdout().Write(resp.Data)
			return err
		}
		if err := os.WriteFile(out, resp.Data, 0o644); err != nil {
			return fmt.Errorf("image: %w", err)
		}
		return nil
	})
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	cmd.Flags().Bool("thumbnail", false, "write the thumbnail instead of the full image")
	return cmd
}
