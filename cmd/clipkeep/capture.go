package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/api"
	"go.klb.dev/clipkeep/internal/item"
)

func newCaptureCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "capture [path...]",
		Short: "Add content to the history without touching the clipboard",
		Long: `Reads stdin and records it as a clip, exactly as if it had been copied.

  --kind text    (default) stdin is plain text
  --kind html    stdin is HTML; --plain supplies the plain-text version
  --kind rtf     stdin is RTF; --plain supplies the plain-text version
  --kind image   stdin is an encoded image (PNG, JPEG, GIF, BMP, WebP)
  --kind files   the arguments are file paths; stdin is not read`,
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, args []string) error {
		it, err := captureInput(ctx, s, v, cmd.InOrStdin(), args)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		return printItem(cmd.OutOrStdout(), v.GetString("format"), it)
	})
	f := cmd.Flags()
	f.StringP("kind", "k", "text", "content kind: text|html|rtf|image|files")
	f.String("plain", "", "plain-text version of html/rtf input")
	f.String("source", "clipkeep", "source application recorded with the clip")
	addFormatFlag(cmd)
	return cmd
}

func captureInput(ctx context.Context, s api.API, v *viper.Viper, stdin io.Reader, args []string) (item.ClipItem, error) {
	source := v.GetString("source")
	kind := v.GetString("kind")

	if kind == "files" {
		paths := make([]string, 0, len(args))
		for _, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return item.ClipItem{}, err
			}
			paths = append(paths, abs)
		}
		resp, err := s.CaptureFiles(ctx, &api.CaptureFilesRequest{Paths: paths, Source: source})
		if err != nil {
			return item.ClipItem{}, err
		}
		return resp.Item, nil
	}
	if len(args) > 0 {
		return item.ClipItem{}, errors.New("paths are only accepted with --kind files")
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return item.ClipItem{}, fmt.Errorf("read stdin: %w", err)
	}

	var resp *api.ItemResponse
	switch kind {
	case "text":
		resp, err = s.CaptureText(ctx, &api.CaptureTextRequest{Text: string(data), Source: source})
	case "html", "rtf":
		body := string(data)
		req := &api.CaptureRichTextRequest{Plain: v.GetString("plain"), Source: source}
		if kind == "html" {
			req.HTML = &body
		} else {
			req.RTF = &body
		}
		resp, err = s.CaptureRichText(ctx, req)
	case "image":
		resp, err = s.CaptureImage(ctx, &api.CaptureImageRequest{Data: data, Source: source})
	default:
		return item.ClipItem{}, fmt.Errorf("unknown kind %q", kind)
	}
	if err != nil {
		return item.ClipItem{}, err
	}
	return resp.Item, nil
}

func newCopyCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "copy [id]",
		Short: "Put stdin or a history clip on the system clipboard",
		Long: `With an id, puts that clip back on the system clipboard: text for text
and rich text clips, the PNG for image clips, the paths one per line for
file clips. Without one, copies stdin (text, or an image with --image),
like pbcopy.`,
		Args: cobra.MaximumNArgs(1),
	}, func(ctx context.Context, cmd *cobra.Command, v *viper.Viper, s *session, args []string) error {
		if len(args) == 1 {
			return copyClip(ctx, s, args[0])
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if len(data) == 0 {
			return nil
		}
		if v.GetBool("image") {
			_, err = s.WriteClipboardImage(ctx, &api.WriteImageRequest{Data: data})
		} else {
			_, err = s.WriteClipboardText(ctx, &api.WriteTextRequest{Text: string(data)})
		}
		if err != nil {
			return fmt.Errorf("copy: %w", err)
		}
		return nil
	})
	cmd.Flags().Bool("image", false, "stdin is an image")
	return cmd
}

func copyClip(ctx context.Context, s api.API, ref string) error {
	id, err := resolveID(ctx, s, ref)
	if err != nil {
		return err
	}
	got, err := s.Get(ctx, &api.IDRequest{ID: id})
	if err != nil {
		return err
	}
	it := got.Item

	switch it.ContentType {
	case item.TypeImage:
		img, err := s.ImageBytes(ctx, &api.IDRequest{ID: id})
		if err != nil {
			return err
		}
		_, err = s.WriteClipboardImage(ctx, &api.WriteImageRequest{Data: img.Data})
		return err
	case item.TypeRich:
		rc, err := it.Rich()
		if err != nil {
			return err
		}
		_, err = s.WriteClipboardText(ctx, &api.WriteTextRequest{Text: rc.Plain})
		return err
	case item.TypeFile:
		paths, err := it.Files()
		if err != nil {
			return err
		}
		_, err = s.WriteClipboardText(ctx, &api.WriteTextRequest{Text: strings.Join(paths, "\n")})
		return err
	}
	_, err = s.WriteClipboardText(ctx, &api.WriteTextRequest{Text: it.Content})
	return err
}
