//go:build linux

package clip

import (
	"log/slog"
	"os"
	"strings"

	"golang.design/x/clipboard"

	"go.klb.dev/clipkeep/internal/imaging"
	"go.klb.dev/clipkeep/internal/item"
)

type linuxExtractor struct {
	native bool
	utils  *utilities
}

// New returns the Linux extractor. Text and images go through
// golang.design/x/clipboard when an X11 display is reachable; HTML, file
// lists, and everything on Wayland go through xclip / wl-clipboard.
// clipboard.Init is called here rather than in init() so that CLI
// sub-commands that never touch the clipboard don't log warnings.
func New(opts Options) Extractor {
	wayland := os.Getenv("WAYLAND_DISPLAY") != ""
	e := &linuxExtractor{
		utils: newUtilities(opts.DisplayServer, wayland, nil),
	}
	if opts.DisplayServer != DisplayWayland {
		if err := clipboard.Init(); err != nil {
			slog.Debug("native clipboard unavailable, using utilities", "err", err)
		} else {
			e.native = true
		}
	}
	return e
}

func (e *linuxExtractor) Name() string {
	names := make([]string, 0, len(e.utils.order)+1)
	if e.native {
		names = append(names, "x11")
	}
	for _, u := range e.utils.order {
		names = append(names, u.name)
	}
	return "Linux clipboard (" + strings.Join(names, ", ") + ")"
}

func (e *linuxExtractor) ReadText() (string, error) {
	if e.native {
		if b := clipboard.Read(clipboard.FmtText); len(b) > 0 {
			return string(b), nil
		}
	}
	b, err := e.utils.Read("text/plain;charset=utf-8")
	if err != nil {
		b, err = e.utils.Read("text/plain")
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (e *linuxExtractor) ReadImage() (Image, error) {
	if e.native {
		if b := clipboard.Read(clipboard.FmtImage); len(b) > 0 {
			return Image{Data: b, Layout: imaging.LayoutEncoded}, nil
		}
	}
	b, err := e.utils.Read("image/png")
	if err != nil {
		return Image{}, err
	}
	return Image{Data: b, Layout: imaging.LayoutEncoded}, nil
}

func (e *linuxExtractor) ReadRichText() (RichText, error) {
	var r RichText
	if b, err := e.utils.Read("text/html"); err == nil {
		s := string(b)
		r.HTML = &s
	}
	if b, err := e.utils.Read("text/rtf"); err == nil {
		s := string(b)
		r.RTF = &s
	}
	if !r.Formatted() {
		return RichText{}, ErrAbsent
	}
	if text, err := e.ReadText(); err == nil {
		r.Plain = text
	}
	return r, nil
}

func (e *linuxExtractor) ReadFiles() ([]string, error) {
	if b, err := e.utils.Read("text/uri-list"); err == nil {
		if paths := ParseURIList(string(b)); len(paths) > 0 {
			return paths, nil
		}
	}
	text, err := e.ReadText()
	if err != nil {
		return nil, err
	}
	if paths := SinglePathFallback(text); len(paths) > 0 {
		return paths, nil
	}
	return nil, ErrAbsent
}

func (e *linuxExtractor) SourceApp() string { return item.UnknownSource }

func (e *linuxExtractor) WriteText(text string) error {
	if e.native {
		clipboard.Write(clipboard.FmtText, []byte(text))
		return nil
	}
	return e.utils.Write("text/plain;charset=utf-8", []byte(text))
}

func (e *linuxExtractor) WriteImage(png []byte) error {
	if e.native {
		clipboard.Write(clipboard.FmtImage, png)
		return nil
	}
	return e.utils.Write("image/png", png)
}

func (e *linuxExtractor) Close() {}
