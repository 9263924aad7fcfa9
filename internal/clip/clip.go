// Package clip reads and writes the system clipboard across platforms and
// normalizes what it finds into a small content model. Build constraints
// select the implementation:
//
//	clip_darwin.go   macOS via golang.design/x/clipboard + NSPasteboard (cgo)
//	clip_windows.go  Windows via golang.design/x/clipboard + user32/shell32
//	clip_linux.go    Linux via golang.design/x/clipboard, xclip and wl-paste
//	clip_other.go    everything else, headless
package clip

import (
	"errors"

	"go.klb.dev/clipkeep/internal/imaging"
)

var (
	// ErrAbsent means the clipboard holds no data of the requested kind.
	ErrAbsent = errors.New("clipboard: no data of this kind")
	// ErrUnavailable means no clipboard is reachable (headless session, no
	// display server, missing utilities).
	ErrUnavailable = errors.New("clipboard: unavailable")
)

// Kind is a clipboard content channel.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindRichText Kind = "rich_text"
	KindFiles    Kind = "files"
)

// Image is image data as handed over by the OS clipboard. Width and Height
// are required for raw layouts and may be zero for encoded data.
type Image struct {
	Data   []byte
	Width  uint32
	Height uint32
	Layout imaging.Layout
}

// RichText is the formatted representations of a copy. HTML and RTF are nil
// when the clipboard did not offer them.
type RichText struct {
	HTML  *string
	RTF   *string
	Plain string
}

// Empty reports whether neither a formatted representation nor plain text is
// present.
func (r RichText) Empty() bool {
	return r.HTML == nil && r.RTF == nil && r.Plain == ""
}

// Formatted reports whether at least one formatted representation is present.
func (r RichText) Formatted() bool { return r.HTML != nil || r.RTF != nil }

// Content is one observed clipboard value, tagged by Kind.
type Content struct {
	Kind   Kind
	Text   string
	Image  Image
	Rich   RichText
	Files  []string
	Source string
}

// Extractor is the platform clipboard adapter. Read methods return ErrAbsent
// when the kind is not on the clipboard; any other error is an extraction
// failure that callers may treat the same way.
type Extractor interface {
	// Name returns a human-readable name for the implementation.
	Name() string

	ReadText() (string, error)
	ReadImage() (Image, error)
	ReadRichText() (RichText, error)
	ReadFiles() ([]string, error)

	// SourceApp names the application that currently owns the clipboard,
	// best effort. Returns item.UnknownSource when it cannot tell.
	SourceApp() string

	WriteText(text string) error
	// WriteImage puts PNG bytes on the clipboard.
	WriteImage(png []byte) error

	// Close releases any resources held by the extractor.
	Close()
}

// DisplayServer selects which Linux clipboard utilities are tried first.
type DisplayServer string

const (
	DisplayAuto    DisplayServer = "auto"
	DisplayX11     DisplayServer = "x11"
	DisplayWayland DisplayServer = "wayland"
)

// ParseDisplayServer returns DisplayAuto for unknown values.
func ParseDisplayServer(s string) DisplayServer {
	switch DisplayServer(s) {
	case DisplayX11, DisplayWayland:
		return DisplayServer(s)
	default:
		return DisplayAuto
	}
}

// Options configures New.
type Options struct {
	DisplayServer DisplayServer
}
