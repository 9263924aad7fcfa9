package clip

import "go.klb.dev/clipkeep/internal/item"

// headless is the extractor for sessions without a clipboard (servers,
// containers, CI). Reads report absence and writes fail.
type headless struct{}

// Headless returns an extractor that never observes content.
func Headless() Extractor { return headless{} }

func (headless) Name() string                    { return "headless (no-op)" }
func (headless) ReadText() (string, error)       { return "", ErrAbsent }
func (headless) ReadImage() (Image, error)       { return Image{}, ErrAbsent }
func (headless) ReadRichText() (RichText, error) { return RichText{}, ErrAbsent }
func (headless) ReadFiles() ([]string, error)    { return nil, ErrAbsent }
func (headless) SourceApp() string               { return item.UnknownSource }
func (headless) WriteText(string) error          { return ErrUnavailable }
func (headless) WriteImage([]byte) error         { return ErrUnavailable }
func (headless) Close()                          {}
