package clip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURIList(t *testing.T) {
	list := "# copied by nautilus\r\n" +
		"file:///home/ana/My%20Docs/report.pdf\r\n" +
		"https://example.com/not-a-file\r\n" +
		"file://localhost/tmp/a.txt\n" +
		"\n" +
		"file://remote-host/etc/passwd\n"
	assert.Equal(t, []string{"/home/ana/My Docs/report.pdf", "/tmp/a.txt"}, ParseURIList(list))
	assert.Empty(t, ParseURIList("# only a comment\n"))
}

func TestFileURIToPathBadEscape(t *testing.T) {
	p, ok := FileURIToPath("file:///tmp/100%zz")
	require.True(t, ok)
	assert.Equal(t, "/tmp/100%zz", p)
}

func TestSinglePathFallback(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	assert.Equal(t, []string{f}, SinglePathFallback("  "+f+"\n"))
	assert.Equal(t, []string{f}, SinglePathFallback("file://"+f))
	assert.Nil(t, SinglePathFallback(filepath.Join(dir, "missing.txt")))
	assert.Nil(t, SinglePathFallback("note.txt"))
	assert.Nil(t, SinglePathFallback(f+"\n"+f))
	assert.Nil(t, SinglePathFallback(""))
}

func TestHTMLFragmentComments(t *testing.T) {
	cf := "Version:0.9\r\nStartHTML:00000097\r\nEndHTML:00000170\r\n" +
		"StartFragment:00000131\r\nEndFragment:00000134\r\n" +
		"<html><body><!--StartFragment--><b>hi</b><!--EndFragment--></body></html>"
	assert.Equal(t, "<b>hi</b>", HTMLFragment(cf))
}

func TestHTMLFragmentOffsets(t *testing.T) {
	header := "Version:0.9\r\nStartFragment:%08d\r\nEndFragment:%08d\r\n"
	body := "<html><b>bold</b></html>"
	// Header length is fixed because the offsets are zero padded.
	hl := len("Version:0.9\r\nStartFragment:00000000\r\nEndFragment:00000000\r\n")
	start := hl + len("<html>")
	end := start + len("<b>bold</b>")
	cf := fmt.Sprintf(header, start, end) + body
	assert.Equal(t, "<b>bold</b>", HTMLFragment(cf))
}

func TestHTMLFragmentPassthrough(t *testing.T) {
	assert.Equal(t, "<p>plain html</p>", HTMLFragment("<p>plain html</p>"))
}

func TestRichTextFlags(t *testing.T) {
	html := "<i>x</i>"
	assert.True(t, RichText{}.Empty())
	assert.False(t, RichText{Plain: "x"}.Formatted())
	assert.True(t, RichText{HTML: &html}.Formatted())
}

func TestParseDisplayServer(t *testing.T) {
	assert.Equal(t, DisplayX11, ParseDisplayServer("x11"))
	assert.Equal(t, DisplayWayland, ParseDisplayServer("wayland"))
	assert.Equal(t, DisplayAuto, ParseDisplayServer("mir"))
}

type fakeRunner struct {
	calls   []string
	outputs map[string][]byte
	missing map[string]bool
}

func (f *fakeRunner) run(_ context.Context, stdin []byte, name string, _ ...string) ([]byte, error) {
	f.calls = append(f.calls, name)
	if f.missing[name] {
		return nil, &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	if stdin != nil {
		return nil, nil
	}
	if out, ok := f.outputs[name]; ok {
		return out, nil
	}
	return nil, errors.New("exit status 1")
}

func TestUtilitiesOrder(t *testing.T) {
	f := &fakeRunner{outputs: map[string][]byte{"wl-paste": []byte("from wayland"), "xclip": []byte("from x11")}}

	u := newUtilities(DisplayAuto, true, f.run)
	out, err := u.Read("text/plain")
	require.NoError(t, err)
	assert.Equal(t, "from wayland", string(out))

	u = newUtilities(DisplayAuto, false, f.run)
	out, err = u.Read("text/plain")
	require.NoError(t, err)
	assert.Equal(t, "from x11", string(out))

	u = newUtilities(DisplayWayland, false, f.run)
	out, err = u.Read("text/plain")
	require.NoError(t, err)
	assert.Equal(t, "from wayland", string(out))
}

func TestUtilitiesFallsThrough(t *testing.T) {
	f := &fakeRunner{outputs: map[string][]byte{"wl-paste": []byte("ok")}}
	u := newUtilities(DisplayX11, false, f.run)
	out, err := u.Read("text/uri-list")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))
	assert.Equal(t, []string{"xclip", "wl-paste"}, f.calls)
}

func TestUtilitiesErrors(t *testing.T) {
	none := &fakeRunner{missing: map[string]bool{"xclip": true, "wl-paste": true, "wl-copy": true}}
	u := newUtilities(DisplayAuto, false, none.run)
	_, err := u.Read("text/plain")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, u.Write("text/plain", []byte("x")), ErrUnavailable)

	empty := &fakeRunner{}
	u = newUtilities(DisplayAuto, false, empty.run)
	_, err = u.Read("text/html")
	assert.ErrorIs(t, err, ErrAbsent)
	assert.NoError(t, u.Write("text/plain", []byte("x")))
}

func TestHeadless(t *testing.T) {
	h := Headless()
	_, err := h.ReadText()
	assert.ErrorIs(t, err, ErrAbsent)
	_, err = h.ReadFiles()
	assert.ErrorIs(t, err, ErrAbsent)
	assert.ErrorIs(t, h.WriteText("x"), ErrUnavailable)
	assert.Equal(t, "Unknown", h.SourceApp())
}
