//go:build windows

package clip

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unsafe"

	"golang.design/x/clipboard"
	"golang.org/x/sys/windows"

	"go.klb.dev/clipkeep/internal/imaging"
	"go.klb.dev/clipkeep/internal/item"
)

const cfHDROP = 15

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	shell32  = windows.NewLazySystemDLL("shell32.dll")

	procOpenClipboard              = user32.NewProc("OpenClipboard")
	procCloseClipboard             = user32.NewProc("CloseClipboard")
	procGetClipboardData           = user32.NewProc("GetClipboardData")
	procIsClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	procRegisterClipboardFormatW   = user32.NewProc("RegisterClipboardFormatW")
	procGetForegroundWindow        = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId   = user32.NewProc("GetWindowThreadProcessId")

	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
	procGlobalSize   = kernel32.NewProc("GlobalSize")

	procDragQueryFileW = shell32.NewProc("DragQueryFileW")
)

type windowsExtractor struct {
	native bool
	cfHTML uintptr
	cfRTF  uintptr
}

// New returns the Windows extractor.
// clipboard.Init is called here rather than in init() so that CLI
// sub-commands that never construct an Extractor don't log spurious warnings.
func New(_ Options) Extractor {
	e := &windowsExtractor{
		cfHTML: registerFormat("HTML Format"),
		cfRTF:  registerFormat("Rich Text Format"),
	}
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
	} else {
		e.native = true
	}
	return e
}

func registerFormat(name string) uintptr {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0
	}
	id, _, _ := procRegisterClipboardFormatW.Call(uintptr(unsafe.Pointer(p)))
	return id
}

func (e *windowsExtractor) Name() string { return "Windows Clipboard" }

// withClipboard opens the clipboard, retrying briefly while another process
// holds it.
func withClipboard(fn func() error) error {
	var opened bool
	for i := 0; i < 5; i++ {
		if r, _, _ := procOpenClipboard.Call(0); r != 0 {
			opened = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !opened {
		return fmt.Errorf("open clipboard: %w", ErrUnavailable)
	}
	defer procCloseClipboard.Call()
	return fn()
}

// globalBytes copies the contents of a clipboard HGLOBAL.
func globalBytes(h uintptr) ([]byte, error) {
	ptr, _, err := procGlobalLock.Call(h)
	if ptr == 0 {
		return nil, fmt.Errorf("GlobalLock: %w", err)
	}
	defer procGlobalUnlock.Call(h)
	size, _, _ := procGlobalSize.Call(h)
	if size == 0 {
		return nil, ErrAbsent
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
	out := make([]byte, size)
	copy(out, src)
	return out, nil
}

func (e *windowsExtractor) readFormat(format uintptr) ([]byte, error) {
	if format == 0 {
		return nil, ErrAbsent
	}
	if r, _, _ := procIsClipboardFormatAvailable.Call(format); r == 0 {
		return nil, ErrAbsent
	}
	var data []byte
	err := withClipboard(func() error {
		h, _, _ := procGetClipboardData.Call(format)
		if h == 0 {
			return ErrAbsent
		}
		var err error
		data, err = globalBytes(h)
		return err
	})
	if err != nil {
		return nil, err
	}
	// Registered text formats are NUL terminated inside a possibly larger block.
	if i := strings.IndexByte(string(data), 0); i >= 0 {
		data = data[:i]
	}
	if len(data) == 0 {
		return nil, ErrAbsent
	}
	return data, nil
}

func (e *windowsExtractor) ReadText() (string, error) {
	if !e.native {
		return "", ErrUnavailable
	}
	b := clipboard.Read(clipboard.FmtText)
	if len(b) == 0 {
		return "", ErrAbsent
	}
	return string(b), nil
}

// ReadImage returns the PNG golang.design/x/clipboard produces from the DIB;
// the library converts the BGRA pixel order itself.
func (e *windowsExtractor) ReadImage() (Image, error) {
	if !e.native {
		return Image{}, ErrUnavailable
	}
	b := clipboard.Read(clipboard.FmtImage)
	if len(b) == 0 {
		return Image{}, ErrAbsent
	}
	return Image{Data: b, Layout: imaging.LayoutEncoded}, nil
}

func (e *windowsExtractor) ReadRichText() (RichText, error) {
	var r RichText
	if b, err := e.readFormat(e.cfHTML); err == nil {
		s := HTMLFragment(string(b))
		r.HTML = &s
	}
	if b, err := e.readFormat(e.cfRTF); err == nil {
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

func (e *windowsExtractor) ReadFiles() ([]string, error) {
	if r, _, _ := procIsClipboardFormatAvailable.Call(cfHDROP); r == 0 {
		text, err := e.ReadText()
		if err != nil {
			return nil, err
		}
		if paths := SinglePathFallback(text); len(paths) > 0 {
			return paths, nil
		}
		return nil, ErrAbsent
	}
	var paths []string
	err := withClipboard(func() error {
		hdrop, _, _ := procGetClipboardData.Call(cfHDROP)
		if hdrop == 0 {
			return ErrAbsent
		}
		count, _, _ := procDragQueryFileW.Call(hdrop, 0xFFFFFFFF, 0, 0)
		for i := uintptr(0); i < count; i++ {
			n, _, _ := procDragQueryFileW.Call(hdrop, i, 0, 0)
			if n == 0 {
				continue
			}
			buf := make([]uint16, n+1)
			procDragQueryFileW.Call(hdrop, i, uintptr(unsafe.Pointer(&buf[0])), n+1)
			paths = append(paths, windows.UTF16ToString(buf))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrAbsent
	}
	return paths, nil
}

// SourceApp names the executable owning the foreground window.
func (e *windowsExtractor) SourceApp() string {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return item.UnknownSource
	}
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return item.UnknownSource
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return item.UnknownSource
	}
	defer windows.CloseHandle(h)
	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return item.UnknownSource
	}
	name := filepath.Base(windows.UTF16ToString(buf[:size]))
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func (e *windowsExtractor) WriteText(text string) error {
	if !e.native {
		return ErrUnavailable
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (e *windowsExtractor) WriteImage(png []byte) error {
	if !e.native {
		return ErrUnavailable
	}
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

func (e *windowsExtractor) Close() {}
