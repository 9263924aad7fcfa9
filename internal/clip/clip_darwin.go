//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
// #include <string.h>
//
// static char* clipkeep_read_type(const char* uti) {
//     @autoreleasepool {
//         NSPasteboard *pb = [NSPasteboard generalPasteboard];
//         NSData *data = [pb dataForType:[NSString stringWithUTF8String:uti]];
//         if (data == nil || [data length] == 0) {
//             return NULL;
//         }
//         NSString *s = [[NSString alloc] initWithData:data encoding:NSUTF8StringEncoding];
//         if (s == nil) {
//             s = [[NSString alloc] initWithData:data encoding:NSMacOSRomanStringEncoding];
//         }
//         if (s == nil) {
//             return NULL;
//         }
//         return strdup([s UTF8String]);
//     }
// }
//
// static char* clipkeep_file_paths() {
//     @autoreleasepool {
//         NSPasteboard *pb = [NSPasteboard generalPasteboard];
//         NSDictionary *opts = @{NSPasteboardURLReadingFileURLsOnlyKey: @YES};
//         NSArray *urls = [pb readObjectsForClasses:@[[NSURL class]] options:opts];
//         if (urls == nil || [urls count] == 0) {
//             return NULL;
//         }
//         NSMutableArray *paths = [NSMutableArray arrayWithCapacity:[urls count]];
//         for (NSURL *u in urls) {
//             if ([u isFileURL] && [u path] != nil) {
//                 [paths addObject:[u path]];
//             }
//         }
//         if ([paths count] == 0) {
//             return NULL;
//         }
//         return strdup([[paths componentsJoinedByString:@"\n"] UTF8String]);
//     }
// }
//
// static char* clipkeep_frontmost_app() {
//     @autoreleasepool {
//         NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
//         if (app == nil || [app localizedName] == nil) {
//             return NULL;
//         }
//         return strdup([[app localizedName] UTF8String]);
//     }
// }
import "C"

import (
	"log/slog"
	"strings"
	"unsafe"

	"golang.design/x/clipboard"

	"go.klb.dev/clipkeep/internal/imaging"
	"go.klb.dev/clipkeep/internal/item"
)

const (
	utiHTML = "public.html"
	utiRTF  = "public.rtf"
)

type darwinExtractor struct {
	native bool
}

// New returns the macOS extractor.
// clipboard.Init is called here rather than in init() so that CLI
// sub-commands that never construct an Extractor don't log spurious warnings.
func New(_ Options) Extractor {
	e := &darwinExtractor{}
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
	} else {
		e.native = true
	}
	return e
}

func (e *darwinExtractor) Name() string { return "macOS NSPasteboard" }

func takeCString(p *C.char) (string, bool) {
	if p == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p), true
}

func readType(uti string) (string, bool) {
	cs := C.CString(uti)
	defer C.free(unsafe.Pointer(cs))
	return takeCString(C.clipkeep_read_type(cs))
}

func (e *darwinExtractor) ReadText() (string, error) {
	if !e.native {
		return "", ErrUnavailable
	}
	b := clipboard.Read(clipboard.FmtText)
	if len(b) == 0 {
		return "", ErrAbsent
	}
	return string(b), nil
}

func (e *darwinExtractor) ReadImage() (Image, error) {
	if !e.native {
		return Image{}, ErrUnavailable
	}
	b := clipboard.Read(clipboard.FmtImage)
	if len(b) == 0 {
		return Image{}, ErrAbsent
	}
	return Image{Data: b, Layout: imaging.LayoutEncoded}, nil
}

func (e *darwinExtractor) ReadRichText() (RichText, error) {
	var r RichText
	if s, ok := readType(utiHTML); ok {
		r.HTML = &s
	}
	if s, ok := readType(utiRTF); ok {
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

func (e *darwinExtractor) ReadFiles() ([]string, error) {
	if joined, ok := takeCString(C.clipkeep_file_paths()); ok {
		return strings.Split(joined, "\n"), nil
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

func (e *darwinExtractor) SourceApp() string {
	if name, ok := takeCString(C.clipkeep_frontmost_app()); ok && name != "" {
		return name
	}
	return item.UnknownSource
}

func (e *darwinExtractor) WriteText(text string) error {
	if !e.native {
		return ErrUnavailable
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (e *darwinExtractor) WriteImage(png []byte) error {
	if !e.native {
		return ErrUnavailable
	}
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

func (e *darwinExtractor) Close() {}
