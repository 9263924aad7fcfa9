package item

import (
	"fmt"
	"path/filepath"
)

const (
	// PreviewLimit is the number of characters kept for text previews.
	PreviewLimit = 200
	// HTMLPreviewLimit is the number of characters kept in rich-text metadata.
	HTMLPreviewLimit = 100
)

// Truncate returns s unchanged when it has at most n characters, otherwise
// its first n characters followed by "...".
func Truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}

// TextPreview is the preview for Plain and Rich items.
func TextPreview(s string) string { return Truncate(s, PreviewLimit) }

// ImagePreview renders "[Image] WxHpx (X.X KB)".
func ImagePreview(width, height uint32, sizeBytes int) string {
	return fmt.Sprintf("[Image] %dx%dpx (%.1f KB)", width, height, float64(sizeBytes)/1024)
}

// FilePreview renders "[File] name" for a single path and
// "[Files] N items (X.X MB)" for several.
func FilePreview(paths []string, totalBytes int64) string {
	if len(paths) == 1 {
		return "[File] " + filepath.Base(paths[0])
	}
	return fmt.Sprintf("[Files] %d items (%.1f MB)", len(paths), float64(totalBytes)/(1024*1024))
}
