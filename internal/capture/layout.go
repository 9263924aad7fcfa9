package capture

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout is the on-disk arrangement of a data directory:
//
//	<root>/clipkeep.db
//	<root>/images/<id>.png
//	<root>/thumbnails/<id>_thumb.png
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at the absolute form of root.
func NewLayout(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("data dir: %w", err)
	}
	return Layout{Root: abs}, nil
}

// Ensure creates the root and artifact directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Root, l.ImagesDir(), l.ThumbnailsDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (l Layout) DatabasePath() string  { return filepath.Join(l.Root, "clipkeep.db") }
func (l Layout) ImagesDir() string     { return filepath.Join(l.Root, "images") }
func (l Layout) ThumbnailsDir() string { return filepath.Join(l.Root, "thumbnails") }

// ImagePath is where the PNG for fingerprint id is stored.
func (l Layout) ImagePath(id string) string {
	return filepath.Join(l.ImagesDir(), id+".png")
}

// ThumbnailPath is where the thumbnail for fingerprint id is stored.
func (l Layout) ThumbnailPath(id string) string {
	return filepath.Join(l.ThumbnailsDir(), id+"_thumb.png")
}
