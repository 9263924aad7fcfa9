// Package item defines the clipkeep data model.
//
// A ClipItem is one captured clipboard snapshot. Its ID is the content
// fingerprint, so identical content always resolves to the same record.
// Kind-specific details live in Metadata as JSON so the storage row keeps a
// single shape for every content type.
package item

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ContentType identifies the kind of content a ClipItem holds.
type ContentType string

const (
	TypePlain ContentType = "plain"
	TypeRich  ContentType = "rich"
	TypeImage ContentType = "image"
	TypeFile  ContentType = "file"
)

// UnknownSource is recorded when the originating application cannot be
// determined.
const UnknownSource = "Unknown"

// ParseContentType maps a user-facing kind name to a ContentType. Common
// aliases ("text", "html", "files") are accepted. ok is false for anything
// unrecognised.
func ParseContentType(s string) (ContentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "text":
		return TypePlain, true
	case "rich", "html", "rtf":
		return TypeRich, true
	case "image", "img", "png":
		return TypeImage, true
	case "file", "files":
		return TypeFile, true
	default:
		return "", false
	}
}

// Valid reports whether t is one of the four known content types.
func (t ContentType) Valid() bool {
	switch t {
	case TypePlain, TypeRich, TypeImage, TypeFile:
		return true
	}
	return false
}

// ClipItem is one persisted clipboard snapshot.
type ClipItem struct {
	ID          string          `json:"id"`
	ContentType ContentType     `json:"content_type"`
	Content     string          `json:"content"`
	PreviewText string          `json:"preview_text"`
	Tags        []string        `json:"tags"`
	SourceApp   string          `json:"source_app"`
	CreatedAt   time.Time       `json:"created_at"`
	LastUsedAt  time.Time       `json:"last_used_at"`
	Pinned      bool            `json:"pinned"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// ImageMetadata is stored with Image items.
type ImageMetadata struct {
	Width         uint32 `json:"width"`
	Height        uint32 `json:"height"`
	Format        string `json:"format"`
	SizeBytes     int    `json:"size_bytes"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
}

// FileMetadata is stored with File items.
type FileMetadata struct {
	FilePaths      []string `json:"file_paths"`
	TotalSizeBytes int64    `json:"total_size_bytes"`
}

// RichTextMetadata is stored with Rich items.
type RichTextMetadata struct {
	HasHTML     bool   `json:"has_html"`
	HasRTF      bool   `json:"has_rtf"`
	HTMLPreview string `json:"html_preview,omitempty"`
}

// RichContent is the JSON envelope stored as Content for Rich items.
// HTML and RTF are null when the clipboard did not offer them.
type RichContent struct {
	HTML  *string `json:"html"`
	RTF   *string `json:"rtf"`
	Plain string  `json:"plain"`
}

// Image decodes the item's metadata as ImageMetadata.
func (c ClipItem) Image() (ImageMetadata, error) {
	var m ImageMetadata
	if c.ContentType != TypeImage {
		return m, fmt.Errorf("item %s is %s, not image", c.ID, c.ContentType)
	}
	if len(c.Metadata) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(c.Metadata, &m); err != nil {
		return m, fmt.Errorf("image metadata: %w", err)
	}
	return m, nil
}

// Files decodes the File item's Content as a list of paths.
func (c ClipItem) Files() ([]string, error) {
	if c.ContentType != TypeFile {
		return nil, fmt.Errorf("item %s is %s, not file", c.ID, c.ContentType)
	}
	var paths []string
	if err := json.Unmarshal([]byte(c.Content), &paths); err != nil {
		return nil, fmt.Errorf("file list: %w", err)
	}
	return paths, nil
}

// Rich decodes the Rich item's Content envelope.
func (c ClipItem) Rich() (RichContent, error) {
	var rc RichContent
	if c.ContentType != TypeRich {
		return rc, fmt.Errorf("item %s is %s, not rich", c.ID, c.ContentType)
	}
	if err := json.Unmarshal([]byte(c.Content), &rc); err != nil {
		return rc, fmt.Errorf("rich content: %w", err)
	}
	return rc, nil
}

// Artifacts returns the on-disk files owned by an Image item: the saved image
// and, when recorded, its thumbnail. Other kinds own no files.
func (c ClipItem) Artifacts() []string {
	if c.ContentType != TypeImage {
		return nil
	}
	var out []string
	if c.Content != "" {
		out = append(out, c.Content)
	}
	if m, err := c.Image(); err == nil && m.ThumbnailPath != "" {
		out = append(out, m.ThumbnailPath)
	}
	return out
}

// MarshalMetadata encodes v for the Metadata field.
func MarshalMetadata(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return b, nil
}
