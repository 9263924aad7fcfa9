// Package imaging normalizes clipboard images to PNG and builds thumbnails.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Layout describes how image bytes handed over by a clipboard are arranged.
type Layout string

const (
	// LayoutEncoded is any encoded format the standard or x/image decoders
	// understand (png, jpeg, gif, bmp, webp).
	LayoutEncoded Layout = "encoded"
	// LayoutRGBA is raw 8-bit RGBA, row-major, no padding.
	LayoutRGBA Layout = "rgba"
	// LayoutBGRA is raw 8-bit BGRA as delivered by Windows DIBs.
	LayoutBGRA Layout = "bgra"
)

// ThumbnailEdge is the length of a thumbnail's longer edge.
const ThumbnailEdge = 200

// ErrInvalid is returned for image data that cannot be decoded.
var ErrInvalid = errors.New("invalid image data")

// Normalized is a PNG-encoded image plus its dimensions.
type Normalized struct {
	PNG    []byte
	Width  uint32
	Height uint32
}

// Normalize converts clipboard image data into PNG bytes. Raw buffers must be
// exactly width*height*4 bytes. PNG input is kept byte for byte; other
// encodings are decoded and re-encoded.
func Normalize(data []byte, width, height uint32, layout Layout) (Normalized, error) {
	switch layout {
	case LayoutRGBA, LayoutBGRA:
		img, err := fromRaw(data, width, height, layout == LayoutBGRA)
		if err != nil {
			return Normalized{}, err
		}
		out, err := Encode(img)
		if err != nil {
			return Normalized{}, err
		}
		return Normalized{PNG: out, Width: width, Height: height}, nil
	default:
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return Normalized{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if format == "png" {
			if _, err := png.Decode(bytes.NewReader(data)); err != nil {
				return Normalized{}, fmt.Errorf("%w: %v", ErrInvalid, err)
			}
			return Normalized{PNG: data, Width: uint32(cfg.Width), Height: uint32(cfg.Height)}, nil
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return Normalized{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		out, err := Encode(img)
		if err != nil {
			return Normalized{}, err
		}
		b := img.Bounds()
		return Normalized{PNG: out, Width: uint32(b.Dx()), Height: uint32(b.Dy())}, nil
	}
}

func fromRaw(data []byte, width, height uint32, bgra bool) (*image.RGBA, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: zero dimension %dx%d", ErrInvalid, width, height)
	}
	want := int(width) * int(height) * 4
	if len(data) != want {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d, want %d", ErrInvalid, len(data), width, height, want)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	copy(img.Pix, data)
	if bgra {
		SwapRB(img.Pix)
	}
	return img, nil
}

// SwapRB swaps the first and third byte of every 4-byte pixel in place,
// converting BGRA to RGBA and back.
func SwapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// Encode writes img as PNG.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ThumbnailSize returns the thumbnail dimensions for a width x height image:
// the longer edge becomes ThumbnailEdge and the other is scaled to keep the
// aspect ratio (truncated toward zero).
// The ratio is rounded to float32 before scaling; 21x40 gives 104x200.
func ThumbnailSize(width, height uint32) (uint32, uint32) {
	if width > height {
		r := float32(height) / float32(width)
		return ThumbnailEdge, uint32(float32(ThumbnailEdge) * r)
	}
	r := float32(width) / float32(height)
	return uint32(float32(ThumbnailEdge) * r), ThumbnailEdge
}

// Thumbnail decodes a PNG and returns a resized PNG sized per ThumbnailSize.
func Thumbnail(pngData []byte) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalid)
	}
	w, h := ThumbnailSize(uint32(b.Dx()), uint32(b.Dy()))
	dst := image.NewRGBA(image.Rect(0, 0, max(int(w), 1), max(int(h), 1)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return Encode(dst)
}
