package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestThumbnailSize(t *testing.T) {
	cases := []struct {
		w, h, tw, th uint32
	}{
		{640, 480, 200, 150},
		{480, 640, 150, 200},
		{100, 100, 200, 200},
		{1000, 3, 200, 0},
		{300, 200, 200, 133},
		{21, 40, 104, 200},
		{40, 21, 200, 104},
		{53, 100, 105, 200},
	}
	for _, c := range cases {
		tw, th := ThumbnailSize(c.w, c.h)
		assert.Equal(t, c.tw, tw, "%dx%d", c.w, c.h)
		assert.Equal(t, c.th, th, "%dx%d", c.w, c.h)
	}
}

func TestNormalizeBGRA(t *testing.T) {
	// One blue pixel in BGRA order.
	raw := []byte{0xff, 0x00, 0x00, 0xff}
	n, err := Normalize(raw, 1, 1, LayoutBGRA)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n.Width)

	img, err := png.Decode(bytes.NewReader(n.PNG))
	require.NoError(t, err)
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestNormalizeRawSizeMismatch(t *testing.T) {
	_, err := Normalize(make([]byte, 7), 1, 2, LayoutRGBA)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNormalizeKeepsPNG(t *testing.T) {
	data, err := Encode(solid(4, 3, color.RGBA{R: 10, A: 255}))
	require.NoError(t, err)
	n, err := Normalize(data, 0, 0, LayoutEncoded)
	require.NoError(t, err)
	assert.Equal(t, data, n.PNG)
	assert.Equal(t, uint32(4), n.Width)
	assert.Equal(t, uint32(3), n.Height)
}

func TestNormalizeReencodesJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(8, 8, color.RGBA{G: 200, A: 255}), nil))
	n, err := Normalize(buf.Bytes(), 0, 0, LayoutEncoded)
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(n.PNG))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestNormalizeGarbage(t *testing.T) {
	_, err := Normalize([]byte("not an image"), 0, 0, LayoutEncoded)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestThumbnail(t *testing.T) {
	data, err := Encode(solid(640, 480, color.RGBA{B: 90, A: 255}))
	require.NoError(t, err)
	thumb, err := Thumbnail(data)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
}

func TestThumbnailDegenerateEdge(t *testing.T) {
	data, err := Encode(solid(1000, 3, color.RGBA{A: 255}))
	require.NoError(t, err)
	thumb, err := Thumbnail(data)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 1, cfg.Height)
}
