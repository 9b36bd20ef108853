package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// GeneratePortrait creates a synthetic upload image: a solid "person"
// rectangle centered on a contrasting background, roughly the shape the
// matting model is asked to separate.
func GeneratePortrait(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.NRGBA{R: 30, G: 90, B: 160, A: 255}}, image.Point{}, draw.Src)

	subject := image.Rect(width/4, height/8, 3*width/4, 7*height/8)
	draw.Draw(img, subject, &image.Uniform{color.NRGBA{R: 220, G: 180, B: 150, A: 255}}, image.Point{}, draw.Src)
	return img
}

// GenerateCutout creates a canvas-independent cutout: an opaque subject
// surrounded by fully transparent pixels.
func GenerateCutout(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	subject := image.Rect(width/4, height/8, 3*width/4, 7*height/8)
	draw.Draw(img, subject, &image.Uniform{color.NRGBA{R: 200, G: 160, B: 140, A: 255}}, image.Point{}, draw.Src)
	return img
}

// GenerateFrame creates a frame overlay of the given size: a solid
// border with a fully transparent interior window.
func GenerateFrame(width, height, border int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)

	window := image.Rect(border, border, width-border, height-border)
	draw.Draw(img, window, &image.Uniform{color.NRGBA{}}, image.Point{}, draw.Src)
	return img
}

// WriteFrameSet writes numbered frame PNGs (frame_1.png .. frame_n.png)
// of the given canvas size into dir and returns dir.
func WriteFrameSet(t *testing.T, dir string, n, width, height int) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	for i := 1; i <= n; i++ {
		c := color.NRGBA{R: uint8(40 * i), G: 80, B: 120, A: 255}
		WritePNG(t, filepath.Join(dir, fmt.Sprintf("frame_%d.png", i)), GenerateFrame(width, height, 24, c))
	}
	return dir
}

// WritePNG encodes img to path, failing the test on error.
func WritePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	require.NoError(t, png.Encode(f, img))
}

// EncodePNG returns img as PNG bytes, failing the test on error.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
