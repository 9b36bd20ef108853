package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidCutout(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func TestFitToCanvas_SquareCutout(t *testing.T) {
	// A 1024x1024 square is height-limited inside 1536x1024: it keeps its
	// size and gets 256px margins left and right.
	cutout := solidCutout(1024, 1024, color.NRGBA{R: 200, A: 255})
	fitted, p, err := FitToCanvas(cutout, DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)

	assert.Equal(t, 1024, p.Width)
	assert.Equal(t, 1024, p.Height)
	assert.Equal(t, 256, p.OffsetX)
	assert.Equal(t, 0, p.OffsetY)
	assert.InDelta(t, 1.0, p.Scale, 1e-9)
	assert.Equal(t, p.Width, fitted.Bounds().Dx())
	assert.Equal(t, p.Height, fitted.Bounds().Dy())
}

func TestFitToCanvas_NeverExceedsCanvas(t *testing.T) {
	sizes := []struct{ w, h int }{
		{100, 100}, {3000, 2000}, {1536, 1024}, {1, 1}, {50, 4000}, {4000, 50}, {1537, 1024},
	}
	for _, s := range sizes {
		cutout := solidCutout(s.w, s.h, color.NRGBA{G: 128, A: 255})
		_, p, err := FitToCanvas(cutout, DefaultCanvasWidth, DefaultCanvasHeight)
		require.NoError(t, err, "size %dx%d", s.w, s.h)

		assert.LessOrEqual(t, p.Width, DefaultCanvasWidth, "size %dx%d", s.w, s.h)
		assert.LessOrEqual(t, p.Height, DefaultCanvasHeight, "size %dx%d", s.w, s.h)
		assert.GreaterOrEqual(t, p.OffsetX, 0)
		assert.GreaterOrEqual(t, p.OffsetY, 0)
	}
}

func TestFitToCanvas_AspectRatioPreserved(t *testing.T) {
	sizes := []struct{ w, h int }{
		{640, 480}, {480, 640}, {1920, 1080}, {333, 777},
	}
	for _, s := range sizes {
		_, p, err := FitToCanvas(solidCutout(s.w, s.h, color.NRGBA{B: 64, A: 255}),
			DefaultCanvasWidth, DefaultCanvasHeight)
		require.NoError(t, err)

		want := float64(s.w) / float64(s.h)
		got := float64(p.Width) / float64(p.Height)
		// Integer truncation of the free axis bounds the ratio error by one
		// pixel over the constrained dimension.
		assert.InDelta(t, want, got, want/float64(min(p.Width, p.Height)),
			"size %dx%d fitted to %dx%d", s.w, s.h, p.Width, p.Height)
	}
}

func TestFitToCanvas_CenteringMargins(t *testing.T) {
	// Taller than the canvas ratio: vertical fill, horizontal margins split
	// evenly within a pixel.
	_, p, err := FitToCanvas(solidCutout(500, 1000, color.NRGBA{A: 255}),
		DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)

	right := DefaultCanvasWidth - p.OffsetX - p.Width
	assert.InDelta(t, float64(p.OffsetX), float64(right), 1.0)
	assert.Equal(t, 0, p.OffsetY)

	// Wider than the canvas ratio: horizontal fill, vertical margins.
	_, p, err = FitToCanvas(solidCutout(3000, 1000, color.NRGBA{A: 255}),
		DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)

	bottom := DefaultCanvasHeight - p.OffsetY - p.Height
	assert.InDelta(t, float64(p.OffsetY), float64(bottom), 1.0)
	assert.Equal(t, 0, p.OffsetX)
}

func TestFitToCanvas_UpscalesSmallPhotos(t *testing.T) {
	_, p, err := FitToCanvas(solidCutout(96, 64, color.NRGBA{A: 255}),
		DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)
	assert.Greater(t, p.Scale, 1.0)
	assert.Equal(t, DefaultCanvasWidth, p.Width)
}

func TestFitToCanvas_ExactCanvasRatio(t *testing.T) {
	_, p, err := FitToCanvas(solidCutout(768, 512, color.NRGBA{A: 255}),
		DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)
	assert.Equal(t, 0, p.OffsetX)
	assert.Equal(t, 0, p.OffsetY)
	assert.Equal(t, DefaultCanvasWidth, p.Width)
	assert.Equal(t, DefaultCanvasHeight, p.Height)
}

func TestFitToCanvas_Invalid(t *testing.T) {
	_, _, err := FitToCanvas(nil, DefaultCanvasWidth, DefaultCanvasHeight)
	require.Error(t, err)

	_, _, err = FitToCanvas(solidCutout(10, 10, color.NRGBA{A: 255}), 0, DefaultCanvasHeight)
	require.Error(t, err)
}
