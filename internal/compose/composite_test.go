package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverFrame_SubjectInFront(t *testing.T) {
	frame := solidCutout(DefaultCanvasWidth, DefaultCanvasHeight, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	fitted, p, err := FitToCanvas(solidCutout(1024, 1024, color.NRGBA{R: 250, A: 255}),
		DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)

	out, err := OverFrame(frame, fitted, p, DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)
	assert.Equal(t, DefaultCanvasWidth, out.Bounds().Dx())
	assert.Equal(t, DefaultCanvasHeight, out.Bounds().Dy())

	// Center pixel belongs to the opaque cutout.
	c := out.NRGBAAt(DefaultCanvasWidth/2, DefaultCanvasHeight/2)
	assert.Equal(t, uint8(250), c.R)

	// Margin pixels keep the frame color.
	m := out.NRGBAAt(10, DefaultCanvasHeight/2)
	assert.Equal(t, uint8(10), m.R)
	assert.Equal(t, uint8(30), m.B)
}

func TestOverFrame_TransparentCutoutShowsFrame(t *testing.T) {
	frame := solidCutout(DefaultCanvasWidth, DefaultCanvasHeight, color.NRGBA{G: 200, A: 255})
	// Fully transparent cutout: frame must survive untouched underneath.
	cutout := image.NewNRGBA(image.Rect(0, 0, 1536, 1024))
	fitted, p, err := FitToCanvas(cutout, DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)

	out, err := OverFrame(frame, fitted, p, DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)
	c := out.NRGBAAt(700, 500)
	assert.Equal(t, uint8(200), c.G)
}

func TestOverFrame_RejectsMismatchedFrame(t *testing.T) {
	frame := solidCutout(800, 600, color.NRGBA{A: 255})
	fitted, p, err := FitToCanvas(solidCutout(100, 100, color.NRGBA{A: 255}),
		DefaultCanvasWidth, DefaultCanvasHeight)
	require.NoError(t, err)

	_, err = OverFrame(frame, fitted, p, DefaultCanvasWidth, DefaultCanvasHeight)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "800x600")
}

func TestFlattenWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	// Top-left opaque red, rest transparent.
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	out := FlattenWhite(img)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(2, 2))
}
