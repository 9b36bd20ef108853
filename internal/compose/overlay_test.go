package compose

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderQR(t *testing.T) {
	qr, err := RenderQR("http://localhost:5000/download/abc_card.png", DefaultQRSize)
	require.NoError(t, err)
	assert.Equal(t, DefaultQRSize, qr.Bounds().Dx())
	assert.Equal(t, DefaultQRSize, qr.Bounds().Dy())
}

func TestRenderQR_Empty(t *testing.T) {
	_, err := RenderQR("", DefaultQRSize)
	require.Error(t, err)
}

func TestRenderQR_DefaultSize(t *testing.T) {
	qr, err := RenderQR("http://example.com/x", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultQRSize, qr.Bounds().Dx())
}

func TestStampQR_BottomRightAnchor(t *testing.T) {
	canvas := solidCutout(DefaultCanvasWidth, DefaultCanvasHeight, color.NRGBA{B: 90, A: 255})
	qr, err := RenderQR("http://example.com/card", DefaultQRSize)
	require.NoError(t, err)

	cfg := DefaultOverlayConfig()
	out := StampQR(canvas, qr, cfg)

	// Output geometry is untouched.
	assert.Equal(t, DefaultCanvasWidth, out.Bounds().Dx())
	assert.Equal(t, DefaultCanvasHeight, out.Bounds().Dy())

	// The QR region no longer shows the canvas color: its corner finder
	// patterns force both black and white pixels into the anchored square.
	x0 := DefaultCanvasWidth - cfg.QRSize - cfg.Margin
	y0 := DefaultCanvasHeight - cfg.QRSize - cfg.Margin
	sawNonCanvas := false
	for y := y0; y < y0+cfg.QRSize; y += 7 {
		for x := x0; x < x0+cfg.QRSize; x += 7 {
			if out.NRGBAAt(x, y).B != 90 {
				sawNonCanvas = true
			}
		}
	}
	assert.True(t, sawNonCanvas)

	// Outside the QR region the canvas is untouched.
	assert.Equal(t, uint8(90), out.NRGBAAt(x0-40, y0-40).B)
}

func TestDrawLabel(t *testing.T) {
	canvas := solidCutout(DefaultCanvasWidth, DefaultCanvasHeight, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
	cfg := DefaultOverlayConfig()
	DrawLabel(canvas, []string{"Jo Striker", "#9"}, cfg)

	// Some white fill pixels must appear near the bottom-left anchor.
	sawWhite := false
	for y := DefaultCanvasHeight - 80; y < DefaultCanvasHeight; y++ {
		for x := 0; x < 200; x++ {
			c := canvas.NRGBAAt(x, y)
			if c.R == 255 && c.G == 255 && c.B == 255 {
				sawWhite = true
			}
		}
	}
	assert.True(t, sawWhite)
}

func TestDrawLabel_AllEmptyIsNoop(t *testing.T) {
	canvas := solidCutout(64, 64, color.NRGBA{R: 7, G: 7, B: 7, A: 255})
	DrawLabel(canvas, []string{"", ""}, DefaultOverlayConfig())
	for y := range 64 {
		for x := range 64 {
			assert.Equal(t, color.NRGBA{R: 7, G: 7, B: 7, A: 255}, canvas.NRGBAAt(x, y))
		}
	}
}
