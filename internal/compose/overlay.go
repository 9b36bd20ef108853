package compose

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay anchor defaults. The QR code sits in the bottom-right corner,
// the label text in the bottom-left, both inset by the margin.
const (
	DefaultQRSize  = 150
	DefaultMargin  = 20
	labelLineGap   = 6
	outlineOffsets = 1
)

// OverlayConfig controls QR and label placement on the final canvas.
type OverlayConfig struct {
	QRSize int // rendered QR edge length in pixels
	Margin int // inset from the canvas edges
}

// DefaultOverlayConfig returns the standard card overlay geometry.
func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{QRSize: DefaultQRSize, Margin: DefaultMargin}
}

// RenderQR renders the download URL as a QR code image of the given edge
// length, medium error correction.
func RenderQR(url string, size int) (image.Image, error) {
	if url == "" {
		return nil, fmt.Errorf("qr: empty payload")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	return qr.Image(size), nil
}

// StampQR paints a QR code at the bottom-right corner of the canvas.
// The subject is never moved or rescaled; this only adds a fixed layer.
func StampQR(canvas *image.NRGBA, qr image.Image, cfg OverlayConfig) *image.NRGBA {
	b := canvas.Bounds()
	qb := qr.Bounds()
	x := b.Dx() - qb.Dx() - cfg.Margin
	y := b.Dy() - qb.Dy() - cfg.Margin
	return imaging.Overlay(canvas, qr, image.Pt(x, y), 1.0)
}

// DrawLabel renders up to two text lines (name, number) at the
// bottom-left anchor. Text is white with a dark outline so it stays
// legible over arbitrary frame art. Empty lines are skipped.
func DrawLabel(canvas *image.NRGBA, lines []string, cfg OverlayConfig) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + labelLineGap

	nonEmpty := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) == 0 {
		return
	}

	b := canvas.Bounds()
	baseY := b.Dy() - cfg.Margin - (len(nonEmpty)-1)*lineHeight
	for i, line := range nonEmpty {
		drawOutlinedString(canvas, face, line, cfg.Margin, baseY+i*lineHeight)
	}
}

func drawOutlinedString(dst *image.NRGBA, face font.Face, s string, x, y int) {
	outline := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{A: 255}),
		Face: face,
	}
	for _, dx := range []int{-outlineOffsets, 0, outlineOffsets} {
		for _, dy := range []int{-outlineOffsets, 0, outlineOffsets} {
			if dx == 0 && dy == 0 {
				continue
			}
			outline.Dot = fixed.P(x+dx, y+dy)
			outline.DrawString(s)
		}
	}

	fill := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: face,
	}
	fill.Dot = fixed.P(x, y)
	fill.DrawString(s)
}
