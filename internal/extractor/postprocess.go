package extractor

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// applyMask converts the raw model output into a soft alpha channel over
// the original portrait. The mask is min-max normalized, stretched back
// to the source dimensions, and passed through the foreground/background
// thresholds so subject edges blend instead of cutting hard.
func (m *Matting) applyMask(src image.Image, mask []float32, maskW, maskH int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := maskToGray(mask, maskW, maskH)
	scaled := imaging.Resize(gray, w, h, imaging.Lanczos)

	rgba := imaging.Clone(src)
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	fg := m.config.ForegroundThreshold
	bg := m.config.BackgroundThreshold
	span := float32(fg) - float32(bg)

	for y := range h {
		for x := range w {
			c := rgba.NRGBAAt(x, y)
			a := scaled.NRGBAAt(x, y).R
			switch {
			case a >= fg:
				c.A = 255
			case a <= bg:
				c.A = 0
			default:
				c.A = uint8((float32(a) - float32(bg)) / span * 255) //nolint:gosec // value is in [0,255)
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// maskToGray renders the float mask as an 8-bit grayscale image after
// min-max normalization. A flat mask maps to zero everywhere.
func maskToGray(mask []float32, w, h int) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, w, h))
	if len(mask) < w*h || w == 0 || h == 0 {
		return gray
	}

	minV, maxV := mask[0], mask[0]
	for _, v := range mask[:w*h] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	span := maxV - minV
	if span == 0 {
		return gray
	}

	for y := range h {
		for x := range w {
			v := (mask[y*w+x] - minV) / span
			gray.SetGray(x, y, color.Gray{Y: uint8(v * 255)}) //nolint:gosec // normalized to [0,1]
		}
	}
	return gray
}
