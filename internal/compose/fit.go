package compose

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// Default output canvas dimensions. Every card produced by the pipeline
// is normalized into a canvas of exactly this size.
const (
	DefaultCanvasWidth  = 1536
	DefaultCanvasHeight = 1024
)

// Placement describes where a fitted cutout lands on the canvas.
type Placement struct {
	Scale   float64 // uniform scale factor applied to the cutout
	OffsetX int     // left edge of the cutout on the canvas
	OffsetY int     // top edge of the cutout on the canvas
	Width   int     // scaled cutout width
	Height  int     // scaled cutout height
}

// FitToCanvas scales a cutout uniformly so it fits entirely inside a
// canvasW×canvasH canvas and centers it. The aspect ratio is preserved
// exactly; the constrained axis fills the canvas and the other axis gets
// an even margin on both sides. Small photos are scaled up to fill —
// the scale factor is deliberately not capped at 1.0.
func FitToCanvas(cutout image.Image, canvasW, canvasH int) (*image.NRGBA, Placement, error) {
	if cutout == nil {
		return nil, Placement{}, errors.New("fit: nil cutout")
	}
	if canvasW <= 0 || canvasH <= 0 {
		return nil, Placement{}, errors.New("fit: invalid canvas dimensions")
	}

	b := cutout.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, Placement{}, errors.New("fit: empty cutout")
	}

	cutoutRatio := float64(w) / float64(h)
	canvasRatio := float64(canvasW) / float64(canvasH)

	var newW, newH int
	if cutoutRatio > canvasRatio {
		// Wider than the canvas: width is the constrained axis.
		newW = canvasW
		newH = int(float64(canvasW) / cutoutRatio)
	} else {
		newH = canvasH
		newW = int(float64(canvasH) * cutoutRatio)
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	resized := imaging.Resize(cutout, newW, newH, imaging.Lanczos)

	p := Placement{
		Scale:   float64(newW) / float64(w),
		OffsetX: (canvasW - newW) / 2,
		OffsetY: (canvasH - newH) / 2,
		Width:   newW,
		Height:  newH,
	}
	return resized, p, nil
}
