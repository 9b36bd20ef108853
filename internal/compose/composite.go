package compose

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// OverFrame paints the fitted cutout over the frame at the given
// placement using standard alpha blending. The frame is the background
// layer; the subject always ends up in front of the frame art. The frame
// must already match the canvas dimensions.
func OverFrame(frame image.Image, fitted image.Image, p Placement, canvasW, canvasH int) (*image.NRGBA, error) {
	if frame == nil || fitted == nil {
		return nil, fmt.Errorf("composite: nil layer")
	}
	fb := frame.Bounds()
	if fb.Dx() != canvasW || fb.Dy() != canvasH {
		return nil, fmt.Errorf("composite: frame is %dx%d, want %dx%d", fb.Dx(), fb.Dy(), canvasW, canvasH)
	}

	out := imaging.Clone(frame)
	out = imaging.Overlay(out, fitted, image.Pt(p.OffsetX, p.OffsetY), 1.0)
	return out, nil
}

// FlattenWhite removes the alpha channel by compositing the image onto a
// white background, matching the final artifact format.
func FlattenWhite(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(out, img, image.Point{}, 1.0)
}
