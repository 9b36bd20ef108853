package extractor

import (
	"context"
	"image"
)

// Extractor turns a raw portrait into a cutout with the background made
// transparent. Implementations must be safe for sequential reuse across
// requests; the single method keeps the model swappable and mockable.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (*image.NRGBA, error)
	Close() error
}
