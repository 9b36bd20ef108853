package extractor

import (
	"errors"
	"image"

	"github.com/MeKo-Tech/fancard/internal/mempool"
	"github.com/MeKo-Tech/fancard/internal/onnx"
	"github.com/disintegration/imaging"
)

// ImageNet channel statistics used by the matting model.
var (
	channelMean = [3]float32{0.485, 0.456, 0.406}
	channelStd  = [3]float32{0.229, 0.224, 0.225}
)

// preprocess stretches the portrait to the model input square and
// normalizes it into an NCHW tensor. The buffer comes from the shared
// pool; call release once the tensor is no longer needed.
func (m *Matting) preprocess(img image.Image) (onnx.Tensor, func(), error) {
	if img == nil {
		return onnx.Tensor{}, nil, errors.New("input image is nil")
	}
	size := m.config.InputSize

	// The model expects exactly size×size; the mask is stretched back
	// over the original geometry afterwards, so this resize does not
	// distort the final cutout.
	resized := imaging.Resize(img, size, size, imaging.Lanczos)

	data := mempool.GetFloat32(3 * size * size)
	release := func() { mempool.PutFloat32(data) }

	plane := size * size
	for y := range size {
		for x := range size {
			c := resized.NRGBAAt(x, y)
			idx := y*size + x
			data[idx] = (float32(c.R)/255.0 - channelMean[0]) / channelStd[0]
			data[plane+idx] = (float32(c.G)/255.0 - channelMean[1]) / channelStd[1]
			data[2*plane+idx] = (float32(c.B)/255.0 - channelMean[2]) / channelStd[2]
		}
	}

	tensor, err := onnx.NewImageTensor(data, 3, size, size)
	if err != nil {
		release()
		return onnx.Tensor{}, nil, err
	}
	return tensor, release, nil
}
