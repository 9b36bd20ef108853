package pipeline

import "errors"

// Stage sentinels. Callers classify failures with errors.Is to map them
// onto HTTP status codes and metrics labels.
var (
	// ErrUnsupportedImage marks uploads whose filename extension is not
	// an accepted image type.
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrDecode marks uploads that could not be decoded as an image.
	ErrDecode = errors.New("image decode failed")

	// ErrExtraction marks failures inside the matting model.
	ErrExtraction = errors.New("background extraction failed")

	// ErrExtractionTimeout marks matting runs that exceeded the
	// configured deadline.
	ErrExtractionTimeout = errors.New("background extraction timed out")

	// ErrFrame marks a frame overlay that could not be loaded.
	ErrFrame = errors.New("frame load failed")

	// ErrCompose marks geometry or compositing failures.
	ErrCompose = errors.New("composition failed")

	// ErrEncode marks PNG encoding failures.
	ErrEncode = errors.New("image encode failed")

	// ErrStorage marks failures persisting the finished card.
	ErrStorage = errors.New("artifact write failed")
)
