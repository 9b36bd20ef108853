package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/fancard/internal/common"
	"github.com/MeKo-Tech/fancard/internal/compose"
	"github.com/MeKo-Tech/fancard/internal/frames"
	"github.com/MeKo-Tech/fancard/internal/utils"
)

// Request describes one uploaded portrait to turn into a card.
type Request struct {
	Data          []byte // raw upload bytes
	Filename      string // original filename, used for type checks
	FrameSelector string // raw frame choice, clamped to the valid range
	Name          string // optional label printed on the card
	Number        string // optional label printed on the card
}

// Result describes a finished card.
type Result struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Name        string `json:"name"`
	Number      string `json:"number"`
	Frame       int    `json:"frame"`
	OutputFile  string `json:"output_file"`
	DownloadURL string `json:"download_url"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Process runs the full card pipeline: decode, background extraction,
// canvas fit, frame composite, QR and label overlay, PNG persistence.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	timer := common.NewStageTimer()

	if !utils.IsSupportedImage(req.Filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImage, req.Filename)
	}
	src, format, err := utils.DecodeImage(req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	timer.Mark("decode")

	selector := frames.ClampSelector(req.FrameSelector)
	frame, err := p.frames.Load(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrame, err)
	}

	cutout, err := p.extract(ctx, src)
	if err != nil {
		return nil, err
	}
	timer.Mark("extract")

	fitted, placement, err := compose.FitToCanvas(cutout, p.cfg.CanvasWidth, p.cfg.CanvasHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompose, err)
	}
	canvas, err := compose.OverFrame(frame, fitted, placement, p.cfg.CanvasWidth, p.cfg.CanvasHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompose, err)
	}

	outputFile := p.store.NewFilename()
	downloadURL := p.DownloadURL(outputFile)

	qr, err := compose.RenderQR(downloadURL, p.cfg.Overlay.QRSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompose, err)
	}
	canvas = compose.StampQR(canvas, qr, p.cfg.Overlay)
	compose.DrawLabel(canvas, labelLines(req), p.cfg.Overlay)
	timer.Mark("compose")

	final := compose.FlattenWhite(canvas)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, final, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := p.store.Put(outputFile, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	timer.Mark("encode")

	args := []any{
		"file", outputFile,
		"frame", selector,
		"format", format,
		"scale", placement.Scale,
		"duration_ms", timer.Total().Milliseconds(),
	}
	slog.Info("card generated", append(args, timer.Attrs()...)...)

	return &Result{
		Success:     true,
		Message:     "card generated",
		Name:        req.Name,
		Number:      req.Number,
		Frame:       selector,
		OutputFile:  outputFile,
		DownloadURL: downloadURL,
		Width:       p.cfg.CanvasWidth,
		Height:      p.cfg.CanvasHeight,
	}, nil
}

// DownloadURL returns the public URL for a stored card.
func (p *Pipeline) DownloadURL(name string) string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + "/download/" + name
}

// extract runs the matting model under the configured deadline.
func (p *Pipeline) extract(ctx context.Context, src image.Image) (*image.NRGBA, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ExtractionTimeout)
	defer cancel()

	cutout, err := p.extractor.Extract(ctx, src)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrExtractionTimeout, p.cfg.ExtractionTimeout)
		}
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return cutout, nil
}

// labelLines collects the non-empty label fields in print order.
func labelLines(req Request) []string {
	var lines []string
	if strings.TrimSpace(req.Name) != "" {
		lines = append(lines, strings.TrimSpace(req.Name))
	}
	if strings.TrimSpace(req.Number) != "" {
		lines = append(lines, strings.TrimSpace(req.Number))
	}
	return lines
}
