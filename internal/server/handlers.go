package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/fancard/internal/pipeline"
	"github.com/MeKo-Tech/fancard/internal/version"
)

// Multipart form field names accepted by the process endpoint.
const (
	formFileField     = "person_image"
	formNameField     = "name"
	formNumberField   = "number"
	formFrameSelector = "image_set_background"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding health response: %v\n", err)
	}
}

// framesHandler lists the frame overlays available for card generation.
func (s *Server) framesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	list := s.frames.List()
	response := FramesResponse{
		Frames: list,
		Count:  len(list),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding frames response: %v\n", err)
	}
}

// processHandler turns an uploaded portrait into a finished card.
func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Set content length limit
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile(formFileField)
	if err != nil {
		s.writeErrorResponse(w, "No person image provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}
	uploadSizeBytes.Observe(float64(len(data)))

	ctx := r.Context()
	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	start := time.Now()
	result, err := s.pipeline.Process(ctx, pipeline.Request{
		Data:          data,
		Filename:      header.Filename,
		FrameSelector: r.FormValue(formFrameSelector),
		Name:          r.FormValue(formNameField),
		Number:        r.FormValue(formNumberField),
	})
	cardProcessingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		status, label := classifyPipelineError(err)
		cardRequestsTotal.WithLabelValues(label).Inc()
		s.writeErrorResponse(w, err.Error(), status)
		return
	}
	cardRequestsTotal.WithLabelValues("ok").Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ProcessResponse{Success: true, Result: result}); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding process response: %v\n", err)
	}
}

// downloadHandler serves a previously generated card as an attachment.
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/download/")
	path, err := s.store.Path(name)
	if err != nil {
		downloadsTotal.WithLabelValues("not_found").Inc()
		s.writeErrorResponse(w, "Card not found", http.StatusNotFound)
		return
	}
	downloadsTotal.WithLabelValues("ok").Inc()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// classifyPipelineError maps stage failures onto HTTP status codes and
// metric labels.
func classifyPipelineError(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedImage), errors.Is(err, pipeline.ErrDecode):
		return http.StatusBadRequest, "client_error"
	case errors.Is(err, pipeline.ErrExtractionTimeout):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ProcessResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Log error, but can't send another response
		fmt.Fprintf(os.Stderr, "Error writing error response: %v\n", err)
	}
}
