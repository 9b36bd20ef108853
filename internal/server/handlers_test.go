package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/draw"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/fancard/internal/compose"
	"github.com/MeKo-Tech/fancard/internal/pipeline"
	"github.com/MeKo-Tech/fancard/internal/testutil"
)

// passthroughExtractor copies the input with full alpha so server tests
// need no model files.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(_ context.Context, img image.Image) (*image.NRGBA, error) {
	out := image.NewNRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out, nil
}

func (passthroughExtractor) Close() error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	framesDir := testutil.WriteFrameSet(t, filepath.Join(t.TempDir(), "frames"), 6,
		compose.DefaultCanvasWidth, compose.DefaultCanvasHeight)

	pl, err := pipeline.NewBuilder().
		WithExtractor(passthroughExtractor{}).
		WithFramesDir(framesDir).
		WithOutputDir(t.TempDir()).
		WithBaseURL("http://cards.example.com").
		Build()
	require.NoError(t, err)

	srv := newServerWithPipeline(pl, Config{
		CORSOrigin:  "*",
		MaxUploadMB: 16,
		TimeoutSec:  30,
	})
	t.Cleanup(func() { require.NoError(t, srv.Close()) })
	return srv
}

func newTestMux(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()
	srv := newTestServer(t)
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	return srv, mux
}

// multipartUpload builds a process request with the given file field name.
func multipartUpload(t *testing.T, fileField, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(testutil.EncodePNG(t, testutil.GeneratePortrait(480, 640)))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthHandler(t *testing.T) {
	_, mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestFramesHandler(t *testing.T) {
	_, mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frames", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FramesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Count)
	for i, info := range resp.Frames {
		assert.Equal(t, i+1, info.Selector)
		assert.Equal(t, compose.DefaultCanvasWidth, info.Width)
		assert.Equal(t, compose.DefaultCanvasHeight, info.Height)
	}
}

func TestProcessHandler(t *testing.T) {
	srv, mux := newTestMux(t)

	req := multipartUpload(t, "person_image", "portrait.png", map[string]string{
		"name":                 "Alex",
		"number":               "7",
		"image_set_background": "2",
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "Alex", resp.Result.Name)
	assert.Equal(t, "7", resp.Result.Number)
	assert.Equal(t, 2, resp.Result.Frame)
	assert.Contains(t, resp.Result.DownloadURL, "/download/"+resp.Result.OutputFile)

	// The generated card must be downloadable.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+resp.Result.OutputFile, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	// And the stored artifact must match the pipeline's store path.
	_, err := srv.store.Path(resp.Result.OutputFile)
	assert.NoError(t, err)
}

func TestProcessHandlerMissingFile(t *testing.T) {
	_, mux := newTestMux(t)

	req := multipartUpload(t, "", "", map[string]string{"name": "Alex"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "No person image")
}

func TestProcessHandlerUnsupportedType(t *testing.T) {
	_, mux := newTestMux(t)

	req := multipartUpload(t, "person_image", "portrait.gif", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessHandlerInvalidSelectorFallsBack(t *testing.T) {
	_, mux := newTestMux(t)

	req := multipartUpload(t, "person_image", "portrait.png", map[string]string{
		"image_set_background": "42",
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1, resp.Result.Frame)
}

func TestProcessHandlerMethodNotAllowed(t *testing.T) {
	_, mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDownloadHandlerNotFound(t *testing.T) {
	_, mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/deadbeef_card.png", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadHandlerTraversal(t *testing.T) {
	_, mux := newTestMux(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/download/..%2f..%2fetc%2fpasswd", nil)
	mux.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	_, mux := newTestMux(t)

	t.Run("headers on regular request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/process", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestClassifyPipelineError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		label  string
	}{
		{pipeline.ErrUnsupportedImage, http.StatusBadRequest, "client_error"},
		{pipeline.ErrDecode, http.StatusBadRequest, "client_error"},
		{pipeline.ErrExtractionTimeout, http.StatusGatewayTimeout, "timeout"},
		{pipeline.ErrExtraction, http.StatusInternalServerError, "server_error"},
		{pipeline.ErrStorage, http.StatusInternalServerError, "server_error"},
	}
	for _, tt := range tests {
		status, label := classifyPipelineError(tt.err)
		assert.Equal(t, tt.status, status, tt.err)
		assert.Equal(t, tt.label, label, tt.err)
	}
}
