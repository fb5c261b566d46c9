package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/adapters/cache"
	"github.com/mikey/content-moderation/internal/adapters/imaging"
	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/detector"
	"github.com/mikey/content-moderation/internal/health"
	"github.com/mikey/content-moderation/internal/pool"
)

type scriptedDetector struct {
	regions []core.Detection
	age     *core.AgeEstimate
}

func (d *scriptedDetector) DetectRegions(_ context.Context, _ *core.SourceImage) ([]core.Detection, error) {
	return d.regions, nil
}

func (d *scriptedDetector) EstimateAge(_ context.Context, _ *core.SourceImage) (*core.AgeEstimate, error) {
	return d.age, nil
}

func newTestHandler(t *testing.T, det core.Detector) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	p := pool.New(logger, 2, 8)
	t.Cleanup(p.Shutdown)

	loader := detector.NewLoader(func(_ context.Context) (core.Detector, error) {
		return det, nil
	}, logger)

	c := cache.New(cache.NewMemoryBackend(16, logger), logger)
	service := core.NewModerationService(
		imaging.NewDecoder(logger), loader, p, c, logger, true, time.Minute)
	reporter := health.NewReporter(loader, p, c, "test")

	srv := NewServer(service, reporter, c, logger,
		"127.0.0.1:0", 10*time.Second, 1<<20, core.SensitivityNormal)
	return srv.routes()
}

func testImageBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func postDetect(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/content/detect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestDetectFlagged(t *testing.T) {
	handler := newTestHandler(t, &scriptedDetector{
		regions: []core.Detection{{Label: "EXPOSED_BREAST_F", Confidence: 0.9}},
	})

	body, _ := json.Marshal(map[string]string{
		"image_data":  testImageBase64(t),
		"sensitivity": "normal",
	})
	rec := postDetect(t, handler, string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp detectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.NudityDetected {
		t.Error("Expected nudity_detected true")
	}
	if resp.ConfidenceScore != 0.9 {
		t.Errorf("Expected confidence 0.9, got %v", resp.ConfidenceScore)
	}
	if resp.SensitivityUsed != "normal" {
		t.Errorf("Expected sensitivity normal, got %s", resp.SensitivityUsed)
	}
	if !strings.Contains(resp.DetectionDetails, "EXPOSED_BREAST_F") {
		t.Errorf("Details should name the label, got %q", resp.DetectionDetails)
	}
}

func TestDetectSafe(t *testing.T) {
	handler := newTestHandler(t, &scriptedDetector{
		regions: []core.Detection{{Label: "FACE_FEMALE", Confidence: 0.4}},
	})

	body, _ := json.Marshal(map[string]string{"image_data": testImageBase64(t)})
	rec := postDetect(t, handler, string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp detectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.NudityDetected {
		t.Error("Expected safe verdict")
	}
	// Empty sensitivity falls back to the server default.
	if resp.SensitivityUsed != "normal" {
		t.Errorf("Expected default sensitivity, got %s", resp.SensitivityUsed)
	}
}

func TestDetectBadBase64(t *testing.T) {
	handler := newTestHandler(t, &scriptedDetector{})

	rec := postDetect(t, handler, `{"image_data": "%%% not base64 %%%"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error == "" {
		t.Error("Expected an error message")
	}
}

func TestDetectBadJSON(t *testing.T) {
	handler := newTestHandler(t, &scriptedDetector{})

	rec := postDetect(t, handler, "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestDetectUndecodableImageStillAnswers(t *testing.T) {
	handler := newTestHandler(t, &scriptedDetector{})

	garbage := base64.StdEncoding.EncodeToString([]byte("not an image"))
	body, _ := json.Marshal(map[string]string{"image_data": garbage})
	rec := postDetect(t, handler, string(body))

	// Valid base64 of invalid image bytes degrades into a decision.
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp detectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.NudityDetected {
		t.Error("Undecodable image must fail open")
	}
	if !strings.Contains(resp.DetectionDetails, "decode failed") {
		t.Errorf("Unexpected details: %q", resp.DetectionDetails)
	}
}

func TestHealthEndpoints(t *testing.T) {
	handler := newTestHandler(t, &scriptedDetector{})

	for _, path := range []string{"/health", "/content/health", "/cache/stats", "/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: expected JSON content type, got %s", path, ct)
		}
	}
}

func TestContentHealthReportsLoaderState(t *testing.T) {
	handler := newTestHandler(t, &scriptedDetector{})

	req := httptest.NewRequest(http.MethodGet, "/content/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp health.ModerationHealth
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.DetectorModel != "unloaded" {
		t.Errorf("Expected unloaded detector before first request, got %s", resp.DetectorModel)
	}
	if resp.Pool.Workers != 2 {
		t.Errorf("Expected 2 workers, got %d", resp.Pool.Workers)
	}
}

func TestCacheDelete(t *testing.T) {
	handler := newTestHandler(t, &scriptedDetector{})

	req := httptest.NewRequest(http.MethodDelete, "/cache/somekey", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["deleted"] != "somekey" {
		t.Errorf("Expected deleted=somekey, got %v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler(t, &scriptedDetector{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rec.Code)
	}
}
