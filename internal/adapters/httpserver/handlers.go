package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/core"
)

// detectRequest mirrors the upstream caller's payload: a base64 image
// plus an optional sensitivity profile name.
type detectRequest struct {
	ImageData   string `json:"image_data"`
	Sensitivity string `json:"sensitivity"`
}

type detectResponse struct {
	NudityDetected   bool    `json:"nudity_detected"`
	ConfidenceScore  float64 `json:"confidence_score"`
	DetectionDetails string  `json:"detection_details"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	ImageSizeKB      float64 `json:"image_size_kb"`
	SensitivityUsed  string  `json:"sensitivity_used"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleDetect runs the full moderation pipeline for one image.
// Malformed caller input (bad JSON, bad base64) is the only failure
// reported as an error status; everything downstream degrades into a
// decision.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil {
		s.logger.Warn("Rejecting request with invalid base64 image data", zap.Error(err))
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "image_data is not valid base64"})
		return
	}

	sensitivity := s.defaultSensitivity
	if req.Sensitivity != "" {
		sensitivity = core.ParseSensitivity(req.Sensitivity)
	}

	decision := s.service.ClassifyContent(r.Context(), raw, sensitivity)

	status := "SAFE"
	if decision.Flagged {
		status = "BLOCKED"
	}
	s.logger.Info("Moderation request completed",
		zap.String("status", status),
		zap.String("sensitivity", string(decision.Sensitivity)),
		zap.Float64("confidence", decision.Confidence),
		zap.Duration("processing_time", decision.ProcessingTime))

	s.writeJSON(w, http.StatusOK, detectResponse{
		NudityDetected:   decision.Flagged,
		ConfidenceScore:  decision.Confidence,
		DetectionDetails: decision.Details,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		ImageSizeKB:      decision.ImageSizeKB,
		SensitivityUsed:  string(decision.Sensitivity),
	})
}

func (s *Server) handleContentHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reporter.Moderation(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reporter.Service(r.Context()))
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reporter.Cache(r.Context()))
}

func (s *Server) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.cache.Delete(r.Context(), key)
	s.writeJSON(w, http.StatusOK, map[string]string{"deleted": key})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Content Moderation API",
		"health":  "/health",
		"metrics": "/metrics",
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
