package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/metrics"
	"github.com/mikey/content-moderation/internal/pool"
)

// ModerationService is the core decision pipeline. It runs a fixed
// two-gate policy (age check, then nudity check) over the detector
// capability, offloading all blocking work to the worker pool.
//
// ClassifyContent never returns an error: collaborator failures
// degrade to documented fail-open decisions.
type ModerationService struct {
	decoder      ImageDecoder
	detectors    DetectorSource
	pool         *pool.Pool
	cache        KeyValueCache
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewModerationService creates a new moderation service.
func NewModerationService(
	decoder ImageDecoder,
	detectors DetectorSource,
	p *pool.Pool,
	cache KeyValueCache,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *ModerationService {
	return &ModerationService{
		decoder:      decoder,
		detectors:    detectors,
		pool:         p,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
	}
}

// ClassifyContent produces a moderation decision for the raw image
// bytes under the given sensitivity profile. The heavy path runs as a
// single pool task; the caller's goroutine only waits on the future.
// Cancelling ctx abandons the wait but lets the task run to completion.
func (s *ModerationService) ClassifyContent(ctx context.Context, data []byte, sensitivity Sensitivity) *ModerationDecision {
	start := time.Now()

	key := s.cacheKey(data, sensitivity)
	if cached := s.cachedDecision(ctx, key); cached != nil {
		s.logger.Debug("Decision served from cache", zap.String("key", key))
		metrics.CacheHitsTotal.Inc()
		s.observe(cached, start)
		return cached
	}
	if s.cacheEnabled {
		metrics.CacheMissesTotal.Inc()
	}

	fut, err := s.pool.Submit(func() (any, error) {
		return s.process(data, sensitivity), nil
	})
	if err != nil {
		s.logger.Warn("Moderation task rejected", zap.Error(err))
		dec := s.failOpen(sensitivity, fmt.Sprintf("Processing failed: %s", err))
		s.observe(dec, start)
		return dec
	}

	res, err := fut.Wait(ctx)
	if err != nil {
		// The task keeps running; its result is discarded.
		s.logger.Warn("Moderation wait abandoned", zap.Error(err))
		dec := s.failOpen(sensitivity, fmt.Sprintf("Processing abandoned: %s", err))
		s.observe(dec, start)
		return dec
	}

	dec, ok := res.(*ModerationDecision)
	if !ok || dec == nil {
		dec = s.failOpen(sensitivity, "Processing failed: no decision produced")
	}
	dec.ProcessingTime = time.Since(start)

	s.storeDecision(ctx, key, dec)
	s.observe(dec, start)
	return dec
}

// process runs the gates in order. It executes on a pool worker and is
// deliberately detached from the caller's context.
func (s *ModerationService) process(data []byte, sensitivity Sensitivity) *ModerationDecision {
	ctx := context.Background()
	th := sensitivity.Thresholds()

	// Gate 1: decode. Failure short-circuits fail-open.
	img, err := s.decoder.Decode(data)
	if err != nil {
		s.logger.Warn("Image decode failed", zap.Error(err))
		return s.failOpen(sensitivity, fmt.Sprintf("Image decode failed: %s", err))
	}

	detector, err := s.detectors.Acquire(ctx)
	if err != nil {
		s.logger.Error("Detector unavailable", zap.Error(err))
		dec := s.failOpen(sensitivity, fmt.Sprintf("Detection failed: %s", err))
		dec.ImageSizeKB = img.SizeKB
		return dec
	}

	// Gate 2: age. A confident underage estimate short-circuits to
	// not-safe; any capability failure degrades and the pipeline
	// continues.
	ageNote := ""
	estimate, err := detector.EstimateAge(ctx, img)
	switch {
	case err != nil:
		s.logger.Warn("Age estimation failed", zap.Error(err))
		ageNote = fmt.Sprintf("Age verification failed: %s", err)
	case estimate == nil:
		ageNote = "Age verification: No face detected"
	case estimate.Years < th.Age:
		s.logger.Warn("Underage content detected",
			zap.Float64("estimated_age", estimate.Years),
			zap.Float64("age_threshold", th.Age))
		return &ModerationDecision{
			Flagged:     true,
			Confidence:  1.0,
			Details:     fmt.Sprintf("UNDERAGE DETECTED: Estimated age %.0f (< %.0f)", estimate.Years, th.Age),
			ImageSizeKB: img.SizeKB,
			Sensitivity: sensitivity,
		}
	default:
		// Age gate passed cleanly; nothing to report.
		s.logger.Debug("Age gate passed", zap.Float64("estimated_age", estimate.Years))
	}

	// Gate 3: content classification.
	regions, err := detector.DetectRegions(ctx, img)
	if err != nil {
		s.logger.Error("Region detection failed", zap.Error(err))
		dec := s.failOpen(sensitivity, fmt.Sprintf("Detection failed: %s", err))
		dec.ImageSizeKB = img.SizeKB
		return dec
	}

	flagged, maxConfidence, flaggedLabels := evaluateRegions(regions, th.Nudity)

	details := ""
	if flagged {
		details = "Nudity: " + strings.Join(flaggedLabels, ", ")
		if ageNote != "" {
			details = ageNote + " | " + details
		}
	} else if ageNote != "" {
		details = ageNote
	} else {
		details = fmt.Sprintf("Content is safe (max confidence: %.2f)", maxConfidence)
	}

	return &ModerationDecision{
		Flagged:     flagged,
		Confidence:  maxConfidence,
		Details:     details,
		ImageSizeKB: img.SizeKB,
		Sensitivity: sensitivity,
	}
}

// evaluateRegions applies the content gate: flagged iff a restricted
// label exceeds the nudity threshold. The reported confidence is the
// maximum over all regions, flagged or not.
func evaluateRegions(regions []Detection, nudityThreshold float64) (bool, float64, []string) {
	maxConfidence := 0.0
	var flaggedLabels []string
	seen := map[string]struct{}{}

	for _, region := range regions {
		if region.Confidence > maxConfidence {
			maxConfidence = region.Confidence
		}
		if IsRestrictedLabel(region.Label) && region.Confidence > nudityThreshold {
			if _, dup := seen[region.Label]; !dup {
				seen[region.Label] = struct{}{}
				flaggedLabels = append(flaggedLabels, region.Label)
			}
		}
	}

	return len(flaggedLabels) > 0, maxConfidence, flaggedLabels
}

func (s *ModerationService) failOpen(sensitivity Sensitivity, details string) *ModerationDecision {
	return &ModerationDecision{
		Flagged:     false,
		Confidence:  0.0,
		Details:     details,
		Sensitivity: sensitivity,
	}
}

// cacheKey identifies one (payload, profile) pair for idempotent
// lookups.
func (s *ModerationService) cacheKey(data []byte, sensitivity Sensitivity) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("decision:%s:%s", sensitivity, hex.EncodeToString(sum[:]))
}

func (s *ModerationService) cachedDecision(ctx context.Context, key string) *ModerationDecision {
	if !s.cacheEnabled || s.cache == nil {
		return nil
	}
	value, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil
	}
	encoded, ok := value.(string)
	if !ok {
		return nil
	}
	var dec ModerationDecision
	if err := json.Unmarshal([]byte(encoded), &dec); err != nil {
		s.logger.Warn("Dropping undecodable cached decision", zap.String("key", key), zap.Error(err))
		s.cache.Delete(ctx, key)
		return nil
	}
	return &dec
}

func (s *ModerationService) storeDecision(ctx context.Context, key string, dec *ModerationDecision) {
	if !s.cacheEnabled || s.cache == nil {
		return
	}
	encoded, err := json.Marshal(dec)
	if err != nil {
		s.logger.Error("Failed to encode decision for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(encoded), s.cacheTTL); err != nil {
		s.logger.Error("Failed to cache decision", zap.Error(err))
	}
}

func (s *ModerationService) observe(dec *ModerationDecision, start time.Time) {
	verdict := "safe"
	if dec.Flagged {
		verdict = "flagged"
	}
	metrics.RequestsTotal.WithLabelValues(string(dec.Sensitivity), verdict).Inc()
	metrics.ProcessingSeconds.Observe(time.Since(start).Seconds())
}
