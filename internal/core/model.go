package core

import (
	"time"
)

// SourceImage is a successfully decoded input image handed to the
// detector capabilities. JPEG holds a normalized re-encoding suitable
// for sending to remote inference backends.
type SourceImage struct {
	Width  int
	Height int
	JPEG   []byte
	SizeKB float64
}

// Detection is a single classified region of an image.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// AgeEstimate is the estimated age of the youngest person visible in an
// image. A nil *AgeEstimate means "indeterminate", not "adult".
type AgeEstimate struct {
	Years float64 `json:"years"`
}

// ModerationDecision is the final verdict for one moderation request.
// Decisions are produced once per request and never persisted beyond
// the cache.
type ModerationDecision struct {
	Flagged        bool          `json:"flagged"`
	Confidence     float64       `json:"confidence"`
	Details        string        `json:"details"`
	ProcessingTime time.Duration `json:"processing_time"`
	ImageSizeKB    float64       `json:"image_size_kb"`
	Sensitivity    Sensitivity   `json:"sensitivity"`
}

// CacheStats is a read-only snapshot of the active cache backend,
// exposed through the health endpoints.
type CacheStats struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
}
