package core

import (
	"context"
	"time"
)

// Detector is the content classification capability. Implementations
// are opaque, best-effort collaborators: either call may fail, and the
// pipeline degrades to a safe default when one does.
type Detector interface {
	// DetectRegions classifies regions of the image and returns one
	// (label, confidence) pair per region.
	DetectRegions(ctx context.Context, img *SourceImage) ([]Detection, error)

	// EstimateAge estimates the age of the youngest clearly visible
	// person. A nil estimate with a nil error means no face was found.
	EstimateAge(ctx context.Context, img *SourceImage) (*AgeEstimate, error)
}

// DetectorSource hands out the ready detector, constructing it on
// first use. Acquire blocks while a construction is in flight.
type DetectorSource interface {
	Acquire(ctx context.Context) (Detector, error)
}

// ImageDecoder turns raw request bytes into a SourceImage.
type ImageDecoder interface {
	Decode(data []byte) (*SourceImage, error)
}

// KeyValueCache is the resilient cache contract. Backend failures are
// absorbed by the implementation: Get reports a miss, Set only returns
// an error for values that cannot be serialized.
type KeyValueCache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string)
	Stats(ctx context.Context) CacheStats
}
