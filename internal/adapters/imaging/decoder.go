package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Registered decoders for the formats the original uploads use.
	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/core"
)

// DecodeError marks malformed input bytes. It is fatal only to the
// current request; the pipeline answers it with a fail-open verdict.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("image decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

const jpegQuality = 85

// Decoder implements core.ImageDecoder with the standard image codecs.
type Decoder struct {
	logger *zap.Logger
}

// NewDecoder creates a decoder.
func NewDecoder(logger *zap.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Decode parses the raw bytes and produces a SourceImage carrying a
// JPEG-normalized copy for the remote detector capabilities.
func (d *Decoder) Decode(data []byte) (*core.SourceImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	sizeKB := float64(len(data)) / 1024.0
	bounds := img.Bounds()

	normalized := data
	if format != "jpeg" {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, &DecodeError{Err: fmt.Errorf("jpeg re-encode failed: %w", err)}
		}
		normalized = buf.Bytes()
	}

	d.logger.Debug("Image decoded",
		zap.String("format", format),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.Float64("size_kb", sizeKB))

	return &core.SourceImage{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		JPEG:   normalized,
		SizeKB: sizeKB,
	}, nil
}
