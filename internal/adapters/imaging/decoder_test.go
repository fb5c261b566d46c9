package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"go.uber.org/zap"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNGNormalizesToJPEG(t *testing.T) {
	d := NewDecoder(zap.NewNop())
	data := pngBytes(t, 32, 16)

	img, err := d.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width != 32 || img.Height != 16 {
		t.Errorf("Expected 32x16, got %dx%d", img.Width, img.Height)
	}
	if img.SizeKB != float64(len(data))/1024.0 {
		t.Errorf("SizeKB should reflect the input bytes, got %v", img.SizeKB)
	}

	// The normalized copy must itself be a decodable JPEG.
	decoded, format, err := image.Decode(bytes.NewReader(img.JPEG))
	if err != nil {
		t.Fatalf("Normalized copy is not decodable: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("Expected jpeg normalization, got %s", format)
	}
	if decoded.Bounds().Dx() != 32 {
		t.Errorf("Normalization changed dimensions: %v", decoded.Bounds())
	}
}

func TestDecodeJPEGKeepsOriginalBytes(t *testing.T) {
	d := NewDecoder(zap.NewNop())
	data := jpegBytes(t, 8, 8)

	img, err := d.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(img.JPEG, data) {
		t.Error("JPEG input must not be re-encoded")
	}
}

func TestDecodeGarbage(t *testing.T) {
	d := NewDecoder(zap.NewNop())

	_, err := d.Decode([]byte("definitely not an image"))
	if err == nil {
		t.Fatal("Expected decode failure")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("Expected *DecodeError, got %T", err)
	}
}

func TestDecodeEmpty(t *testing.T) {
	d := NewDecoder(zap.NewNop())
	if _, err := d.Decode(nil); err == nil {
		t.Error("Expected decode failure for empty input")
	}
}
