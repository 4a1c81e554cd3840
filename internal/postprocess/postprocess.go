// Package postprocess keeps capture responses under the platform byte limit.
package postprocess

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// MaxBytes is the response size ceiling. Images at or above it are
	// downsized and re-encoded; smaller ones pass through byte-identical.
	MaxBytes = 10 << 20

	// maxDimension constrains the longest side of a downsized image.
	maxDimension = 1024

	jpegQuality = 100
)

// Result is the final response payload for a capture.
type Result struct {
	Bytes       []byte
	ContentType string
}

// Shrink bounds raw PNG bytes to MaxBytes. Oversized images are resized so
// the longest dimension is at most maxDimension (aspect ratio preserved,
// never upscaled) and re-encoded as JPEG at maximum quality.
func Shrink(raw []byte) (*Result, error) {
	if len(raw) < MaxBytes {
		return &Result{Bytes: raw, ContentType: "image/png"}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("postprocess: decode failed: %w", err)
	}

	img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("postprocess: encode failed: %w", err)
	}

	return &Result{Bytes: buf.Bytes(), ContentType: "image/jpeg"}, nil
}
