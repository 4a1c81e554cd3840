package postprocess

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math/rand"
	"testing"
)

func TestShrinkPassthrough(t *testing.T) {
	raw := []byte("small-png-payload")

	result, err := Shrink(raw)
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if !bytes.Equal(result.Bytes, raw) {
		t.Error("small images must pass through byte-identical")
	}
	if result.ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", result.ContentType)
	}
}

func TestShrinkOversized(t *testing.T) {
	raw := noisePNG(t, 3000, 1500)
	if len(raw) < MaxBytes {
		t.Fatalf("fixture too small: %d bytes", len(raw))
	}

	result, err := Shrink(raw)
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if result.ContentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", result.ContentType)
	}
	if len(result.Bytes) >= len(raw) {
		t.Errorf("re-encoded image (%d bytes) not smaller than original (%d bytes)", len(result.Bytes), len(raw))
	}

	img, format, err := image.Decode(bytes.NewReader(result.Bytes))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("decoded format = %q", format)
	}

	bounds := bounds2(img)
	if bounds.w != 1024 || bounds.h != 512 {
		t.Errorf("dimensions = %dx%d, want 1024x512 (aspect preserved)", bounds.w, bounds.h)
	}
}

type wh struct{ w, h int }

func bounds2(img image.Image) wh {
	b := img.Bounds()
	return wh{b.Dx(), b.Dy()}
}

// noisePNG produces an incompressible image so the encoded size comfortably
// clears the ceiling.
func noisePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}
