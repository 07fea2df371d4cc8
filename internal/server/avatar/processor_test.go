package avatar

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"taskkeeper/internal/common"
)

func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_ResizesToSquarePNG(t *testing.T) {
	p := NewProcessor(250)

	for _, dims := range [][2]int{{800, 600}, {100, 100}, {50, 400}} {
		out, err := p.Normalize(makeJPEG(t, dims[0], dims[1]))
		if err != nil {
			t.Fatalf("Normalize(%dx%d) error: %v", dims[0], dims[1], err)
		}

		img, err := png.Decode(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("output is not PNG: %v", err)
		}
		b := img.Bounds()
		if b.Dx() != 250 || b.Dy() != 250 {
			t.Fatalf("got %dx%d, want 250x250", b.Dx(), b.Dy())
		}
	}
}

func TestNormalize_AcceptsPNGInput(t *testing.T) {
	p := NewProcessor(64)

	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png encode: %v", err)
	}

	out, err := p.Normalize(buf.Bytes())
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Fatalf("got width %d, want 64", img.Bounds().Dx())
	}
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	p := NewProcessor(250)

	_, err := p.Normalize([]byte("this is not an image"))
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want common.ErrValidation, got %v", err)
	}
}
