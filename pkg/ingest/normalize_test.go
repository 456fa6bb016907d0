package ingest

import (
	"bytes"
	_ "embed"
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

//go:embed testdata/sample.heic
var sampleHEIC []byte

// encodeImage renders a flat-color image of the given size in the given
// format, for use as pipeline input.
func encodeImage(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 120, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestExtensionOf(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"holiday.JPG", "jpg"},
		{"photo.jpeg", "jpeg"},
		{"a.b.png", "png"},
		{"noext", ""},
		{"IMG_0042.HEIC", "heic"},
	}
	for _, tc := range cases {
		if got := ExtensionOf(tc.filename); got != tc.want {
			t.Errorf("ExtensionOf(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestAllowedExtension(t *testing.T) {
	for _, ext := range []string{"jpg", "jpeg", "png", "gif", "heic", "PNG"} {
		if !AllowedExtension(ext) {
			t.Errorf("AllowedExtension(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{"", "bmp", "tiff", "webp", "exe"} {
		if AllowedExtension(ext) {
			t.Errorf("AllowedExtension(%q) = true, want false", ext)
		}
	}
}

func TestNormalizePNG(t *testing.T) {
	raw := encodeImage(t, 50, 40, imaging.PNG)

	out, err := Normalize(raw, "png", 85)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode normalized output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 50 || b.Dy() != 40 {
		t.Errorf("normalized dimensions = %dx%d, want 50x40", b.Dx(), b.Dy())
	}
}

func TestNormalizeHEIC(t *testing.T) {
	out, err := Normalize(sampleHEIC, "heic", 85)
	if err != nil {
		t.Fatalf("Normalize heic: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode normalized heic output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 512 || b.Dy() != 512 {
		t.Errorf("normalized dimensions = %dx%d, want 512x512", b.Dx(), b.Dy())
	}
}

func TestNormalizeCorruptBytes(t *testing.T) {
	_, err := Normalize([]byte("not an image at all"), "jpg", 85)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Normalize corrupt bytes: err = %v, want ErrFormat", err)
	}
}

func TestNormalizeHEICExtensionMismatch(t *testing.T) {
	// jpeg bytes under a heic extension must fail, not silently pass through
	raw := encodeImage(t, 20, 20, imaging.JPEG)
	_, err := Normalize(raw, "heic", 85)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Normalize jpeg-as-heic: err = %v, want ErrFormat", err)
	}
}
