package ingest

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
)

// Accepted source extensions. Anything else is rejected before the pipeline
// starts.
var allowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"heic": {},
}

// ExtensionOf returns the lowercase extension token of a filename, without
// the leading dot.
func ExtensionOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// AllowedExtension reports whether ext is an accepted source format token.
func AllowedExtension(ext string) bool {
	_, ok := allowedExtensions[strings.ToLower(ext)]
	return ok
}

// Normalize converts the original bytes into the canonical display format
// (JPEG at the given quality). HEIC goes through the dedicated decoder; the
// extension claiming HEIC does not guarantee the bytes are, and a decode
// failure propagates as an ingestion failure rather than silently producing a
// corrupt image. No resizing happens here.
func Normalize(raw []byte, ext string, quality int) ([]byte, error) {
	var (
		src image.Image
		err error
	)

	if strings.EqualFold(ext, "heic") {
		src, err = heic.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: heic decode: %v", ErrFormat, err)
		}
	} else {
		// auto-orientation bakes the EXIF rotation into the pixels so the
		// derivatives do not need to carry it
		src, err = imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrFormat, err)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: jpeg encode: %v", ErrFormat, err)
	}
	return buf.Bytes(), nil
}
