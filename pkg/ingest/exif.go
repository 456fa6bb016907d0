package ingest

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"duet/models"
)

// TimeSource tags where the capture timestamp came from, so that "extraction
// genuinely found nothing" and "extraction failed" stay distinguishable in
// logs even though callers always get a usable record.
type TimeSource int

const (
	TimeDefaulted TimeSource = iota
	TimeExtracted
)

// Metadata is the best-effort result of reading embedded capture metadata.
// Coordinates are nil when absent; absent and zero are different states.
type Metadata struct {
	TakenAt    time.Time
	TimeSource TimeSource
	Latitude   *float64
	Longitude  *float64
	// Type is only a fallback; an explicit caller-supplied tag wins later.
	Type string
}

// ExtractMetadata never fails: parser errors and missing tags degrade to the
// ingestion time and absent coordinates. Not all images carry EXIF (png and
// gif typically do not), so a decode error here is expected, not exceptional.
func ExtractMetadata(raw []byte) Metadata {
	meta := Metadata{
		TakenAt:    time.Now(),
		TimeSource: TimeDefaulted,
		Type:       models.TypeLandscape,
	}

	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil || x == nil {
		return meta
	}

	// best effort -> DateTimeOriginal, DateTimeDigitized, DateTime
	if datetime, err := x.DateTime(); err == nil {
		meta.TakenAt = datetime
		meta.TimeSource = TimeExtracted
	}

	// gps coordinates are not present in most images
	if lat, lon, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lon
	}

	return meta
}
