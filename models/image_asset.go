package models

import "time"

// Image type tags (closed set). Unknown values fall back to TypeLandscape.
const (
	TypeLandscape = "landscape"
	TypeSingle    = "single"
	TypeCouple    = "couple"
)

// ValidImageType reports whether t is one of the known type tags.
func ValidImageType(t string) bool {
	return t == TypeLandscape || t == TypeSingle || t == TypeCouple
}

// ImageAsset is the persisted record for one uploaded photo. The ID is a UUID
// generated at upload time and doubles as the name of the per-asset directory
// under the media root. The four path fields must always reference files that
// exist on disk: the ingestion pipeline writes every file before inserting the
// row and removes every file before deleting it.
type ImageAsset struct {
	ID string `gorm:"primaryKey;size:36"`
	// CreatedAt is set once at insert and never mutated.
	CreatedAt time.Time

	CoupleID   uint  `gorm:"index;not null"`
	UploaderID uint  `gorm:"not null"`
	MemoryID   *uint `gorm:"index"`

	OriginalPath   string `gorm:"size:512;not null"`
	NormalizedPath string `gorm:"size:512;not null"`
	LargePath      string `gorm:"size:512;not null"`
	SmallPath      string `gorm:"size:512;not null"`

	// TakenAt comes from EXIF when available, else the ingestion time.
	TakenAt time.Time `gorm:"not null;index"`
	// Coordinates are nil when absent; absent and zero are distinct states.
	Latitude     *float64 `gorm:"type:decimal(9,6)"`
	Longitude    *float64 `gorm:"type:decimal(9,6)"`
	LocationName string   `gorm:"size:255"`
	Description  string   `gorm:"size:1024"`
	Type         string   `gorm:"size:16;not null;default:landscape"`
}
