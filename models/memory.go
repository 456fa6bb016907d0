package models

import "time"

// Memory kinds (closed set).
const (
	MemoryKindTrip   = "trip"
	MemoryKindEvent  = "event"
	MemoryKindMoment = "moment"
)

// ValidMemoryKind reports whether k is one of the known memory kinds.
func ValidMemoryKind(k string) bool {
	return k == MemoryKindTrip || k == MemoryKindEvent || k == MemoryKindMoment
}

// Memory groups photos around a trip, an event or a simple moment.
type Memory struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time `gorm:"index"`
	CoupleID    uint       `gorm:"index;not null"`
	CreatedByID uint       `gorm:"not null"`
	Title       string     `gorm:"size:255;not null"`
	Description string     `gorm:"size:1024"`
	Kind        string     `gorm:"size:16;not null;default:moment"`
	StartDate   time.Time  `gorm:"not null"`
	// EndDate is nil for single-day moments/events.
	EndDate      *time.Time
	LocationName string       `gorm:"size:255"`
	Latitude     *float64     `gorm:"type:decimal(9,6)"`
	Longitude    *float64     `gorm:"type:decimal(9,6)"`
	Photos       []ImageAsset `gorm:"foreignKey:MemoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}
