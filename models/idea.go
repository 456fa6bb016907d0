package models

import "time"

// Idea is a date/activity suggestion. Completing one can spawn a Memory,
// in which case MemoryID points at it.
type Idea struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CoupleID    uint   `gorm:"index;not null"`
	CreatedByID uint   `gorm:"not null"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"size:1024"`
	Category    string `gorm:"size:32"`
	Done        bool   `gorm:"default:false;index"`
	DoneAt      *time.Time
	MemoryID    *uint `gorm:"index"`
}
