package models

import "time"

// Couple is the tenant unit: two users sharing memories, ideas and photos.
// Pairing happens through the invite code generated at creation.
type Couple struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Name       string `gorm:"size:255;not null"`
	InviteCode string `gorm:"size:16;uniqueIndex;not null"`
	// Anniversary is optional; shown on the dashboard when set.
	Anniversary *time.Time
	Users       []User       `gorm:"foreignKey:CoupleID"`
	Memories    []Memory     `gorm:"foreignKey:CoupleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Ideas       []Idea       `gorm:"foreignKey:CoupleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Photos      []ImageAsset `gorm:"foreignKey:CoupleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
