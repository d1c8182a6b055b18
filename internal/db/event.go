package db

import (
	"time"

	"gorm.io/datatypes"
)

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	PartyID   string         `gorm:"type:uuid;index;not null"`
	RoundID   *uint          `gorm:"index"`
	MemberID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

// SeedPage is a curated article the round generator may start walking from.
type SeedPage struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:255;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
