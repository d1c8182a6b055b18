package db

import (
	"time"

	"gorm.io/datatypes"
)

type Round struct {
	ID           uint                        `gorm:"primaryKey"`
	PartyID      string                      `gorm:"type:uuid;not null;index:idx_rounds_party_start,priority:1"`
	StartPage    string                      `gorm:"size:255;not null"`
	EndPage      string                      `gorm:"size:255;not null"`
	Solution     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	StartTime    time.Time                   `gorm:"not null;index:idx_rounds_party_start,priority:2"`
	Running      bool                        `gorm:"not null;index"`
	MemberRounds []MemberRound               `gorm:"constraint:OnDelete:CASCADE"`
}

// MemberRound tracks one member inside one round. SolvedAt is -1 until the
// member reaches the end page.
type MemberRound struct {
	ID          uint   `gorm:"primaryKey"`
	RoundID     uint   `gorm:"not null;uniqueIndex:idx_member_rounds_round_member"`
	MemberID    uint   `gorm:"not null;index;uniqueIndex:idx_member_rounds_round_member"`
	CurrentPage string `gorm:"size:255;not null"`
	SolvedAt    int    `gorm:"not null"`
}
