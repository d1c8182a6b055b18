package db

import "time"

type Member struct {
	ID           uint          `gorm:"primaryKey"`
	PartyID      string        `gorm:"type:uuid;not null;uniqueIndex:idx_members_party_user"`
	UserID       string        `gorm:"type:uuid;not null;index;uniqueIndex:idx_members_party_user"`
	Name         string        `gorm:"size:100;not null"`
	Points       int           `gorm:"not null;default:0"`
	JoinedAt     time.Time     `gorm:"not null"`
	CreatedAt    time.Time     `gorm:"not null"`
	UpdatedAt    time.Time     `gorm:"not null"`
	User         User          `gorm:"constraint:OnDelete:CASCADE"`
	MemberRounds []MemberRound `gorm:"constraint:OnDelete:CASCADE"`
}
