package db

import "time"

type User struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `gorm:"not null"`
}

type Party struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	TimeLimit int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	Members   []Member  `gorm:"constraint:OnDelete:CASCADE"`
	Rounds    []Round   `gorm:"constraint:OnDelete:CASCADE"`
	Events    []Event   `gorm:"constraint:OnDelete:CASCADE"`
	AdminRole AdminRole `gorm:"constraint:OnDelete:CASCADE"`
}

// AdminRole points at the member who created the party.
type AdminRole struct {
	PartyID  string `gorm:"primaryKey;type:uuid"`
	MemberID uint   `gorm:"not null;uniqueIndex"`
	Member   Member `gorm:"constraint:OnDelete:CASCADE"`
}
