package game

import "time"

// NotSolved is the MemberRound.SolvedAt sentinel for members still racing.
const NotSolved = -1

type User struct {
	ID        string
	CreatedAt time.Time
}

type Party struct {
	ID        string
	TimeLimit int
	CreatedAt time.Time
}

type Member struct {
	ID       uint
	PartyID  string
	UserID   string
	Name     string
	Points   int
	JoinedAt time.Time
}

type Round struct {
	ID        uint
	PartyID   string
	StartPage string
	EndPage   string
	Solution  []string
	StartTime time.Time
	Running   bool
}

type MemberRound struct {
	ID          uint
	RoundID     uint
	MemberID    uint
	CurrentPage string
	SolvedAt    int
}

func (mr MemberRound) Solved() bool {
	return mr.SolvedAt != NotSolved
}

type LeaderboardEntry struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
	Points  int    `json:"points"`
}

// FinishResult is what the party sees when a round ends.
type FinishResult struct {
	Round       Round
	Solution    []string
	Leaderboard []LeaderboardEntry
}

// ClickResult reports the member's confirmed position after a click.
type ClickResult struct {
	Round       Round
	MemberRound MemberRound
	Solved      bool
}

type Event struct {
	PartyID  string
	RoundID  *uint
	MemberID *uint
	Type     string
	Payload  any
}
