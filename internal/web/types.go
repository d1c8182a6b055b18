package web

type NewPartyView struct {
	MinSeconds     int
	MaxSeconds     int
	DefaultSeconds int
	Error          string
}

type JoinView struct {
	PartyID string
	Error   string
}

type GameView struct {
	PartyID    string
	MemberName string
	IsAdmin    bool
	WSPath     string
}

type WikiView struct {
	Title string
	HTML  string
}
