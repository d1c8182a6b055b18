package server

import "wiki-race/internal/game"

// Outbound frame types.
const (
	msgNewRound          = "new_round"
	msgForceRedirect     = "force_redirect"
	msgSolved            = "solved"
	msgLeaderboardUpdate = "leaderboard_update"
	msgRoundFinished     = "round_finished"
)

// Error codes sent as {"error": code}.
const (
	errCodeNotFound         = "notfound"
	errCodeNotAdmin         = "not admin"
	errCodeRoundRunning     = "another round is running"
	errCodeNoActiveRound    = "no active round"
	errCodeAlreadySolved    = "already solved"
	errCodeNoDestination    = "no destination"
	errCodeGenerationFailed = "round generation failed"
	errCodeInternal         = "internal error"
)

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type wsError struct {
	Error string `json:"error"`
}

type newRoundData struct {
	StartPage string `json:"start_page"`
	EndPage   string `json:"end_page"`
	TimeLimit int    `json:"time_limit"`
}

type redirectData struct {
	Page string `json:"page"`
}

type leaderboardData struct {
	Leaderboards []game.LeaderboardEntry `json:"leaderboards"`
}

type roundFinishedData struct {
	Solution     []string                `json:"solution"`
	Leaderboards []game.LeaderboardEntry `json:"leaderboards"`
}

func message(msgType string, data any) wsMessage {
	if data == nil {
		data = struct{}{}
	}
	return wsMessage{Type: msgType, Data: data}
}
