package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"wiki-race/internal/game"
	"wiki-race/internal/generator"
)

// session is one member's websocket connection to a party.
type session struct {
	ctx     context.Context
	conn    *wsConn
	partyID string
	userID  string
	member  game.Member
	isAdmin bool
}

// action is the closed set of client requests.
type action interface {
	isAction()
}

type newRoundAction struct{}

type clickAction struct {
	Destination    string
	HasDestination bool
}

type finishEarlyAction struct{}

type unknownAction struct {
	Type string
}

func (newRoundAction) isAction()    {}
func (clickAction) isAction()       {}
func (finishEarlyAction) isAction() {}
func (unknownAction) isAction()     {}

type inboundFrame struct {
	Type        string  `json:"type"`
	Destination *string `json:"destination"`
}

// decodeAction never fails: frames that cannot be understood become
// unknownAction and are answered with "notfound".
func decodeAction(payload []byte) action {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return unknownAction{}
	}
	switch frame.Type {
	case msgNewRound:
		return newRoundAction{}
	case "click":
		if frame.Destination == nil {
			return clickAction{}
		}
		return clickAction{Destination: *frame.Destination, HasDestination: true}
	case "finish_early":
		return finishEarlyAction{}
	default:
		return unknownAction{Type: frame.Type}
	}
}

func (s *Server) dispatch(sess *session, act action) {
	switch a := act.(type) {
	case newRoundAction:
		s.handleNewRound(sess)
	case clickAction:
		s.handleClick(sess, a)
	case finishEarlyAction:
		s.handleFinishEarly(sess)
	case unknownAction:
		s.sendError(sess, errCodeNotFound)
	}
}

func (s *Server) handleNewRound(sess *session) {
	if !sess.isAdmin {
		s.sendError(sess, errCodeNotAdmin)
		return
	}
	round, err := s.engine.StartRound(sess.ctx, sess.partyID, sess.userID)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrConflict):
			s.sendError(sess, errCodeRoundRunning)
		case errors.Is(err, game.ErrNotAdmin):
			s.sendError(sess, errCodeNotAdmin)
		case errors.Is(err, generator.ErrRoundGenerationFailed):
			log.Printf("round generation failed party_id=%s error=%v", sess.partyID, err)
			s.sendError(sess, errCodeGenerationFailed)
		default:
			log.Printf("start round failed party_id=%s error=%v", sess.partyID, err)
			s.sendError(sess, errCodeInternal)
		}
		return
	}
	party, err := s.engine.Party(sess.ctx, sess.partyID)
	if err != nil {
		log.Printf("load party failed party_id=%s error=%v", sess.partyID, err)
		s.sendError(sess, errCodeInternal)
		return
	}
	s.ws.Broadcast(sess.partyID, message(msgNewRound, newRoundData{
		StartPage: round.StartPage,
		EndPage:   round.EndPage,
		TimeLimit: party.TimeLimit,
	}))
	s.scheduleRoundTimer(sess.partyID, round.ID, s.roundDeadline(party, round).Sub(s.engine.Now()))
}

func (s *Server) handleClick(sess *session, act clickAction) {
	if !act.HasDestination {
		s.sendError(sess, errCodeNoDestination)
		return
	}
	result, err := s.engine.RecordClick(sess.ctx, sess.partyID, sess.member.ID, act.Destination)
	switch {
	case err == nil:
	case errors.Is(err, game.ErrInvalidTransition):
		s.send(sess, message(msgForceRedirect, redirectData{Page: result.MemberRound.CurrentPage}))
		return
	case errors.Is(err, game.ErrAlreadySolved):
		s.sendError(sess, errCodeAlreadySolved)
		return
	case errors.Is(err, game.ErrNoActiveRound):
		s.sendError(sess, errCodeNoActiveRound)
		if result.Round.Running {
			s.finishIfExpired(sess.ctx, result.Round)
		}
		return
	default:
		log.Printf("click failed party_id=%s member_id=%d error=%v", sess.partyID, sess.member.ID, err)
		s.sendError(sess, errCodeInternal)
		return
	}
	if !result.Solved {
		return
	}
	s.broadcastLeaderboard(sess.ctx, sess.partyID)
	s.send(sess, message(msgSolved, nil))
	allSolved, err := s.engine.HaveAllSolved(sess.ctx, result.Round.ID)
	if err != nil {
		log.Printf("solved check failed party_id=%s round_id=%d error=%v", sess.partyID, result.Round.ID, err)
		return
	}
	if allSolved {
		s.finishRound(sess.ctx, sess.partyID, result.Round.ID)
	}
}

func (s *Server) handleFinishEarly(sess *session) {
	if !sess.isAdmin {
		s.sendError(sess, errCodeNotAdmin)
		return
	}
	round, found, err := s.engine.LatestRound(sess.ctx, sess.partyID)
	if err != nil {
		log.Printf("finish early failed party_id=%s error=%v", sess.partyID, err)
		s.sendError(sess, errCodeInternal)
		return
	}
	if !found {
		s.sendError(sess, errCodeNoActiveRound)
		return
	}
	s.finishRound(sess.ctx, sess.partyID, round.ID)
}

// recoverSession replays the running round to a freshly connected member.
func (s *Server) recoverSession(sess *session) {
	round, found, err := s.engine.LatestRound(sess.ctx, sess.partyID)
	if err != nil {
		log.Printf("recovery failed party_id=%s error=%v", sess.partyID, err)
		return
	}
	if !found || !round.Running {
		return
	}
	party, err := s.engine.Party(sess.ctx, sess.partyID)
	if err != nil {
		log.Printf("recovery failed party_id=%s error=%v", sess.partyID, err)
		return
	}
	if s.engine.TimeRanOut(party, round) {
		log.Printf("round finished after deadline party_id=%s round_id=%d", sess.partyID, round.ID)
		s.finishRound(sess.ctx, sess.partyID, round.ID)
		return
	}
	mr, err := s.engine.MemberRound(sess.ctx, round, sess.member.ID)
	if err != nil {
		log.Printf("recovery failed party_id=%s member_id=%d error=%v", sess.partyID, sess.member.ID, err)
		return
	}
	s.send(sess, message(msgNewRound, newRoundData{
		StartPage: round.StartPage,
		EndPage:   round.EndPage,
		TimeLimit: s.engine.SecondsRemaining(party, round),
	}))
	s.send(sess, message(msgForceRedirect, redirectData{Page: mr.CurrentPage}))
	if mr.Solved() {
		s.send(sess, message(msgSolved, nil))
	}
}

// finishRound stops the round and announces it. Only the call that actually
// stops the round broadcasts, so round_finished goes out once per round.
func (s *Server) finishRound(ctx context.Context, partyID string, roundID uint) {
	result, finished, err := s.engine.FinishRound(ctx, partyID, roundID)
	if err != nil {
		log.Printf("finish round failed party_id=%s round_id=%d error=%v", partyID, roundID, err)
	}
	if !finished {
		return
	}
	s.cancelRoundTimer(partyID, roundID)
	leaderboard := result.Leaderboard
	if leaderboard == nil {
		leaderboard = []game.LeaderboardEntry{}
	}
	s.ws.Broadcast(partyID, message(msgRoundFinished, roundFinishedData{
		Solution:     result.Solution,
		Leaderboards: leaderboard,
	}))
}

func (s *Server) finishIfExpired(ctx context.Context, round game.Round) {
	party, err := s.engine.Party(ctx, round.PartyID)
	if err != nil {
		log.Printf("load party failed party_id=%s error=%v", round.PartyID, err)
		return
	}
	if s.engine.TimeRanOut(party, round) {
		s.finishRound(ctx, round.PartyID, round.ID)
	}
}

func (s *Server) broadcastLeaderboard(ctx context.Context, partyID string) {
	leaderboard, err := s.engine.Leaderboard(ctx, partyID)
	if err != nil {
		log.Printf("leaderboard failed party_id=%s error=%v", partyID, err)
		return
	}
	s.ws.Broadcast(partyID, message(msgLeaderboardUpdate, leaderboardData{Leaderboards: leaderboard}))
}

func (s *Server) send(sess *session, payload any) {
	s.ws.Send(sess.conn, payload)
}

func (s *Server) sendError(sess *session, code string) {
	s.ws.Send(sess.conn, wsError{Error: code})
}
