package server

import (
	"context"
	"log"
	"time"
)

type roundTimer struct {
	timer   *time.Timer
	roundID uint
}

// scheduleRoundTimer finishes roundID after d. A party has at most one
// timer; scheduling replaces the previous one.
func (s *Server) scheduleRoundTimer(partyID string, roundID uint, d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if existing, ok := s.timers[partyID]; ok {
		existing.timer.Stop()
	}
	timer := time.AfterFunc(d, func() {
		s.autoFinishRound(partyID, roundID)
	})
	s.timers[partyID] = roundTimer{timer: timer, roundID: roundID}
}

// cancelRoundTimer stops the party's timer if it still belongs to roundID.
func (s *Server) cancelRoundTimer(partyID string, roundID uint) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if existing, ok := s.timers[partyID]; ok && existing.roundID == roundID {
		existing.timer.Stop()
		delete(s.timers, partyID)
	}
}

func (s *Server) hasRoundTimer(partyID string) bool {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	_, ok := s.timers[partyID]
	return ok
}

// Stop cancels every pending round timer.
func (s *Server) Stop() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for partyID, existing := range s.timers {
		existing.timer.Stop()
		delete(s.timers, partyID)
	}
}

func (s *Server) autoFinishRound(partyID string, roundID uint) {
	s.timersMu.Lock()
	if existing, ok := s.timers[partyID]; ok && existing.roundID == roundID {
		delete(s.timers, partyID)
	}
	s.timersMu.Unlock()

	log.Printf("round timer fired party_id=%s round_id=%d", partyID, roundID)
	s.finishRound(context.Background(), partyID, roundID)
}
