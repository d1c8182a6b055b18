package server

import (
	"context"
	"log"

	"github.com/go-co-op/gocron/v2"
)

// RestoreRunningRounds re-arms timers for rounds that were running when the
// process last stopped. Rounds whose time already ran out are finished.
func (s *Server) RestoreRunningRounds(ctx context.Context) (int, error) {
	rounds, err := s.engine.RunningRounds(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, round := range rounds {
		party, err := s.engine.Party(ctx, round.PartyID)
		if err != nil {
			log.Printf("restore round failed party_id=%s round_id=%d error=%v", round.PartyID, round.ID, err)
			continue
		}
		if s.engine.TimeRanOut(party, round) {
			log.Printf("restore finishing expired round party_id=%s round_id=%d", round.PartyID, round.ID)
			s.finishRound(ctx, round.PartyID, round.ID)
			continue
		}
		remaining := s.roundDeadline(party, round).Sub(s.engine.Now())
		s.scheduleRoundTimer(round.PartyID, round.ID, remaining)
		log.Printf("round restored party_id=%s round_id=%d remaining=%s", round.PartyID, round.ID, remaining)
		restored++
	}
	return restored, nil
}

// SweepExpiredRounds finishes running rounds whose time ran out without
// their timer firing.
func (s *Server) SweepExpiredRounds(ctx context.Context) int {
	rounds, err := s.engine.RunningRounds(ctx)
	if err != nil {
		log.Printf("sweep failed error=%v", err)
		return 0
	}
	finished := 0
	for _, round := range rounds {
		party, err := s.engine.Party(ctx, round.PartyID)
		if err != nil {
			log.Printf("sweep load party failed party_id=%s error=%v", round.PartyID, err)
			continue
		}
		if !s.engine.TimeRanOut(party, round) {
			continue
		}
		log.Printf("sweep finishing expired round party_id=%s round_id=%d", round.PartyID, round.ID)
		s.finishRound(ctx, round.PartyID, round.ID)
		finished++
	}
	return finished
}

// StartSweeper runs SweepExpiredRounds on the configured interval. The
// returned scheduler must be shut down by the caller.
func (s *Server) StartSweeper() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.SweepInterval()),
		gocron.NewTask(func() {
			s.SweepExpiredRounds(context.Background())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	return sched, nil
}
