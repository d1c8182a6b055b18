package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps every entity in process memory. It backs the server
// when no database is configured and is used throughout the tests.
type MemoryStore struct {
	mu           sync.Mutex
	nextMemberID uint
	nextRoundID  uint
	nextMRoundID uint
	users        map[string]User
	parties      map[string]Party
	admins       map[string]uint
	members      map[uint]*Member
	rounds       map[uint]*Round
	memberRounds map[uint]*MemberRound
	events       []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextMemberID: 1,
		nextRoundID:  1,
		nextMRoundID: 1,
		users:        make(map[string]User),
		parties:      make(map[string]Party),
		admins:       make(map[string]uint),
		members:      make(map[uint]*Member),
		rounds:       make(map[uint]*Round),
		memberRounds: make(map[uint]*MemberRound),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return User{}, fmt.Errorf("%w: user %s exists", ErrStorage, user.ID)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) CreateParty(ctx context.Context, party Party, admin Member) (Party, Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parties[party.ID]; ok {
		return Party{}, Member{}, fmt.Errorf("%w: party %s exists", ErrStorage, party.ID)
	}
	if party.CreatedAt.IsZero() {
		party.CreatedAt = time.Now().UTC()
	}
	s.parties[party.ID] = party
	admin.PartyID = party.ID
	stored := s.insertMemberLocked(admin)
	s.admins[party.ID] = stored.ID
	return party, stored, nil
}

func (s *MemoryStore) GetParty(ctx context.Context, id string) (Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	party, ok := s.parties[id]
	if !ok {
		return Party{}, ErrNotFound
	}
	return party, nil
}

func (s *MemoryStore) AdminMemberID(ctx context.Context, partyID string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.admins[partyID]
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

func (s *MemoryStore) AddMember(ctx context.Context, member Member) (Member, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parties[member.PartyID]; !ok {
		return Member{}, false, ErrNotFound
	}
	if existing, ok := s.findMemberLocked(member.PartyID, member.UserID); ok {
		return *existing, false, nil
	}
	return s.insertMemberLocked(member), true, nil
}

func (s *MemoryStore) insertMemberLocked(member Member) Member {
	member.ID = s.nextMemberID
	s.nextMemberID++
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	stored := member
	s.members[member.ID] = &stored
	return member
}

func (s *MemoryStore) findMemberLocked(partyID, userID string) (*Member, bool) {
	for _, member := range s.members {
		if member.PartyID == partyID && member.UserID == userID {
			return member, true
		}
	}
	return nil, false
}

func (s *MemoryStore) FindMember(ctx context.Context, partyID, userID string) (Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.findMemberLocked(partyID, userID)
	if !ok {
		return Member{}, ErrNotFound
	}
	return *member, nil
}

func (s *MemoryStore) ListMembers(ctx context.Context, partyID string) ([]Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Member, 0)
	for _, member := range s.members {
		if member.PartyID == partyID {
			list = append(list, *member)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) CreateRound(ctx context.Context, round Round, memberIDs []uint) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parties[round.PartyID]; !ok {
		return Round{}, ErrNotFound
	}
	round.ID = s.nextRoundID
	s.nextRoundID++
	round.Solution = append([]string(nil), round.Solution...)
	stored := round
	s.rounds[round.ID] = &stored
	for _, memberID := range memberIDs {
		s.insertMemberRoundLocked(round, memberID)
	}
	return round, nil
}

func (s *MemoryStore) LatestRound(ctx context.Context, partyID string) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *Round
	for _, round := range s.rounds {
		if round.PartyID != partyID {
			continue
		}
		if latest == nil || round.StartTime.After(latest.StartTime) ||
			(round.StartTime.Equal(latest.StartTime) && round.ID > latest.ID) {
			latest = round
		}
	}
	if latest == nil {
		return Round{}, ErrNotFound
	}
	return copyRound(latest), nil
}

func (s *MemoryStore) ListRunningRounds(ctx context.Context) ([]Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Round, 0)
	for _, round := range s.rounds {
		if round.Running {
			list = append(list, copyRound(round))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) FinishRound(ctx context.Context, roundID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return false, ErrNotFound
	}
	if !round.Running {
		return false, nil
	}
	round.Running = false
	return true, nil
}

func (s *MemoryStore) GetOrCreateMemberRound(ctx context.Context, round Round, memberID uint) (MemberRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mr := range s.memberRounds {
		if mr.RoundID == round.ID && mr.MemberID == memberID {
			return *mr, nil
		}
	}
	if _, ok := s.rounds[round.ID]; !ok {
		return MemberRound{}, ErrNotFound
	}
	return s.insertMemberRoundLocked(round, memberID), nil
}

func (s *MemoryStore) insertMemberRoundLocked(round Round, memberID uint) MemberRound {
	mr := MemberRound{
		ID:          s.nextMRoundID,
		RoundID:     round.ID,
		MemberID:    memberID,
		CurrentPage: round.StartPage,
		SolvedAt:    NotSolved,
	}
	s.nextMRoundID++
	stored := mr
	s.memberRounds[mr.ID] = &stored
	return mr
}

func (s *MemoryStore) GetMemberRound(ctx context.Context, id uint) (MemberRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mr, ok := s.memberRounds[id]
	if !ok {
		return MemberRound{}, ErrNotFound
	}
	return *mr, nil
}

func (s *MemoryStore) MoveMemberRound(ctx context.Context, id uint, page string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mr, ok := s.memberRounds[id]
	if !ok {
		return false, ErrNotFound
	}
	if mr.Solved() {
		return false, nil
	}
	mr.CurrentPage = page
	return true, nil
}

func (s *MemoryStore) SolveMemberRound(ctx context.Context, id uint, page string, solvedAt, points int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mr, ok := s.memberRounds[id]
	if !ok {
		return false, ErrNotFound
	}
	if mr.Solved() {
		return false, nil
	}
	member, ok := s.members[mr.MemberID]
	if !ok {
		return false, ErrNotFound
	}
	mr.CurrentPage = page
	mr.SolvedAt = solvedAt
	member.Points += points
	return true, nil
}

func (s *MemoryStore) CountUnsolved(ctx context.Context, roundID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, mr := range s.memberRounds {
		if mr.RoundID == roundID && !mr.Solved() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) RecordEvent(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the recorded event log.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func copyRound(round *Round) Round {
	out := *round
	out.Solution = append([]string(nil), round.Solution...)
	return out
}
