// Package game holds the party and round rules: membership, round
// lifecycle, click adjudication, scoring and the leaderboard.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"wiki-race/internal/generator"
	"wiki-race/internal/wiki"

	"github.com/google/uuid"
)

type RoundGenerator interface {
	Generate(ctx context.Context, seed string) (generator.Round, error)
}

type LinkSource interface {
	Links(ctx context.Context, title string, dir wiki.Direction) ([]string, error)
}

type Options struct {
	TimeLimitMin     int
	TimeLimitMax     int
	PointsForSolving int
}

type Engine struct {
	store Store
	gen   RoundGenerator
	links LinkSource
	opts  Options

	locksMu    sync.Mutex
	partyLocks map[string]*partyLock

	clockMu sync.RWMutex
	now     func() time.Time
}

func New(store Store, gen RoundGenerator, links LinkSource, opts Options) *Engine {
	return &Engine{
		store:      store,
		gen:        gen,
		links:      links,
		opts:       opts,
		partyLocks: make(map[string]*partyLock),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for round timing.
func (e *Engine) SetClock(now func() time.Time) {
	e.clockMu.Lock()
	defer e.clockMu.Unlock()
	e.now = now
}

func (e *Engine) Now() time.Time {
	e.clockMu.RLock()
	defer e.clockMu.RUnlock()
	return e.now()
}

func (e *Engine) Options() Options {
	return e.opts
}

// partyLock is dropped from the map once no caller holds or waits on it.
type partyLock struct {
	mu   sync.Mutex
	refs int
}

func (e *Engine) lockParty(partyID string) func() {
	e.locksMu.Lock()
	lock, ok := e.partyLocks[partyID]
	if !ok {
		lock = &partyLock{}
		e.partyLocks[partyID] = lock
	}
	lock.refs++
	e.locksMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		e.locksMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(e.partyLocks, partyID)
		}
		e.locksMu.Unlock()
	}
}

// ResolveUser returns the user with the given id, creating a fresh anonymous
// user when the id is empty or unknown.
func (e *Engine) ResolveUser(ctx context.Context, id string) (User, error) {
	if id != "" {
		user, err := e.store.GetUser(ctx, id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return User{}, err
		}
	}
	user, err := e.store.CreateUser(ctx, User{ID: uuid.NewString(), CreatedAt: e.Now()})
	if err != nil {
		return User{}, err
	}
	log.Printf("user created user_id=%s", user.ID)
	return user, nil
}

func (e *Engine) CreateParty(ctx context.Context, userID, name string, timeLimit int) (Party, Member, error) {
	if timeLimit < e.opts.TimeLimitMin || timeLimit > e.opts.TimeLimitMax {
		return Party{}, Member{}, fmt.Errorf("%w: time limit %d outside [%d, %d]",
			ErrInvalidConfiguration, timeLimit, e.opts.TimeLimitMin, e.opts.TimeLimitMax)
	}
	now := e.Now()
	party, admin, err := e.store.CreateParty(ctx,
		Party{ID: uuid.NewString(), TimeLimit: timeLimit, CreatedAt: now},
		Member{UserID: userID, Name: name, JoinedAt: now},
	)
	if err != nil {
		return Party{}, Member{}, err
	}
	log.Printf("party created party_id=%s admin_member_id=%d time_limit=%d", party.ID, admin.ID, party.TimeLimit)
	e.recordEvent(ctx, Event{PartyID: party.ID, MemberID: &admin.ID, Type: "party_created", Payload: map[string]any{
		"time_limit": party.TimeLimit,
		"name":       admin.Name,
	}})
	return party, admin, nil
}

// JoinParty adds the user to the party. A user who already belongs to the
// party keeps their existing member and name.
func (e *Engine) JoinParty(ctx context.Context, userID, partyID, name string) (Member, error) {
	if _, err := e.store.GetParty(ctx, partyID); err != nil {
		return Member{}, err
	}
	member, created, err := e.store.AddMember(ctx, Member{
		PartyID:  partyID,
		UserID:   userID,
		Name:     name,
		JoinedAt: e.Now(),
	})
	if err != nil {
		return Member{}, err
	}
	if created {
		log.Printf("member joined party_id=%s member_id=%d", partyID, member.ID)
		e.recordEvent(ctx, Event{PartyID: partyID, MemberID: &member.ID, Type: "member_joined", Payload: map[string]any{
			"name": member.Name,
		}})
	}
	return member, nil
}

func (e *Engine) Party(ctx context.Context, partyID string) (Party, error) {
	return e.store.GetParty(ctx, partyID)
}

func (e *Engine) IsAdmin(ctx context.Context, partyID, userID string) (bool, error) {
	member, ok, err := e.GetMember(ctx, partyID, userID)
	if err != nil || !ok {
		return false, err
	}
	adminID, err := e.store.AdminMemberID(ctx, partyID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return adminID == member.ID, nil
}

// GetMember reports ok=false rather than an error when the user is not a
// member of the party.
func (e *Engine) GetMember(ctx context.Context, partyID, userID string) (Member, bool, error) {
	member, err := e.store.FindMember(ctx, partyID, userID)
	if errors.Is(err, ErrNotFound) {
		return Member{}, false, nil
	}
	if err != nil {
		return Member{}, false, err
	}
	return member, true, nil
}

// StartRound generates and stores a new round. The party lock is held
// across generation so concurrent starts cannot both pass the running check.
func (e *Engine) StartRound(ctx context.Context, partyID, userID string) (Round, error) {
	isAdmin, err := e.IsAdmin(ctx, partyID, userID)
	if err != nil {
		return Round{}, err
	}
	if !isAdmin {
		return Round{}, ErrNotAdmin
	}

	unlock := e.lockParty(partyID)
	defer unlock()

	latest, found, err := e.LatestRound(ctx, partyID)
	if err != nil {
		return Round{}, err
	}
	if found && latest.Running {
		return Round{}, ErrConflict
	}

	generated, err := e.gen.Generate(ctx, "")
	if err != nil {
		return Round{}, err
	}
	members, err := e.store.ListMembers(ctx, partyID)
	if err != nil {
		return Round{}, err
	}
	memberIDs := make([]uint, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID)
	}
	round, err := e.store.CreateRound(ctx, Round{
		PartyID:   partyID,
		StartPage: generated.Start,
		EndPage:   generated.End,
		Solution:  generated.Solution,
		StartTime: e.Now(),
		Running:   true,
	}, memberIDs)
	if err != nil {
		return Round{}, err
	}
	log.Printf("round started party_id=%s round_id=%d start=%q end=%q members=%d",
		partyID, round.ID, round.StartPage, round.EndPage, len(memberIDs))
	e.recordEvent(ctx, Event{PartyID: partyID, RoundID: &round.ID, Type: "round_started", Payload: map[string]any{
		"start_page": round.StartPage,
		"end_page":   round.EndPage,
		"solution":   round.Solution,
	}})
	return round, nil
}

// RecordClick moves the member to destination if it is a real link of their
// current page. The member is stored on the link's own title, so encoded or
// underscored spellings of destination land on the same page. The returned
// result always carries the member's confirmed position, including when the
// error is ErrInvalidTransition.
func (e *Engine) RecordClick(ctx context.Context, partyID string, memberID uint, destination string) (ClickResult, error) {
	round, mr, err := e.activeMemberRound(ctx, partyID, memberID)
	if err != nil {
		return ClickResult{Round: round, MemberRound: mr}, err
	}

	target, valid, err := e.resolveLink(ctx, mr.CurrentPage, destination)
	if err != nil {
		return ClickResult{Round: round, MemberRound: mr}, err
	}
	if !valid {
		return ClickResult{Round: round, MemberRound: mr}, ErrInvalidTransition
	}

	unlock := e.lockParty(partyID)
	defer unlock()

	// State may have moved while the link was being checked.
	current, fresh, err := e.activeMemberRound(ctx, partyID, memberID)
	if err != nil {
		return ClickResult{Round: current, MemberRound: fresh}, err
	}
	if current.ID != round.ID || fresh.CurrentPage != mr.CurrentPage {
		return ClickResult{Round: current, MemberRound: fresh}, ErrInvalidTransition
	}

	party, err := e.store.GetParty(ctx, partyID)
	if err != nil {
		return ClickResult{Round: current, MemberRound: fresh}, err
	}
	if e.TimeRanOut(party, current) {
		return ClickResult{Round: current, MemberRound: fresh}, ErrNoActiveRound
	}

	if !CompareTitles(target, current.EndPage) {
		moved, err := e.store.MoveMemberRound(ctx, fresh.ID, target)
		if err != nil {
			return ClickResult{Round: current, MemberRound: fresh}, err
		}
		if !moved {
			return ClickResult{Round: current, MemberRound: fresh}, ErrAlreadySolved
		}
		fresh.CurrentPage = target
		return ClickResult{Round: current, MemberRound: fresh}, nil
	}

	solvedAt := e.SecondsRemaining(party, current)
	points := e.opts.PointsForSolving + solvedAt
	solved, err := e.store.SolveMemberRound(ctx, fresh.ID, target, solvedAt, points)
	if err != nil {
		return ClickResult{Round: current, MemberRound: fresh}, err
	}
	if !solved {
		return ClickResult{Round: current, MemberRound: fresh}, ErrAlreadySolved
	}
	fresh.CurrentPage = target
	fresh.SolvedAt = solvedAt
	log.Printf("member solved party_id=%s round_id=%d member_id=%d solved_at=%d points=%d",
		partyID, current.ID, memberID, solvedAt, points)
	e.recordEvent(ctx, Event{PartyID: partyID, RoundID: &current.ID, MemberID: &memberID, Type: "member_solved", Payload: map[string]any{
		"solved_at": solvedAt,
		"points":    points,
	}})
	return ClickResult{Round: current, MemberRound: fresh, Solved: true}, nil
}

func (e *Engine) activeMemberRound(ctx context.Context, partyID string, memberID uint) (Round, MemberRound, error) {
	round, found, err := e.LatestRound(ctx, partyID)
	if err != nil {
		return Round{}, MemberRound{}, err
	}
	if !found || !round.Running {
		return round, MemberRound{}, ErrNoActiveRound
	}
	mr, err := e.store.GetOrCreateMemberRound(ctx, round, memberID)
	if err != nil {
		return round, MemberRound{}, err
	}
	if mr.Solved() {
		return round, mr, ErrAlreadySolved
	}
	return round, mr, nil
}

// resolveLink returns the title of the link on from that matches to, in the
// spelling the link source uses for it.
func (e *Engine) resolveLink(ctx context.Context, from, to string) (string, bool, error) {
	links, err := e.links.Links(ctx, from, wiki.Forward)
	if errors.Is(err, wiki.ErrPageNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("check link %q -> %q: %w", from, to, err)
	}
	for _, link := range links {
		if CompareTitles(link, to) {
			return link, true, nil
		}
	}
	return "", false, nil
}

// FinishRound ends a running round. Only the caller that actually stops the
// round gets finished=true and a result; later calls are no-ops.
func (e *Engine) FinishRound(ctx context.Context, partyID string, roundID uint) (FinishResult, bool, error) {
	unlock := e.lockParty(partyID)
	defer unlock()

	round, found, err := e.LatestRound(ctx, partyID)
	if err != nil {
		return FinishResult{}, false, err
	}
	if !found || round.ID != roundID {
		return FinishResult{}, false, nil
	}
	flipped, err := e.store.FinishRound(ctx, roundID)
	if err != nil || !flipped {
		return FinishResult{}, false, err
	}
	round.Running = false
	leaderboard, err := e.Leaderboard(ctx, partyID)
	if err != nil {
		return FinishResult{}, true, err
	}
	log.Printf("round finished party_id=%s round_id=%d", partyID, roundID)
	e.recordEvent(ctx, Event{PartyID: partyID, RoundID: &round.ID, Type: "round_finished", Payload: map[string]any{
		"leaderboard": leaderboard,
	}})
	return FinishResult{Round: round, Solution: round.Solution, Leaderboard: leaderboard}, true, nil
}

// SecondsRemaining is the party time limit minus the whole seconds elapsed
// since the round started. It goes negative once time has run out.
func (e *Engine) SecondsRemaining(party Party, round Round) int {
	elapsed := e.Now().Sub(round.StartTime).Seconds()
	return party.TimeLimit - int(math.Floor(elapsed))
}

// TimeRanOut reports a round that is still marked running although its
// time limit has passed.
func (e *Engine) TimeRanOut(party Party, round Round) bool {
	return round.Running && e.SecondsRemaining(party, round) <= 0
}

func (e *Engine) HaveAllSolved(ctx context.Context, roundID uint) (bool, error) {
	unsolved, err := e.store.CountUnsolved(ctx, roundID)
	if err != nil {
		return false, err
	}
	return unsolved == 0, nil
}

// Leaderboard lists members by points, highest first. Ties keep join order.
func (e *Engine) Leaderboard(ctx context.Context, partyID string) ([]LeaderboardEntry, error) {
	members, err := e.store.ListMembers(ctx, partyID)
	if err != nil {
		return nil, err
	}
	adminID, err := e.store.AdminMemberID(ctx, partyID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Points > members[j].Points
	})
	entries := make([]LeaderboardEntry, 0, len(members))
	for _, member := range members {
		entries = append(entries, LeaderboardEntry{
			Name:    member.Name,
			IsAdmin: member.ID == adminID,
			Points:  member.Points,
		})
	}
	return entries, nil
}

func (e *Engine) LatestRound(ctx context.Context, partyID string) (Round, bool, error) {
	round, err := e.store.LatestRound(ctx, partyID)
	if errors.Is(err, ErrNotFound) {
		return Round{}, false, nil
	}
	if err != nil {
		return Round{}, false, err
	}
	return round, true, nil
}

func (e *Engine) MemberRound(ctx context.Context, round Round, memberID uint) (MemberRound, error) {
	return e.store.GetOrCreateMemberRound(ctx, round, memberID)
}

func (e *Engine) RunningRounds(ctx context.Context) ([]Round, error) {
	return e.store.ListRunningRounds(ctx)
}

func (e *Engine) recordEvent(ctx context.Context, event Event) {
	if err := e.store.RecordEvent(ctx, event); err != nil {
		log.Printf("record event failed party_id=%s type=%s error=%v", event.PartyID, event.Type, err)
	}
}
