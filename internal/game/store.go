package game

import "context"

// Store persists session entities. Lookups of absent rows return ErrNotFound;
// backend failures are wrapped with ErrStorage.
type Store interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)

	// CreateParty stores the party, its admin member and the admin role
	// together.
	CreateParty(ctx context.Context, party Party, admin Member) (Party, Member, error)
	GetParty(ctx context.Context, id string) (Party, error)
	AdminMemberID(ctx context.Context, partyID string) (uint, error)

	// AddMember returns the existing member when the user already belongs
	// to the party; created reports whether a row was inserted.
	AddMember(ctx context.Context, member Member) (stored Member, created bool, err error)
	FindMember(ctx context.Context, partyID, userID string) (Member, error)
	// ListMembers returns members in join order.
	ListMembers(ctx context.Context, partyID string) ([]Member, error)

	// CreateRound stores the round plus one member round per member id,
	// each positioned on the start page.
	CreateRound(ctx context.Context, round Round, memberIDs []uint) (Round, error)
	LatestRound(ctx context.Context, partyID string) (Round, error)
	ListRunningRounds(ctx context.Context) ([]Round, error)
	// FinishRound flips running from true to false and reports whether this
	// call did the flip.
	FinishRound(ctx context.Context, roundID uint) (bool, error)

	GetOrCreateMemberRound(ctx context.Context, round Round, memberID uint) (MemberRound, error)
	GetMemberRound(ctx context.Context, id uint) (MemberRound, error)
	// MoveMemberRound updates the position of an unsolved member round.
	MoveMemberRound(ctx context.Context, id uint, page string) (bool, error)
	// SolveMemberRound marks an unsolved member round solved and adds points
	// to its member in one transaction.
	SolveMemberRound(ctx context.Context, id uint, page string, solvedAt, points int) (bool, error)
	CountUnsolved(ctx context.Context, roundID uint) (int64, error)

	RecordEvent(ctx context.Context, event Event) error
}
