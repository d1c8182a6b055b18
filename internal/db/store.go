package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wiki-race/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements game.Store on top of Postgres.
type Store struct {
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.conn.WithContext(ctx)
}

func (s *Store) CreateUser(ctx context.Context, user game.User) (game.User, error) {
	record := User{ID: user.ID, CreatedAt: user.CreatedAt}
	if err := s.db(ctx).Create(&record).Error; err != nil {
		return game.User{}, storageError(err)
	}
	return game.User{ID: record.ID, CreatedAt: record.CreatedAt}, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (game.User, error) {
	var record User
	if err := s.db(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return game.User{}, storageError(err)
	}
	return game.User{ID: record.ID, CreatedAt: record.CreatedAt}, nil
}

func (s *Store) CreateParty(ctx context.Context, party game.Party, admin game.Member) (game.Party, game.Member, error) {
	partyRecord := Party{ID: party.ID, TimeLimit: party.TimeLimit, CreatedAt: party.CreatedAt}
	memberRecord := Member{
		PartyID:  party.ID,
		UserID:   admin.UserID,
		Name:     admin.Name,
		JoinedAt: admin.JoinedAt,
	}
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Rounds", "Events", "AdminRole").Create(&partyRecord).Error; err != nil {
			return err
		}
		if err := tx.Omit("User", "MemberRounds").Create(&memberRecord).Error; err != nil {
			return err
		}
		role := AdminRole{PartyID: partyRecord.ID, MemberID: memberRecord.ID}
		return tx.Omit("Member").Create(&role).Error
	})
	if err != nil {
		return game.Party{}, game.Member{}, storageError(err)
	}
	return toParty(partyRecord), toMember(memberRecord), nil
}

func (s *Store) GetParty(ctx context.Context, id string) (game.Party, error) {
	var record Party
	if err := s.db(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return game.Party{}, storageError(err)
	}
	return toParty(record), nil
}

func (s *Store) AdminMemberID(ctx context.Context, partyID string) (uint, error) {
	var role AdminRole
	if err := s.db(ctx).Where("party_id = ?", partyID).First(&role).Error; err != nil {
		return 0, storageError(err)
	}
	return role.MemberID, nil
}

func (s *Store) AddMember(ctx context.Context, member game.Member) (game.Member, bool, error) {
	record := Member{
		PartyID:  member.PartyID,
		UserID:   member.UserID,
		Name:     member.Name,
		JoinedAt: member.JoinedAt,
	}
	if err := s.db(ctx).Omit("User", "MemberRounds").Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.FindMember(ctx, member.PartyID, member.UserID)
			if lookupErr != nil {
				return game.Member{}, false, lookupErr
			}
			return existing, false, nil
		}
		if isForeignKeyViolation(err) {
			return game.Member{}, false, game.ErrNotFound
		}
		return game.Member{}, false, storageError(err)
	}
	return toMember(record), true, nil
}

func (s *Store) FindMember(ctx context.Context, partyID, userID string) (game.Member, error) {
	var record Member
	if err := s.db(ctx).Where("party_id = ? AND user_id = ?", partyID, userID).First(&record).Error; err != nil {
		return game.Member{}, storageError(err)
	}
	return toMember(record), nil
}

func (s *Store) ListMembers(ctx context.Context, partyID string) ([]game.Member, error) {
	var records []Member
	if err := s.db(ctx).Where("party_id = ?", partyID).Order("id asc").Find(&records).Error; err != nil {
		return nil, storageError(err)
	}
	members := make([]game.Member, 0, len(records))
	for _, record := range records {
		members = append(members, toMember(record))
	}
	return members, nil
}

func (s *Store) CreateRound(ctx context.Context, round game.Round, memberIDs []uint) (game.Round, error) {
	record := Round{
		PartyID:   round.PartyID,
		StartPage: round.StartPage,
		EndPage:   round.EndPage,
		Solution:  datatypes.JSONSlice[string](round.Solution),
		StartTime: round.StartTime,
		Running:   round.Running,
	}
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("MemberRounds").Create(&record).Error; err != nil {
			return err
		}
		if len(memberIDs) == 0 {
			return nil
		}
		rows := make([]MemberRound, 0, len(memberIDs))
		for _, memberID := range memberIDs {
			rows = append(rows, MemberRound{
				RoundID:     record.ID,
				MemberID:    memberID,
				CurrentPage: record.StartPage,
				SolvedAt:    game.NotSolved,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return game.Round{}, storageError(err)
	}
	return toRound(record), nil
}

func (s *Store) LatestRound(ctx context.Context, partyID string) (game.Round, error) {
	var record Round
	err := s.db(ctx).
		Where("party_id = ?", partyID).
		Order("start_time desc").
		Order("id desc").
		First(&record).Error
	if err != nil {
		return game.Round{}, storageError(err)
	}
	return toRound(record), nil
}

func (s *Store) ListRunningRounds(ctx context.Context) ([]game.Round, error) {
	var records []Round
	if err := s.db(ctx).Where("running = ?", true).Order("id asc").Find(&records).Error; err != nil {
		return nil, storageError(err)
	}
	rounds := make([]game.Round, 0, len(records))
	for _, record := range records {
		rounds = append(rounds, toRound(record))
	}
	return rounds, nil
}

func (s *Store) FinishRound(ctx context.Context, roundID uint) (bool, error) {
	result := s.db(ctx).Model(&Round{}).
		Where("id = ? AND running = ?", roundID, true).
		Update("running", false)
	if result.Error != nil {
		return false, storageError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) GetOrCreateMemberRound(ctx context.Context, round game.Round, memberID uint) (game.MemberRound, error) {
	var record MemberRound
	err := s.db(ctx).
		Where(MemberRound{RoundID: round.ID, MemberID: memberID}).
		Attrs(MemberRound{CurrentPage: round.StartPage, SolvedAt: game.NotSolved}).
		FirstOrCreate(&record).Error
	if err != nil && isUniqueViolation(err) {
		// Lost a create race with another connection of the same member.
		err = s.db(ctx).Where("round_id = ? AND member_id = ?", round.ID, memberID).First(&record).Error
	}
	if err != nil {
		return game.MemberRound{}, storageError(err)
	}
	return toMemberRound(record), nil
}

func (s *Store) GetMemberRound(ctx context.Context, id uint) (game.MemberRound, error) {
	var record MemberRound
	if err := s.db(ctx).First(&record, id).Error; err != nil {
		return game.MemberRound{}, storageError(err)
	}
	return toMemberRound(record), nil
}

func (s *Store) MoveMemberRound(ctx context.Context, id uint, page string) (bool, error) {
	result := s.db(ctx).Model(&MemberRound{}).
		Where("id = ? AND solved_at = ?", id, game.NotSolved).
		Update("current_page", page)
	if result.Error != nil {
		return false, storageError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) SolveMemberRound(ctx context.Context, id uint, page string, solvedAt, points int) (bool, error) {
	solved := false
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var record MemberRound
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "member_id").
			First(&record, id).Error; err != nil {
			return err
		}
		result := tx.Model(&MemberRound{}).
			Where("id = ? AND solved_at = ?", id, game.NotSolved).
			Updates(map[string]any{"current_page": page, "solved_at": solvedAt})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := tx.Model(&Member{}).
			Where("id = ?", record.MemberID).
			Update("points", gorm.Expr("points + ?", points)).Error; err != nil {
			return err
		}
		solved = true
		return nil
	})
	if err != nil {
		return false, storageError(err)
	}
	return solved, nil
}

func (s *Store) CountUnsolved(ctx context.Context, roundID uint) (int64, error) {
	var count int64
	err := s.db(ctx).Model(&MemberRound{}).
		Where("round_id = ? AND solved_at = ?", roundID, game.NotSolved).
		Count(&count).Error
	if err != nil {
		return 0, storageError(err)
	}
	return count, nil
}

func (s *Store) RecordEvent(ctx context.Context, event game.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	record := Event{
		PartyID:  event.PartyID,
		RoundID:  event.RoundID,
		MemberID: event.MemberID,
		Type:     event.Type,
		Payload:  datatypes.JSON(payload),
	}
	if err := s.db(ctx).Create(&record).Error; err != nil {
		return storageError(err)
	}
	return nil
}

func storageError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.ErrNotFound
	}
	return fmt.Errorf("%w: %w", game.ErrStorage, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

func toParty(record Party) game.Party {
	return game.Party{ID: record.ID, TimeLimit: record.TimeLimit, CreatedAt: record.CreatedAt}
}

func toMember(record Member) game.Member {
	return game.Member{
		ID:       record.ID,
		PartyID:  record.PartyID,
		UserID:   record.UserID,
		Name:     record.Name,
		Points:   record.Points,
		JoinedAt: record.JoinedAt,
	}
}

func toRound(record Round) game.Round {
	return game.Round{
		ID:        record.ID,
		PartyID:   record.PartyID,
		StartPage: record.StartPage,
		EndPage:   record.EndPage,
		Solution:  []string(record.Solution),
		StartTime: record.StartTime,
		Running:   record.Running,
	}
}

func toMemberRound(record MemberRound) game.MemberRound {
	return game.MemberRound{
		ID:          record.ID,
		RoundID:     record.RoundID,
		MemberID:    record.MemberID,
		CurrentPage: record.CurrentPage,
		SolvedAt:    record.SolvedAt,
	}
}
