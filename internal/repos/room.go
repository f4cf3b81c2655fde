package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/types"
)

var ErrRoomNotFound = errors.New("room not found")

type RoomRepo interface {
	FindOrCreate(ctx context.Context, tx *gorm.DB, menteeNickname, mentorNickname string) (*types.Room, bool, error)
	GetByID(ctx context.Context, tx *gorm.DB, roomID string) (*types.Room, error)
	FindMentorNickname(ctx context.Context, tx *gorm.DB, roomID, menteeNickname string) (string, error)
	GetByMentee(ctx context.Context, tx *gorm.DB, menteeNickname string) ([]*types.Room, error)
	GetByMentor(ctx context.Context, tx *gorm.DB, mentorNickname string) ([]*types.Room, error)
}

type roomRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoomRepo(db *gorm.DB, baseLog *logger.Logger) RoomRepo {
	return &roomRepo{
		db:  db,
		log: baseLog.With("repo", "RoomRepo"),
	}
}

// FindOrCreate returns the room for the pair, creating it when absent. The
// unique (mentee, mentor) index decides concurrent creations: exactly one
// insert wins and every loser re-reads the winner's row. The bool reports
// whether this call created the room.
func (rr *roomRepo) FindOrCreate(ctx context.Context, tx *gorm.DB, menteeNickname, mentorNickname string) (*types.Room, bool, error) {
	if tx == nil {
		tx = rr.db
	}
	existing, err := rr.findByPair(ctx, tx, menteeNickname, mentorNickname)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrRoomNotFound) {
		return nil, false, err
	}

	candidate := &types.Room{
		ID:             uuid.NewString(),
		MenteeNickname: menteeNickname,
		MentorNickname: mentorNickname,
		CreatedAt:      time.Now().UTC(),
	}
	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(candidate)
	if res.Error != nil {
		rr.log.Error("failed to create room", "mentee", menteeNickname, "mentor", mentorNickname, "error", res.Error)
		return nil, false, fmt.Errorf("create room: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return candidate, true, nil
	}

	rr.log.Debug("room created concurrently, re-reading", "mentee", menteeNickname, "mentor", mentorNickname)
	winner, err := rr.findByPair(ctx, tx, menteeNickname, mentorNickname)
	if err != nil {
		return nil, false, err
	}
	return winner, false, nil
}

func (rr *roomRepo) findByPair(ctx context.Context, tx *gorm.DB, menteeNickname, mentorNickname string) (*types.Room, error) {
	var room types.Room
	err := tx.WithContext(ctx).
		Where("mentee_nickname = ? AND mentor_nickname = ?", menteeNickname, mentorNickname).
		Take(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room by pair: %w", err)
	}
	return &room, nil
}

func (rr *roomRepo) GetByID(ctx context.Context, tx *gorm.DB, roomID string) (*types.Room, error) {
	if tx == nil {
		tx = rr.db
	}
	var room types.Room
	err := tx.WithContext(ctx).
		Where("room_id = ?", roomID).
		Take(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room by id: %w", err)
	}
	return &room, nil
}

func (rr *roomRepo) FindMentorNickname(ctx context.Context, tx *gorm.DB, roomID, menteeNickname string) (string, error) {
	if tx == nil {
		tx = rr.db
	}
	var room types.Room
	err := tx.WithContext(ctx).
		Where("room_id = ? AND mentee_nickname = ?", roomID, menteeNickname).
		Take(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrRoomNotFound
	}
	if err != nil {
		rr.log.Error("failed to find mentor nickname", "roomID", roomID, "error", err)
		return "", fmt.Errorf("find mentor nickname: %w", err)
	}
	return room.MentorNickname, nil
}

func (rr *roomRepo) GetByMentee(ctx context.Context, tx *gorm.DB, menteeNickname string) ([]*types.Room, error) {
	return rr.getBy(ctx, tx, "mentee_nickname", menteeNickname)
}

func (rr *roomRepo) GetByMentor(ctx context.Context, tx *gorm.DB, mentorNickname string) ([]*types.Room, error) {
	return rr.getBy(ctx, tx, "mentor_nickname", mentorNickname)
}

func (rr *roomRepo) getBy(ctx context.Context, tx *gorm.DB, column, nickname string) ([]*types.Room, error) {
	if tx == nil {
		tx = rr.db
	}
	var rooms []*types.Room
	if err := tx.WithContext(ctx).
		Where(column+" = ?", nickname).
		Order("created_at ASC").
		Find(&rooms).Error; err != nil {
		rr.log.Error("failed to list rooms", "column", column, "error", err)
		return nil, fmt.Errorf("list rooms by %s: %w", column, err)
	}
	return rooms, nil
}
