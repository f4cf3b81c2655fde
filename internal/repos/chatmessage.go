package repos

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/types"
)

// ChatMessageRepo is the ordered message store. It is implemented on gorm and
// on MongoDB; both order pages by (time DESC, id DESC).
type ChatMessageRepo interface {
	Create(ctx context.Context, msg *types.ChatMessage) (*types.ChatMessage, error)
	GetLatestByRoomID(ctx context.Context, roomID string, limit int) ([]*types.ChatMessage, error)
}

// prepareMessage assigns an ID when missing and normalizes Time.
func prepareMessage(msg *types.ChatMessage) {
	if msg.ID == "" {
		msg.ID = types.NewMessageID(time.Now())
	}
	msg.Time = msg.Time.UTC().Truncate(time.Second)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{
		db:  db,
		log: baseLog.With("repo", "ChatMessageRepo"),
	}
}

func (cmr *chatMessageRepo) Create(ctx context.Context, msg *types.ChatMessage) (*types.ChatMessage, error) {
	prepareMessage(msg)
	if err := cmr.db.WithContext(ctx).Create(msg).Error; err != nil {
		cmr.log.Error("failed to create chat message", "roomID", msg.RoomID, "type", msg.MessageType, "error", err)
		return nil, fmt.Errorf("create chat message: %w", err)
	}
	return msg, nil
}

func (cmr *chatMessageRepo) GetLatestByRoomID(ctx context.Context, roomID string, limit int) ([]*types.ChatMessage, error) {
	var msgs []*types.ChatMessage
	if err := cmr.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("sent_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		cmr.log.Error("failed to get chat messages by roomID", "roomID", roomID, "error", err)
		return nil, fmt.Errorf("get chat messages by room: %w", err)
	}
	return msgs, nil
}
