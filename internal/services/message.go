package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/menjil-org/menjil-backend/internal/errordata"
	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/metrics"
	"github.com/menjil-org/menjil-backend/internal/repos"
	"github.com/menjil-org/menjil-backend/internal/types"
	"github.com/menjil-org/menjil-backend/internal/utils"
)

type TalkRequest struct {
	SenderType     types.SenderType `json:"senderType"`
	SenderNickname string           `json:"senderNickname"`
	Message        string           `json:"message"`
	Time           string           `json:"time"`
}

// MessageService persists plain TALK messages between the two participants.
type MessageService interface {
	SaveTalk(ctx context.Context, roomID string, req TalkRequest) (*types.MessageResponse, error)
}

type messageService struct {
	log          *logger.Logger
	roomRepo     repos.RoomRepo
	messageRepo  repos.ChatMessageRepo
	loc          *time.Location
	storeTimeout time.Duration
}

func NewMessageService(
	log *logger.Logger,
	roomRepo repos.RoomRepo,
	messageRepo repos.ChatMessageRepo,
	loc *time.Location,
	storeTimeout time.Duration,
) MessageService {
	if loc == nil {
		loc = time.UTC
	}
	return &messageService{
		log:          log.With("service", "MessageService"),
		roomRepo:     roomRepo,
		messageRepo:  messageRepo,
		loc:          loc,
		storeTimeout: storeTimeout,
	}
}

func (ms *messageService) SaveTalk(ctx context.Context, roomID string, req TalkRequest) (*types.MessageResponse, error) {
	roomID = strings.TrimSpace(roomID)
	nickname := strings.TrimSpace(req.SenderNickname)
	if roomID == "" || nickname == "" {
		return nil, errordata.InvalidInput("roomId and senderNickname are required")
	}
	if !req.SenderType.Valid() {
		return nil, errordata.InvalidInput("senderType must be MENTEE or MENTOR")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errordata.InvalidInput("message must not be empty")
	}
	sentAt, err := utils.ParseWireTime(req.Time, ms.loc)
	if err != nil {
		return nil, errordata.InvalidTime(err)
	}

	roomCtx, cancel := boundedCall(ctx, ms.storeTimeout)
	room, err := ms.roomRepo.GetByID(roomCtx, nil, roomID)
	cancel()
	if errors.Is(err, repos.ErrRoomNotFound) {
		return nil, errordata.RoomNotFound(err)
	}
	if err != nil {
		return nil, errordata.Persistence(err)
	}
	participant := room.MenteeNickname
	if req.SenderType == types.SenderTypeMentor {
		participant = room.MentorNickname
	}
	if participant != nickname {
		return nil, errordata.Forbidden("sender is not a participant of this room")
	}

	msg := &types.ChatMessage{
		RoomID:         room.ID,
		SenderType:     req.SenderType,
		SenderNickname: nickname,
		Message:        req.Message,
		MessageType:    types.MessageTypeTalk,
		Time:           utils.TruncateToSecond(sentAt),
	}
	saveCtx, cancel := boundedCall(ctx, ms.storeTimeout)
	defer cancel()
	saved, err := ms.messageRepo.Create(saveCtx, msg)
	if err != nil {
		ms.log.Error("failed to persist talk message", "roomID", room.ID, "error", err)
		return nil, errordata.Persistence(err)
	}
	metrics.TalkMessages.Inc()
	resp := types.NewMessageResponse(saved, nil, ms.loc)
	return &resp, nil
}
