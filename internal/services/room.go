package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/menjil-org/menjil-backend/internal/errordata"
	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/metrics"
	"github.com/menjil-org/menjil-backend/internal/repos"
	"github.com/menjil-org/menjil-backend/internal/templates"
	"github.com/menjil-org/menjil-backend/internal/types"
	"github.com/menjil-org/menjil-backend/internal/utils"
)

// HistoryPageSize is how many of the most recent messages are replayed on room entry.
const HistoryPageSize = 10

// EnterRoomResult tells the caller which entry case applied. FirstEntry is
// true while the room holds nothing but the welcome message; MoreThanOne is
// true when a multi-message history window is replayed.
type EnterRoomResult struct {
	Room           *types.Room
	Messages       []types.MessageResponse
	FirstEntry     bool
	MoreThanOne    bool
	RoomCreated    bool
	WelcomeCreated bool
}

type RoomService interface {
	EnterRoom(ctx context.Context, menteeNickname, mentorNickname string) (*EnterRoomResult, error)
	GetAllRooms(ctx context.Context, nickname string, userType types.SenderType) ([]types.RoomInfo, error)
}

type roomService struct {
	log          *logger.Logger
	roomRepo     repos.RoomRepo
	messageRepo  repos.ChatMessageRepo
	loc          *time.Location
	storeTimeout time.Duration
	now          func() time.Time
	entries      singleflight.Group
}

func NewRoomService(
	log *logger.Logger,
	roomRepo repos.RoomRepo,
	messageRepo repos.ChatMessageRepo,
	loc *time.Location,
	storeTimeout time.Duration,
) RoomService {
	serviceLog := log.With("service", "RoomService")
	return &roomService{
		log:          serviceLog,
		roomRepo:     roomRepo,
		messageRepo:  messageRepo,
		loc:          loc,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// EnterRoom resolves (or lazily creates) the room for the pair and decides
// between bootstrapping it with a welcome message and replaying its most
// recent history. Concurrent entries for the same pair in this process share
// one execution.
func (rs *roomService) EnterRoom(ctx context.Context, menteeNickname, mentorNickname string) (*EnterRoomResult, error) {
	menteeNickname = strings.TrimSpace(menteeNickname)
	mentorNickname = strings.TrimSpace(mentorNickname)
	if menteeNickname == "" || mentorNickname == "" {
		return nil, errordata.InvalidInput("menteeNickname and mentorNickname are required")
	}
	key := menteeNickname + "\x00" + mentorNickname
	v, err, shared := rs.entries.Do(key, func() (interface{}, error) {
		return rs.enterRoom(context.WithoutCancel(ctx), menteeNickname, mentorNickname)
	})
	if err != nil {
		metrics.RoomEntries.WithLabelValues("failed").Inc()
		return nil, err
	}
	if shared {
		rs.log.Debug("room entry shared with a concurrent caller", "mentee", menteeNickname, "mentor", mentorNickname)
	}
	return v.(*EnterRoomResult), nil
}

func (rs *roomService) enterRoom(ctx context.Context, menteeNickname, mentorNickname string) (*EnterRoomResult, error) {
	roomCtx, cancel := boundedCall(ctx, rs.storeTimeout)
	room, created, err := rs.roomRepo.FindOrCreate(roomCtx, nil, menteeNickname, mentorNickname)
	cancel()
	if err != nil {
		rs.log.Error("failed to resolve room", "mentee", menteeNickname, "mentor", mentorNickname, "error", err)
		return nil, errordata.Persistence(err)
	}
	if created {
		rs.log.Info("room created", "roomID", room.ID, "mentee", menteeNickname, "mentor", mentorNickname)
	}

	page, err := rs.latestPage(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	result := &EnterRoomResult{Room: room, RoomCreated: created}
	switch {
	case len(page) == 0:
		welcome, err := rs.sendWelcome(ctx, room)
		if err != nil {
			return nil, err
		}
		result.Messages = []types.MessageResponse{types.NewMessageResponse(welcome, nil, rs.loc)}
		result.FirstEntry = true
		result.WelcomeCreated = true
		metrics.RoomEntries.WithLabelValues("welcome_created").Inc()
	case len(page) == 1 && page[0].IsWelcome():
		result.Messages = []types.MessageResponse{types.NewMessageResponse(page[0], nil, rs.loc)}
		result.FirstEntry = true
		metrics.RoomEntries.WithLabelValues("welcome_replayed").Inc()
	default:
		result.Messages = utils.NumberedResponses(utils.Chronological(page), func(m *types.ChatMessage, order *int) types.MessageResponse {
			return types.NewMessageResponse(m, order, rs.loc)
		})
		result.MoreThanOne = len(page) > 1
		metrics.RoomEntries.WithLabelValues("history_replayed").Inc()
	}
	return result, nil
}

// latestPage returns up to HistoryPageSize messages, newest first.
func (rs *roomService) latestPage(ctx context.Context, roomID string) ([]*types.ChatMessage, error) {
	pageCtx, cancel := boundedCall(ctx, rs.storeTimeout)
	defer cancel()
	page, err := rs.messageRepo.GetLatestByRoomID(pageCtx, roomID, HistoryPageSize)
	if err != nil {
		rs.log.Error("failed to load room history", "roomID", roomID, "error", err)
		return nil, errordata.Persistence(err)
	}
	utils.SortNewestFirst(page)
	if len(page) > HistoryPageSize {
		page = page[:HistoryPageSize]
	}
	return page, nil
}

func (rs *roomService) sendWelcome(ctx context.Context, room *types.Room) (*types.ChatMessage, error) {
	text, err := templates.RenderWelcome(templates.WelcomeData{
		MenteeNickname: room.MenteeNickname,
		MentorNickname: room.MentorNickname,
	})
	if err != nil {
		return nil, errordata.Persistence(err)
	}
	welcome := &types.ChatMessage{
		RoomID:         room.ID,
		SenderType:     types.SenderTypeMentor,
		SenderNickname: room.MentorNickname,
		Message:        text,
		MessageType:    types.MessageTypeEnter,
		Time:           utils.TruncateToSecond(rs.now()),
	}
	saveCtx, cancel := boundedCall(ctx, rs.storeTimeout)
	defer cancel()
	saved, err := rs.messageRepo.Create(saveCtx, welcome)
	if err != nil {
		rs.log.Error("failed to persist welcome message", "roomID", room.ID, "error", err)
		return nil, errordata.Persistence(err)
	}
	return saved, nil
}

// GetAllRooms lists every room the user takes part in as userType, most
// recently active first. Rooms without any message sort last.
func (rs *roomService) GetAllRooms(ctx context.Context, nickname string, userType types.SenderType) ([]types.RoomInfo, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, errordata.InvalidInput("nickname is required")
	}
	if !userType.Valid() {
		return nil, errordata.InvalidInput("type must be MENTEE or MENTOR")
	}

	listCtx, cancel := boundedCall(ctx, rs.storeTimeout)
	var (
		rooms []*types.Room
		err   error
	)
	if userType == types.SenderTypeMentee {
		rooms, err = rs.roomRepo.GetByMentee(listCtx, nil, nickname)
	} else {
		rooms, err = rs.roomRepo.GetByMentor(listCtx, nil, nickname)
	}
	cancel()
	if err != nil {
		rs.log.Error("failed to list rooms", "nickname", nickname, "type", userType, "error", err)
		return nil, errordata.Persistence(err)
	}

	infos := make([]types.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		info := types.RoomInfo{RoomID: room.ID, Nickname: room.MentorNickname}
		if userType == types.SenderTypeMentor {
			info.Nickname = room.MenteeNickname
		}
		lastCtx, cancel := boundedCall(ctx, rs.storeTimeout)
		last, err := rs.messageRepo.GetLatestByRoomID(lastCtx, room.ID, 1)
		cancel()
		if err != nil {
			rs.log.Error("failed to load last message", "roomID", room.ID, "error", err)
			return nil, errordata.Persistence(err)
		}
		if len(last) > 0 {
			info.LastMessage = lastMessageText(last[0])
			t := last[0].Time
			info.LastMessageTime = &t
			info.LastMessagedAt = t.In(rs.location()).Format(types.WireTimeLayout)
		}
		infos = append(infos, info)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		a, b := infos[i].LastMessageTime, infos[j].LastMessageTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return infos, nil
}

func (rs *roomService) location() *time.Location {
	if rs.loc == nil {
		return time.UTC
	}
	return rs.loc
}

// lastMessageText previews a message in a room list. AI responses carry no
// text of their own, so the first matched summary stands in.
func lastMessageText(m *types.ChatMessage) string {
	if m.Message != "" || m.MessageType != types.MessageTypeAIResponse {
		return m.Message
	}
	if len(m.MessageList) > 0 {
		return m.MessageList[0].SummarizedQuestion
	}
	return ""
}
