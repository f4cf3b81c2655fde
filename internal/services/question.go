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

var errNoMentor = errors.New("room has no mentor")

type QuestionRequest struct {
	SenderNickname string `json:"senderNickname"`
	Message        string `json:"message"`
	Time           string `json:"time"`
}

type QuestionServiceConfig struct {
	Location          *time.Location
	StoreTimeout      time.Duration
	SummarizerTimeout time.Duration
	SimilarityTimeout time.Duration
}

// QuestionService turns a mentee's question into a persisted QUESTION and a
// composite AI_RESPONSE built from a summary and similar prior answers.
type QuestionService interface {
	HandleQuestion(ctx context.Context, roomID string, req QuestionRequest) (*types.MessageResponse, error)
}

type questionService struct {
	log         *logger.Logger
	roomRepo    repos.RoomRepo
	messageRepo repos.ChatMessageRepo
	summarizer  SummarizerService
	similarity  SimilarityService
	cfg         QuestionServiceConfig
	now         func() time.Time
}

func NewQuestionService(
	log *logger.Logger,
	roomRepo repos.RoomRepo,
	messageRepo repos.ChatMessageRepo,
	summarizer SummarizerService,
	similarity SimilarityService,
	cfg QuestionServiceConfig,
) QuestionService {
	serviceLog := log.With("service", "QuestionService")
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &questionService{
		log:         serviceLog,
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		summarizer:  summarizer,
		similarity:  similarity,
		cfg:         cfg,
		now:         time.Now,
	}
}

// HandleQuestion runs validate -> resolve mentor -> persist QUESTION ->
// summarize -> find similar -> persist AI_RESPONSE. Steps after the QUESTION
// write never undo it: a failed exchange leaves the question without an answer.
func (qs *questionService) HandleQuestion(ctx context.Context, roomID string, req QuestionRequest) (*types.MessageResponse, error) {
	roomID = strings.TrimSpace(roomID)
	menteeNickname := strings.TrimSpace(req.SenderNickname)
	if roomID == "" || menteeNickname == "" {
		return nil, qs.fail("validate", errordata.InvalidInput("roomId and senderNickname are required"))
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, qs.fail("validate", errordata.InvalidInput("message must not be empty"))
	}
	sentAt, err := utils.ParseWireTime(req.Time, qs.cfg.Location)
	if err != nil {
		return nil, qs.fail("validate", errordata.InvalidTime(err))
	}

	mentorNickname, err := qs.resolveMentor(ctx, roomID, menteeNickname)
	if err != nil {
		return nil, qs.fail("resolve_mentor", err)
	}

	question := &types.ChatMessage{
		RoomID:         roomID,
		SenderType:     types.SenderTypeMentee,
		SenderNickname: menteeNickname,
		Message:        req.Message,
		MessageType:    types.MessageTypeQuestion,
		Time:           utils.TruncateToSecond(sentAt),
	}
	if question, err = qs.save(ctx, question); err != nil {
		return nil, qs.fail("persist_question", err)
	}
	log := qs.log.With("roomID", roomID, "questionID", question.ID)

	summary, err := qs.summarize(ctx, question.Message)
	if err != nil {
		log.Warn("summarizer failed, question left unanswered", "error", err)
		return nil, qs.fail("summarize", err)
	}

	records, err := qs.findSimilar(ctx, SimilarityRequest{
		MentorNickname: mentorNickname,
		MenteeNickname: menteeNickname,
		OriginMessage:  question.Message,
		SummaryMessage: summary,
	})
	if err != nil {
		log.Warn("similarity lookup failed, question left unanswered", "error", err)
		return nil, qs.fail("similarity", err)
	}

	questionID := question.ID
	answer := &types.ChatMessage{
		RoomID:         roomID,
		SenderType:     types.SenderTypeMentor,
		SenderNickname: mentorNickname,
		MessageList:    records,
		MessageType:    types.MessageTypeAIResponse,
		InResponseTo:   &questionID,
		Time:           utils.TruncateToSecond(qs.now()),
	}
	if answer, err = qs.save(ctx, answer); err != nil {
		log.Error("failed to persist AI response", "error", err)
		return nil, qs.fail("persist_answer", err)
	}
	metrics.QuestionPipeline.WithLabelValues("complete", "ok").Inc()
	log.Info("question answered", "answerID", answer.ID, "matches", len(records))

	resp := types.NewMessageResponse(answer, nil, qs.cfg.Location)
	return &resp, nil
}

func (qs *questionService) resolveMentor(ctx context.Context, roomID, menteeNickname string) (string, error) {
	lookupCtx, cancel := boundedCall(ctx, qs.cfg.StoreTimeout)
	defer cancel()
	mentor, err := qs.roomRepo.FindMentorNickname(lookupCtx, nil, roomID, menteeNickname)
	if errors.Is(err, repos.ErrRoomNotFound) {
		return "", errordata.RoomNotFound(err)
	}
	if err != nil {
		return "", errordata.Persistence(err)
	}
	if mentor == "" {
		qs.log.Error("room has no mentor", "roomID", roomID)
		return "", errordata.RoomNotFound(errNoMentor)
	}
	return mentor, nil
}

func (qs *questionService) save(ctx context.Context, msg *types.ChatMessage) (*types.ChatMessage, error) {
	saveCtx, cancel := boundedCall(ctx, qs.cfg.StoreTimeout)
	defer cancel()
	saved, err := qs.messageRepo.Create(saveCtx, msg)
	if err != nil {
		return nil, errordata.Persistence(err)
	}
	return saved, nil
}

func (qs *questionService) summarize(ctx context.Context, question string) (string, error) {
	callCtx, cancel := boundedCall(ctx, qs.cfg.SummarizerTimeout)
	defer cancel()
	start := time.Now()
	summary, err := qs.summarizer.Summarize(callCtx, question)
	metrics.UpstreamLatency.WithLabelValues("summarizer").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", errordata.Upstream("summarizer", err)
	}
	return summary, nil
}

func (qs *questionService) findSimilar(ctx context.Context, req SimilarityRequest) ([]types.SummaryRecord, error) {
	callCtx, cancel := boundedCall(ctx, qs.cfg.SimilarityTimeout)
	defer cancel()
	start := time.Now()
	records, err := qs.similarity.FindSimilar(callCtx, req)
	metrics.UpstreamLatency.WithLabelValues("similarity").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, errordata.Upstream("similarity service", err)
	}
	if records == nil {
		records = make([]types.SummaryRecord, 0)
	}
	return records, nil
}

func (qs *questionService) fail(stage string, err error) error {
	metrics.QuestionPipeline.WithLabelValues(stage, string(errordata.KindOf(err))).Inc()
	return err
}
