package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menjil-org/menjil-backend/internal/errordata"
	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/middleware"
	"github.com/menjil-org/menjil-backend/internal/response"
	"github.com/menjil-org/menjil-backend/internal/services"
	"github.com/menjil-org/menjil-backend/internal/socket"
	"github.com/menjil-org/menjil-backend/internal/socketdata"
)

type MessageHandler struct {
	log             *logger.Logger
	questionService services.QuestionService
	messageService  services.MessageService
}

func NewMessageHandler(log *logger.Logger, questionService services.QuestionService, messageService services.MessageService) *MessageHandler {
	return &MessageHandler{
		log:             log.With("handler", "MessageHandler"),
		questionService: questionService,
		messageService:  messageService,
	}
}

// AskQuestion runs the question pipeline and answers with the AI_RESPONSE.
func (mh *MessageHandler) AskQuestion(c *gin.Context) {
	var req services.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, mh.log, errordata.InvalidInput("invalid request body"))
		return
	}
	if err := middleware.RequireSelf(c, req.SenderNickname); err != nil {
		response.Error(c, mh.log, err)
		return
	}
	roomID := c.Param("roomId")

	answer, err := mh.questionService.HandleQuestion(c.Request.Context(), roomID, req)
	if err != nil {
		response.Error(c, mh.log, err)
		return
	}
	mh.reply(c, roomID, response.Success(response.CodeMessageCreated, answer))
}

// SendTalk stores a plain chat message.
func (mh *MessageHandler) SendTalk(c *gin.Context) {
	var req services.TalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, mh.log, errordata.InvalidInput("invalid request body"))
		return
	}
	if err := middleware.RequireSelf(c, req.SenderNickname); err != nil {
		response.Error(c, mh.log, err)
		return
	}
	roomID := c.Param("roomId")

	msg, err := mh.messageService.SaveTalk(c.Request.Context(), roomID, req)
	if err != nil {
		response.Error(c, mh.log, err)
		return
	}
	mh.reply(c, roomID, response.Success(response.CodeTalkMessageCreated, msg))
}

func (mh *MessageHandler) reply(c *gin.Context, roomID string, body response.Envelope) {
	if sd := socketdata.GetSocketData(c.Request.Context()); sd != nil {
		sd.AppendMessage(socket.Message{Channel: socket.RoomChannel(roomID), Data: body})
	}
	c.JSON(http.StatusCreated, body)
}

