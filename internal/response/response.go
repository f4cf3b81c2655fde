package response

import (
	"github.com/gin-gonic/gin"

	"github.com/menjil-org/menjil-backend/internal/errordata"
	"github.com/menjil-org/menjil-backend/internal/logger"
)

// Success codes.
const (
	CodeMessageCreated     = "MESSAGE_CREATED"
	CodeMessageLoadSuccess = "MESSAGE_LOAD_SUCCESS"
	CodeChatContinue       = "CHAT_CONTINUE"
	CodeGetRoomsAvailable  = "GET_ROOMS_AVAILABLE"
	CodeGetRoomsNotExists  = "GET_ROOMS_AND_NOT_EXISTS"
	CodeTalkMessageCreated = "TALK_MESSAGE_CREATED"
)

var successMessages = map[string]string{
	CodeMessageCreated:     "chat room entered and welcome message created",
	CodeMessageLoadSuccess: "chat history loaded",
	CodeChatContinue:       "chat continues",
	CodeGetRoomsAvailable:  "chat rooms loaded",
	CodeGetRoomsNotExists:  "no chat rooms exist",
	CodeTalkMessageCreated: "message saved",
}

type Envelope struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(code string, data interface{}) Envelope {
	return Envelope{Code: code, Message: successMessages[code], Data: data}
}

func Failure(err error) Envelope {
	return Envelope{Code: errordata.CodeOf(err), Message: errordata.MessageOf(err)}
}

// Error writes the failure envelope with the status of err's kind. Causes are
// logged, never rendered.
func Error(c *gin.Context, log *logger.Logger, err error) {
	status := errordata.StatusOf(err)
	if status >= 500 {
		log.Error("request failed", "path", c.FullPath(), "kind", errordata.KindOf(err), "error", err)
	} else {
		log.Debug("request rejected", "path", c.FullPath(), "kind", errordata.KindOf(err), "error", err)
	}
	c.JSON(status, Failure(err))
}
