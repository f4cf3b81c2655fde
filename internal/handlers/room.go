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
	"github.com/menjil-org/menjil-backend/internal/types"
)

type RoomHandler struct {
	log         *logger.Logger
	roomService services.RoomService
}

func NewRoomHandler(log *logger.Logger, roomService services.RoomService) *RoomHandler {
	return &RoomHandler{log: log.With("handler", "RoomHandler"), roomService: roomService}
}

type enterRoomRequest struct {
	MenteeNickname string `json:"menteeNickname"`
	MentorNickname string `json:"mentorNickname"`
}

type enterRoomData struct {
	RoomID   string                  `json:"roomId"`
	Messages []types.MessageResponse `json:"messages"`
}

// EnterRoom opens the chat room for a mentee/mentor pair and replays its
// tail. The result is also fanned out to the room's subscribers.
func (rh *RoomHandler) EnterRoom(c *gin.Context) {
	var req enterRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, rh.log, errordata.InvalidInput("invalid request body"))
		return
	}
	if err := middleware.RequireSelf(c, req.MenteeNickname, req.MentorNickname); err != nil {
		response.Error(c, rh.log, err)
		return
	}

	result, err := rh.roomService.EnterRoom(c.Request.Context(), req.MenteeNickname, req.MentorNickname)
	if err != nil {
		response.Error(c, rh.log, err)
		return
	}

	code := response.CodeChatContinue
	switch {
	case result.FirstEntry:
		code = response.CodeMessageCreated
	case result.MoreThanOne:
		code = response.CodeMessageLoadSuccess
	}
	body := response.Success(code, enterRoomData{RoomID: result.Room.ID, Messages: result.Messages})
	if sd := socketdata.GetSocketData(c.Request.Context()); sd != nil {
		sd.AppendMessage(socket.Message{Channel: socket.RoomChannel(result.Room.ID), Data: body})
	}
	c.JSON(http.StatusOK, body)
}

// GetAllRooms lists the caller's rooms as mentee or mentor.
func (rh *RoomHandler) GetAllRooms(c *gin.Context) {
	nickname := c.Query("nickname")
	userType := types.SenderType(c.Query("type"))
	if err := middleware.RequireSelf(c, nickname); err != nil {
		response.Error(c, rh.log, err)
		return
	}

	rooms, err := rh.roomService.GetAllRooms(c.Request.Context(), nickname, userType)
	if err != nil {
		response.Error(c, rh.log, err)
		return
	}
	if len(rooms) == 0 {
		c.JSON(http.StatusOK, response.Success(response.CodeGetRoomsNotExists, rooms))
		return
	}
	c.JSON(http.StatusOK, response.Success(response.CodeGetRoomsAvailable, rooms))
}
