package types

import (
	"time"
)

// WireTimeLayout is the timestamp format exchanged with clients (yyyy-MM-dd HH:mm:ss).
const WireTimeLayout = "2006-01-02 15:04:05"

// MessageResponse is a ChatMessage as sent to clients. Order is only set when
// a multi-message history window is replayed.
type MessageResponse struct {
	ID             string          `json:"-"`
	Order          *int            `json:"order"`
	RoomID         string          `json:"roomId"`
	SenderType     SenderType      `json:"senderType"`
	SenderNickname string          `json:"senderNickname"`
	Message        string          `json:"message"`
	MessageList    []SummaryRecord `json:"messageList"`
	MessageType    MessageType     `json:"messageType"`
	InResponseTo   *string         `json:"inResponseTo,omitempty"`
	Time           string          `json:"time"`
}

// NewMessageResponse renders msg for clients, formatting its time in loc.
func NewMessageResponse(msg *ChatMessage, order *int, loc *time.Location) MessageResponse {
	if loc == nil {
		loc = time.UTC
	}
	resp := MessageResponse{
		ID:             msg.ID,
		Order:          order,
		RoomID:         msg.RoomID,
		SenderType:     msg.SenderType,
		SenderNickname: msg.SenderNickname,
		Message:        msg.Message,
		MessageType:    msg.MessageType,
		InResponseTo:   msg.InResponseTo,
		Time:           msg.Time.In(loc).Format(WireTimeLayout),
	}
	if msg.MessageType == MessageTypeAIResponse {
		resp.MessageList = make([]SummaryRecord, 0, len(msg.MessageList))
		resp.MessageList = append(resp.MessageList, msg.MessageList...)
	}
	return resp
}
