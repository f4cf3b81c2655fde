package types

import (
	"time"

	"gorm.io/datatypes"
)

type SenderType string

const (
	SenderTypeMentor SenderType = "MENTOR"
	SenderTypeMentee SenderType = "MENTEE"
)

func (s SenderType) Valid() bool {
	return s == SenderTypeMentor || s == SenderTypeMentee
}

type MessageType string

const (
	MessageTypeEnter      MessageType = "ENTER"
	MessageTypeTalk       MessageType = "TALK"
	MessageTypeQuestion   MessageType = "QUESTION"
	MessageTypeAIResponse MessageType = "AI_RESPONSE"
)

// SummaryRecord is one similar prior Q&A pair returned by the similarity
// service. AnswerTime, Similarity and SourceMentor are provenance only.
type SummaryRecord struct {
	OriginalQuestion   string  `json:"question_origin" bson:"question_origin"`
	SummarizedQuestion string  `json:"question_summary" bson:"question_summary"`
	MatchedAnswer      string  `json:"answer" bson:"answer"`
	AnswerTime         string  `json:"answer_time,omitempty" bson:"answer_time,omitempty"`
	Similarity         float64 `json:"similarity_percent,omitempty" bson:"similarity_percent,omitempty"`
	SourceMentor       string  `json:"mentor_nickname,omitempty" bson:"mentor_nickname,omitempty"`
}

// ChatMessage is immutable once persisted. Time is UTC truncated to the
// second; ID breaks ties between messages sent within the same second.
type ChatMessage struct {
	ID             string                            `gorm:"column:id;type:varchar(26);primaryKey;index:idx_chat_message_room_time,priority:3" bson:"_id"`
	RoomID         string                            `gorm:"column:room_id;type:varchar(36);not null;index:idx_chat_message_room_time,priority:1" bson:"room_id"`
	SenderType     SenderType                        `gorm:"column:sender_type;type:varchar(16);not null" bson:"sender_type"`
	SenderNickname string                            `gorm:"column:sender_nickname;not null" bson:"sender_nickname"`
	Message        string                            `gorm:"column:message;type:text" bson:"message,omitempty"`
	MessageList    datatypes.JSONSlice[SummaryRecord] `gorm:"column:message_list" bson:"message_list,omitempty"`
	MessageType    MessageType                       `gorm:"column:message_type;type:varchar(16);not null" bson:"message_type"`
	InResponseTo   *string                           `gorm:"column:in_response_to;type:varchar(26)" bson:"in_response_to,omitempty"`
	Time           time.Time                         `gorm:"column:sent_at;not null;index:idx_chat_message_room_time,priority:2" bson:"time"`
}

func (ChatMessage) TableName() string {
	return "chat_message"
}

// IsWelcome reports whether the message is the room's greeting.
func (m *ChatMessage) IsWelcome() bool {
	return m.MessageType == MessageTypeEnter
}
