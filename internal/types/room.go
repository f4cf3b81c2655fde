package types

import (
	"time"
)

// Room pairs one mentee with one mentor. The pair is unique and the ID never
// changes once assigned.
type Room struct {
	ID             string    `gorm:"column:room_id;type:varchar(36);primaryKey" json:"roomId"`
	MenteeNickname string    `gorm:"column:mentee_nickname;not null;uniqueIndex:idx_room_pair,priority:1" json:"menteeNickname"`
	MentorNickname string    `gorm:"column:mentor_nickname;not null;uniqueIndex:idx_room_pair,priority:2;index" json:"mentorNickname"`
	CreatedAt      time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

func (Room) TableName() string {
	return "room"
}

// RoomInfo is one entry of a user's room list.
type RoomInfo struct {
	RoomID          string     `json:"roomId"`
	Nickname        string     `json:"nickname"`
	LastMessage     string     `json:"lastMessage"`
	LastMessageTime *time.Time `json:"-"`
	LastMessagedAt  string     `json:"lastMessagedAt,omitempty"`
}
