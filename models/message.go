package models

import (
	"time"
)

// SystemSenderID marks messages generated by the server.
const SystemSenderID = 0

// Message is a chat line. GameID is nil for the global room.
type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   uint      `json:"sender_id" gorm:"not null;index"`
	SenderName string    `json:"sender_name" gorm:"not null"`
	Content    string    `json:"content" gorm:"not null"`
	GameID     *int64    `json:"game_id" gorm:"index"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// All lists every persisted model for migrations.
func All() []any {
	return []any{&User{}, &GameRecord{}, &GameParticipant{}, &Message{}}
}
