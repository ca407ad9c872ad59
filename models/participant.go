package models

import (
	"time"
)

type GameParticipant struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	GameRecordID uint      `json:"game_record_id" gorm:"not null;index"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	Username     string    `json:"username" gorm:"not null"`
	Score        int       `json:"score" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
}
