package models

import (
	"time"
)

// GameRecord is the history entry written when a game finishes. GameID is
// the in-memory id, which is only unique within one server run.
type GameRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	GameID     int64     `json:"game_id" gorm:"not null;index"`
	GameType   string    `json:"game_type" gorm:"not null;index"`
	WinnerID   *uint     `json:"winner_id"`
	Rounds     int       `json:"rounds" gorm:"not null"`
	FinishedAt time.Time `json:"finished_at"`
	CreatedAt  time.Time `json:"created_at"`

	// Relationships
	Winner       *User             `json:"winner,omitempty" gorm:"foreignKey:WinnerID"`
	Participants []GameParticipant `json:"participants,omitempty" gorm:"foreignKey:GameRecordID"`
}
