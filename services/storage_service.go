package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"eduarena/game"
	"eduarena/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// StoragePort is what the realtime side needs from persistence.
type StoragePort interface {
	UpdateUserPoints(ctx context.Context, userID int64, delta int) error
	RecordGameResult(ctx context.Context, s game.State) (*models.GameRecord, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessages(ctx context.Context, gameID *int64, limit int) ([]models.Message, error)
}

// UserStore is what authentication needs from persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

const (
	DefaultMessageLimit     = 50
	DefaultLeaderboardLimit = 10
	DefaultHistoryLimit     = 20
	maxQueryLimit           = 200
)

type StorageService struct {
	db *gorm.DB
}

func NewStorageService(db *gorm.DB) *StorageService {
	return &StorageService{db: db}
}

// Migrate creates or updates the tables of every model.
func (s *StorageService) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(models.All()...)
}

func (s *StorageService) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := models.User{Username: username, PasswordHash: passwordHash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return &user, nil
}

func (s *StorageService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *StorageService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *StorageService) UpdateUserPoints(ctx context.Context, userID int64, delta int) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordGameResult stores a finished game with one participant row per
// player.
func (s *StorageService) RecordGameResult(ctx context.Context, st game.State) (*models.GameRecord, error) {
	record := models.GameRecord{
		GameID:     st.ID,
		GameType:   string(st.Type),
		Rounds:     st.Round,
		FinishedAt: time.Now().UTC(),
	}
	if st.Winner != nil {
		id := uint(*st.Winner)
		record.WinnerID = &id
	}
	for _, p := range st.Players {
		record.Participants = append(record.Participants, models.GameParticipant{
			UserID:   uint(p.ID),
			Username: p.Username,
			Score:    p.Score,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *StorageService) CreateMessage(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

// GetMessages returns the latest messages of a game room, or of the global
// room when gameID is nil, oldest first.
func (s *StorageService) GetMessages(ctx context.Context, gameID *int64, limit int) ([]models.Message, error) {
	q := s.db.WithContext(ctx).Model(&models.Message{})
	if gameID == nil {
		q = q.Where("game_id IS NULL")
	} else {
		q = q.Where("game_id = ?", *gameID)
	}

	var messages []models.Message
	err := q.Order("created_at DESC").Order("id DESC").Limit(clampLimit(limit, DefaultMessageLimit)).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

func (s *StorageService) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("points DESC").Order("id ASC").
		Limit(clampLimit(limit, DefaultLeaderboardLimit)).Find(&users).Error
	return users, err
}

type HistoryFilter struct {
	UserID   uint
	GameType string
	Limit    int
}

// History lists finished games, newest first.
func (s *StorageService) History(ctx context.Context, f HistoryFilter) ([]models.GameRecord, error) {
	q := s.db.WithContext(ctx).Model(&models.GameRecord{}).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("score DESC") }).
		Preload("Winner")
	if f.GameType != "" {
		q = q.Where("game_type = ?", f.GameType)
	}
	if f.UserID != 0 {
		q = q.Where("id IN (?)", s.db.Model(&models.GameParticipant{}).
			Select("game_record_id").Where("user_id = ?", f.UserID))
	}

	var records []models.GameRecord
	err := q.Order("finished_at DESC").Order("id DESC").Limit(clampLimit(f.Limit, DefaultHistoryLimit)).Find(&records).Error
	return records, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxQueryLimit)
}
