package services

import (
	"context"

	"eduarena/game"
	"eduarena/models"

	"github.com/stretchr/testify/mock"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, username, passwordHash)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UpdateUserPoints(ctx context.Context, userID int64, delta int) error {
	return m.Called(ctx, userID, delta).Error(0)
}

func (m *MockStorage) RecordGameResult(ctx context.Context, st game.State) (*models.GameRecord, error) {
	args := m.Called(ctx, st)
	r, _ := args.Get(0).(*models.GameRecord)
	return r, args.Error(1)
}

func (m *MockStorage) CreateMessage(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockStorage) GetMessages(ctx context.Context, gameID *int64, limit int) ([]models.Message, error) {
	args := m.Called(ctx, gameID, limit)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}
