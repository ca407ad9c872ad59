package handlers

import (
	"context"

	"eduarena/game"
	"eduarena/models"
	"eduarena/services"

	"github.com/stretchr/testify/mock"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, username, password string) (string, *models.User, error) {
	args := m.Called(ctx, username, password)
	u, _ := args.Get(1).(*models.User)
	return args.String(0), u, args.Error(2)
}

func (m *MockAuthenticator) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	args := m.Called(ctx, username, password)
	u, _ := args.Get(1).(*models.User)
	return args.String(0), u, args.Error(2)
}

type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type MockGameStateReader struct {
	mock.Mock
}

func (m *MockGameStateReader) GetCurrentGameState(ctx context.Context, id int64) (game.State, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(game.State), args.Error(1)
}

type fakeLobby []game.Summary

func (l fakeLobby) Waiting() []game.Summary { return l }

type MockStatsStore struct {
	mock.Mock
}

func (m *MockStatsStore) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	args := m.Called(ctx, limit)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *MockStatsStore) History(ctx context.Context, f services.HistoryFilter) ([]models.GameRecord, error) {
	args := m.Called(ctx, f)
	records, _ := args.Get(0).([]models.GameRecord)
	return records, args.Error(1)
}

func (m *MockStatsStore) GetMessages(ctx context.Context, gameID *int64, limit int) ([]models.Message, error) {
	args := m.Called(ctx, gameID, limit)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}
