package services

import (
	"context"
	"testing"
	"time"

	"eduarena/game"
	"eduarena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStorage(t *testing.T) *StorageService {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("eduarena"),
		tcpostgres.WithUsername("eduarena"),
		tcpostgres.WithPassword("eduarena"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	s := NewStorageService(db)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestStorageService(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	var alice, bob *models.User

	t.Run("CreateUser", func(t *testing.T) {
		var err error
		alice, err = s.CreateUser(ctx, "alice", "hash-a")
		require.NoError(t, err)
		assert.NotZero(t, alice.ID)
		bob, err = s.CreateUser(ctx, "bob", "hash-b")
		require.NoError(t, err)
	})

	t.Run("CreateUser_Duplicate", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "alice", "other")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("GetUser", func(t *testing.T) {
		u, err := s.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, u.ID)
		assert.Equal(t, "hash-a", u.PasswordHash)

		u, err = s.GetUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", u.Username)

		_, err = s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)
		_, err = s.GetUserByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("UpdateUserPoints", func(t *testing.T) {
		require.NoError(t, s.UpdateUserPoints(ctx, int64(alice.ID), 15))
		require.NoError(t, s.UpdateUserPoints(ctx, int64(alice.ID), 10))
		require.NoError(t, s.UpdateUserPoints(ctx, int64(bob.ID), 5))
		assert.ErrorIs(t, s.UpdateUserPoints(ctx, 9999, 5), ErrUserNotFound)

		u, err := s.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 25, u.Points)
	})

	t.Run("Leaderboard", func(t *testing.T) {
		users, err := s.Leaderboard(ctx, 10)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Username)
		assert.Equal(t, "bob", users[1].Username)
	})

	t.Run("RecordGameResult", func(t *testing.T) {
		winner := int64(alice.ID)
		rec, err := s.RecordGameResult(ctx, game.State{
			ID:    1,
			Type:  game.KindMath,
			Round: 5,
			Players: []game.Player{
				{ID: int64(alice.ID), Username: "alice", Score: 25},
				{ID: int64(bob.ID), Username: "bob", Score: 5},
			},
			Winner: &winner,
		})
		require.NoError(t, err)
		assert.NotZero(t, rec.ID)
		assert.Len(t, rec.Participants, 2)

		_, err = s.RecordGameResult(ctx, game.State{
			ID:      2,
			Type:    game.KindWord,
			Round:   5,
			Players: []game.Player{{ID: int64(bob.ID), Username: "bob", Score: 0}},
		})
		require.NoError(t, err)
	})

	t.Run("History", func(t *testing.T) {
		all, err := s.History(ctx, HistoryFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		math, err := s.History(ctx, HistoryFilter{GameType: "math"})
		require.NoError(t, err)
		require.Len(t, math, 1)
		require.NotNil(t, math[0].Winner)
		assert.Equal(t, "alice", math[0].Winner.Username)
		require.Len(t, math[0].Participants, 2)
		assert.Equal(t, "alice", math[0].Participants[0].Username)

		aliceGames, err := s.History(ctx, HistoryFilter{UserID: alice.ID})
		require.NoError(t, err)
		assert.Len(t, aliceGames, 1)

		bobGames, err := s.History(ctx, HistoryFilter{UserID: bob.ID, Limit: 1})
		require.NoError(t, err)
		require.Len(t, bobGames, 1)
		assert.Equal(t, "word", bobGames[0].GameType)
	})

	t.Run("Messages", func(t *testing.T) {
		gameID := int64(1)
		for _, content := range []string{"one", "two", "three"} {
			require.NoError(t, s.CreateMessage(ctx, &models.Message{SenderID: alice.ID, SenderName: "alice", Content: content}))
		}
		require.NoError(t, s.CreateMessage(ctx, &models.Message{
			SenderID:   models.SystemSenderID,
			SenderName: "System",
			Content:    "Game has started!",
			GameID:     &gameID,
		}))

		global, err := s.GetMessages(ctx, nil, 2)
		require.NoError(t, err)
		require.Len(t, global, 2)
		assert.Equal(t, "two", global[0].Content)
		assert.Equal(t, "three", global[1].Content)

		room, err := s.GetMessages(ctx, &gameID, 0)
		require.NoError(t, err)
		require.Len(t, room, 1)
		assert.Equal(t, "System", room[0].SenderName)
	})
}
