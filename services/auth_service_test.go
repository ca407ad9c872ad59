package services

import (
	"context"
	"testing"
	"time"

	"eduarena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(users UserStore) *AuthService {
	svc := NewAuthService(users, "test-secret", time.Hour)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegister(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		description string
		username    string
		password    string
		setupMocks  func(m *MockUserStore)
		expectedErr error
	}{
		{
			description: "normal success",
			username:    "alice",
			password:    "correct-horse",
			setupMocks: func(m *MockUserStore) {
				m.On("CreateUser", mock.Anything, "alice", mock.AnythingOfType("string")).
					Return(&models.User{ID: 7, Username: "alice"}, nil)
			},
		},
		{
			description: "username already exists",
			username:    "alice",
			password:    "correct-horse",
			setupMocks: func(m *MockUserStore) {
				m.On("CreateUser", mock.Anything, "alice", mock.AnythingOfType("string")).Return(nil, ErrUsernameTaken)
			},
			expectedErr: ErrUsernameTaken,
		},
		{
			description: "invalid username format",
			username:    "bad name",
			password:    "correct-horse",
			setupMocks:  func(m *MockUserStore) {},
			expectedErr: ErrInvalidUsername,
		},
		{
			description: "weak password",
			username:    "alice",
			password:    "short",
			setupMocks:  func(m *MockUserStore) {},
			expectedErr: ErrWeakPassword,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()
			users := new(MockUserStore)
			tc.setupMocks(users)
			svc := newTestAuth(users)

			token, user, err := svc.Register(context.Background(), tc.username, tc.password)
			users.AssertExpectations(t)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, uint(7), user.ID)
			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, uint(7), claims.UserID)
			assert.Equal(t, "alice", claims.Username)
		})
	}
}

func TestRegisterStoresHash(t *testing.T) {
	users := new(MockUserStore)
	var stored string
	users.On("CreateUser", mock.Anything, "alice", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { stored = args.String(2) }).
		Return(&models.User{ID: 1, Username: "alice"}, nil)

	_, _, err := newTestAuth(users).Register(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("correct-horse")))
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 3, Username: "bob", PasswordHash: string(hash)}

	users := new(MockUserStore)
	users.On("GetUserByUsername", mock.Anything, "bob").Return(stored, nil)
	users.On("GetUserByUsername", mock.Anything, "nobody").Return(nil, ErrUserNotFound)
	svc := newTestAuth(users)

	t.Run("success", func(t *testing.T) {
		token, user, err := svc.Login(context.Background(), "bob", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, stored, user)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "bob", "wrong-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "nobody", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestVerifyToken(t *testing.T) {
	svc := newTestAuth(new(MockUserStore))
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	token, err := svc.GenerateToken(&models.User{ID: 5, Username: "carol"})
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Username)

	t.Run("other secret", func(t *testing.T) {
		other := NewAuthService(nil, "other-secret", time.Hour)
		other.now = svc.now
		_, err := other.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.VerifyToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, err := svc.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthenticate(t *testing.T) {
	users := new(MockUserStore)
	users.On("GetUserByID", mock.Anything, uint(5)).Return(&models.User{ID: 5, Username: "carol"}, nil)
	users.On("GetUserByID", mock.Anything, uint(6)).Return(&models.User{ID: 6, Username: "renamed"}, nil)
	svc := newTestAuth(users)

	token, err := svc.GenerateToken(&models.User{ID: 5, Username: "carol"})
	require.NoError(t, err)
	id, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 5, Username: "carol"}, id)

	stale, err := svc.GenerateToken(&models.User{ID: 6, Username: "dave"})
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), stale)
	assert.ErrorIs(t, err, ErrIdentityMismatch)

	assert.ErrorIs(t, svc.VerifyConnection(context.Background(), 0, "carol"), ErrIdentityMismatch)
}
