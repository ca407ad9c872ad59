package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"eduarena/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidUsername    = errors.New("username must be 3-20 letters, digits or underscores")
	ErrWeakPassword       = errors.New("password must be 8-72 characters")
	ErrIdentityMismatch   = errors.New("connection identity does not match account")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// Identity is an authenticated connection's user.
type Identity struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// AuthPort admits realtime connections.
type AuthPort interface {
	VerifyConnection(ctx context.Context, userID int64, username string) error
}

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewAuthService(users UserStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (string, *models.User, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return "", nil, ErrInvalidUsername
	}
	if n := utf8.RuneCountInString(password); n < 8 || len(password) > 72 {
		return "", nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, username, string(hash))
	if err != nil {
		return "", nil, err
	}
	token, err := s.GenerateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.GenerateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyConnection admits a connection only for an existing account whose
// username matches.
func (s *AuthService) VerifyConnection(ctx context.Context, userID int64, username string) error {
	if userID <= 0 {
		return ErrIdentityMismatch
	}
	user, err := s.users.GetUserByID(ctx, uint(userID))
	if err != nil {
		return err
	}
	if user.Username != username {
		return ErrIdentityMismatch
	}
	return nil
}

// Authenticate resolves a token into a verified connection identity.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := s.VerifyToken(token)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{UserID: int64(claims.UserID), Username: claims.Username}
	if err := s.VerifyConnection(ctx, id.UserID, id.Username); err != nil {
		return Identity{}, err
	}
	return id, nil
}
