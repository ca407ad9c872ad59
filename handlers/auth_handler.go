package handlers

import (
	"context"
	"errors"
	"net/http"

	"eduarena/middleware"
	"eduarena/models"
	"eduarena/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Authenticator interface {
	Register(ctx context.Context, username, password string) (string, *models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
}

type ProfileStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

type AuthHandler struct {
	auth  Authenticator
	users ProfileStore
}

func NewAuthHandler(auth Authenticator, users ProfileStore) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	token, user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
	case errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
	case errors.Is(err, services.ErrInvalidUsername), errors.Is(err, services.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("username", req.Username).Msg("register failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, authResponse{Token: token, User: user})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	default:
		log.Error().Err(err).Str("username", req.Username).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
	}
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID.(uint))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Error().Err(err).Uint("user_id", userID.(uint)).Msg("failed to load profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}
