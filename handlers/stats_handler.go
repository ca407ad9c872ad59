package handlers

import (
	"context"
	"net/http"
	"strconv"

	"eduarena/game"
	"eduarena/models"
	"eduarena/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type StatsStore interface {
	Leaderboard(ctx context.Context, limit int) ([]models.User, error)
	History(ctx context.Context, f services.HistoryFilter) ([]models.GameRecord, error)
	GetMessages(ctx context.Context, gameID *int64, limit int) ([]models.Message, error)
}

// StatsHandler serves the read side of persisted play: rankings, finished
// games and chat history.
type StatsHandler struct {
	store StatsStore
}

func NewStatsHandler(store StatsStore) *StatsHandler {
	return &StatsHandler{store: store}
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return 0, false
	}
	return limit, true
}

func (h *StatsHandler) GetLeaderboard(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	users, err := h.store.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *StatsHandler) GetHistory(c *gin.Context) {
	h.history(c, services.HistoryFilter{})
}

func (h *StatsHandler) GetUserHistory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	h.history(c, services.HistoryFilter{UserID: uint(id)})
}

func (h *StatsHandler) GetTypeHistory(c *gin.Context) {
	kind, err := game.ParseKind(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game type"})
		return
	}
	h.history(c, services.HistoryFilter{GameType: string(kind)})
}

func (h *StatsHandler) history(c *gin.Context, f services.HistoryFilter) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	f.Limit = limit

	records, err := h.store.History(c.Request.Context(), f)
	if err != nil {
		log.Error().Err(err).Uint("user_id", f.UserID).Str("kind", f.GameType).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetMessages returns global chat, or a game's chat when gameId is given.
func (h *StatsHandler) GetMessages(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	var gameID *int64
	if raw := c.Query("gameId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
			return
		}
		gameID = &id
	}

	msgs, err := h.store.GetMessages(c.Request.Context(), gameID, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}
