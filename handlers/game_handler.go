package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eduarena/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

type Lobby interface {
	Waiting() []game.Summary
}

type GameStateReader interface {
	GetCurrentGameState(ctx context.Context, id int64) (game.State, error)
}

type GameHandler struct {
	lobby     Lobby
	games     GameStateReader
	publicURL string
}

func NewGameHandler(lobby Lobby, games GameStateReader, publicURL string) *GameHandler {
	return &GameHandler{
		lobby:     lobby,
		games:     games,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func gameIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return 0, false
	}
	return id, true
}

// ListGames returns the games that can still be joined.
func (h *GameHandler) ListGames(c *gin.Context) {
	games := h.lobby.Waiting()
	if games == nil {
		games = []game.Summary{}
	}
	c.JSON(http.StatusOK, games)
}

func (h *GameHandler) GetGame(c *gin.Context) {
	id, ok := gameIDParam(c)
	if !ok {
		return
	}

	st, err := h.games.GetCurrentGameState(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, game.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		log.Error().Err(err).Int64("game_id", id).Msg("failed to load game state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load game"})
		return
	}

	c.JSON(http.StatusOK, st)
}

// GetGameQR renders a PNG QR code linking to the game's join page.
func (h *GameHandler) GetGameQR(c *gin.Context) {
	id, ok := gameIDParam(c)
	if !ok {
		return
	}

	if _, err := h.games.GetCurrentGameState(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	png, err := qrcode.Encode(h.JoinURL(id), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Int64("game_id", id).Msg("failed to encode qr code")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// JoinURL is the link a player follows to join game id.
func (h *GameHandler) JoinURL(id int64) string {
	return h.publicURL + "/games/" + strconv.FormatInt(id, 10)
}

// GetOptions lists the values accepted when creating a game.
func (h *GameHandler) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"kinds":        game.Kinds,
		"categories":   game.Categories(),
		"difficulties": []game.Difficulty{game.DifficultyEasy, game.DifficultyMedium, game.DifficultyHard},
		"operations":   []game.Operation{game.OpAddition, game.OpSubtraction, game.OpMultiplication, game.OpDivision},
		"policies":     []game.CompletionPolicy{game.PolicyRounds, game.PolicyTargetScore},
		"quizScoring":  []game.QuizScoring{game.QuizScoringFirstCorrect, game.QuizScoringDifficulty},
		"limits": gin.H{
			"roundDuration": int(game.MaxRoundDuration / time.Second),
			"maxRounds":     game.MaxRoundsLimit,
			"targetScore":   game.MaxTargetScore,
			"letterCount":   []int{game.MinLetterCount, game.MaxLetterCount},
		},
	})
}
