package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"eduarena/game"
	"eduarena/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxChatLength = 500

var errBadRequest = errors.New("bad request")

type gameOptions struct {
	RoundDuration           int    `json:"roundDuration"`
	MaxRounds               int    `json:"maxRounds"`
	Policy                  string `json:"policy"`
	TargetScore             int    `json:"targetScore"`
	QuizScoring             string `json:"quizScoring"`
	AdvanceWhenAllSubmitted bool   `json:"advanceWhenAllSubmitted"`
	Difficulty              string `json:"difficulty"`
	Operation               string `json:"operation"`
	LetterCount             int    `json:"letterCount"`
	Category                string `json:"category"`
}

func (o gameOptions) config() (game.Config, error) {
	if o.RoundDuration < 0 || time.Duration(o.RoundDuration) > game.MaxRoundDuration/time.Second {
		return game.Config{}, fmt.Errorf("%w: round duration of %d seconds", game.ErrInvalidConfig, o.RoundDuration)
	}
	return game.Config{
		RoundDuration:           time.Duration(o.RoundDuration) * time.Second,
		MaxRounds:               o.MaxRounds,
		Policy:                  game.CompletionPolicy(o.Policy),
		TargetScore:             o.TargetScore,
		QuizScoring:             game.QuizScoring(o.QuizScoring),
		AdvanceWhenAllSubmitted: o.AdvanceWhenAllSubmitted,
		Difficulty:              game.Difficulty(strings.ToLower(o.Difficulty)),
		Operation:               game.Operation(strings.ToLower(o.Operation)),
		LetterCount:             o.LetterCount,
		Category:                game.Category(strings.ToLower(o.Category)),
	}, nil
}

type createGamePayload struct {
	Kind    string      `json:"kind"`
	Type    string      `json:"type"`
	Options gameOptions `json:"options"`
}

type gameIDPayload struct {
	GameID int64 `json:"gameId"`
}

type wordAnswerPayload struct {
	GameID int64  `json:"gameId"`
	Word   string `json:"word"`
}

type mathAnswerPayload struct {
	GameID int64    `json:"gameId"`
	Answer *float64 `json:"answer"`
}

type quizAnswerPayload struct {
	GameID         int64 `json:"gameId"`
	SelectedOption *int  `json:"selectedOption"`
}

type sendMessagePayload struct {
	Content string `json:"content"`
	GameID  *int64 `json:"gameId"`
}

type getMessagesPayload struct {
	GameID *int64 `json:"gameId"`
	Limit  int    `json:"limit"`
}

type invitationPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
	Kind string `json:"kind"`
}

type submissionResultPayload struct {
	GameID     int64           `json:"gameId"`
	Submission game.Submission `json:"submission"`
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return v, nil
}

// errorMessage turns an action failure into the text shown to the player.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, errBadRequest):
		return "Invalid request"
	case errors.Is(err, game.ErrGameNotFound):
		return "Game not found"
	case errors.Is(err, game.ErrGameAlreadyStarted):
		return "Game has already started"
	case errors.Is(err, game.ErrInvalidSubmission):
		return "Invalid submission"
	case errors.Is(err, game.ErrInvalidKind):
		return "Invalid game type"
	case errors.Is(err, game.ErrInvalidDifficulty),
		errors.Is(err, game.ErrInvalidOperation),
		errors.Is(err, game.ErrUnknownCategory),
		errors.Is(err, game.ErrInvalidConfig):
		return "Invalid game options"
	case errors.Is(err, game.ErrPlayerNotInGame):
		return "You are not a player in this game"
	case errors.Is(err, game.ErrNoPlayers):
		return "Game has no players"
	default:
		return "Something went wrong"
	}
}

func (h *Hub) handleMessage(c *Client, msg inboundMessage) {
	var err error
	switch msg.Type {
	case "ping":
		h.sendTo(c, "pong", "pong")
	case "getActiveGames":
		h.sendTo(c, "activeGames", h.activeGames())
	case "createGame":
		err = h.handleCreateGame(c, msg.Payload)
	case "joinGame":
		err = h.handleJoinGame(c, msg.Payload)
	case "joinGameRoom":
		err = h.handleJoinGameRoom(c, msg.Payload)
	case "leaveGameRoom":
		err = h.handleLeaveGameRoom(c, msg.Payload)
	case "leaveGame":
		err = h.handleLeaveGame(c, msg.Payload)
	case "getGameState":
		err = h.handleGetGameState(c, msg.Payload)
	case "startGame":
		err = h.handleStartGame(c, msg.Payload)
	case "submitWordAnswer", "submitMathAnswer", "submitQuizAnswer":
		err = h.handleSubmit(c, msg.Type, msg.Payload)
	case "sendMessage":
		err = h.handleSendMessage(c, msg.Payload)
	case "getMessages":
		err = h.handleGetMessages(c, msg.Payload)
	case "sendInvitation":
		err = h.handleSendInvitation(c, msg.Payload)
	case "acceptInvitation":
		err = h.handleAcceptInvitation(c, msg.Payload)
	case "declineInvitation":
		err = h.handleDeclineInvitation(c, msg.Payload)
	default:
		log.Warn().Str("client_id", c.id).Str("event", msg.Type).Msg("unknown message type")
		h.sendError(c, "Unknown message type")
		return
	}

	if err != nil {
		log.Warn().Err(err).Str("client_id", c.id).Int64("user_id", c.identity.UserID).
			Str("event", msg.Type).Msg("action rejected")
		h.sendError(c, errorMessage(err))
	}
}

func (c *Client) player() game.Player {
	return game.Player{ID: c.identity.UserID, Username: c.identity.Username}
}

func (h *Hub) handleCreateGame(c *Client, raw json.RawMessage) error {
	p, err := decode[createGamePayload](raw)
	if err != nil {
		return err
	}
	name := p.Kind
	if name == "" {
		name = p.Type
	}
	kind, err := game.ParseKind(name)
	if err != nil {
		return err
	}

	cfg, err := p.Options.config()
	if err != nil {
		return err
	}
	g, err := h.registry.Create(kind, c.player(), cfg)
	if err != nil {
		return err
	}

	h.joinRoom(c, GameRoom(g.ID()))
	h.sendTo(c, "gameCreated", gin.H{
		"id":        g.ID(),
		"type":      kind,
		"creatorId": c.identity.UserID,
		"createdAt": g.CreatedAt(),
	})
	g.Announce()
	h.BroadcastActiveGames()
	h.systemMessage(g.ID(), fmt.Sprintf("%s created a new %s game", c.identity.Username, kind))
	return nil
}

func (h *Hub) handleJoinGame(c *Client, raw json.RawMessage) error {
	p, err := decode[gameIDPayload](raw)
	if err != nil {
		return err
	}

	room := GameRoom(p.GameID)
	member := h.joinRoom(c, room)
	st, added, err := h.registry.Join(p.GameID, c.player())
	if err != nil {
		if !member {
			h.leaveRoom(c, room)
		}
		return err
	}

	h.sendTo(c, "joinedGame", gin.H{"id": p.GameID, "type": st.Type})
	if !added {
		h.sendTo(c, "gameState", st)
		return nil
	}
	h.BroadcastActiveGames()
	h.systemMessage(p.GameID, c.identity.Username+" joined the game")
	return nil
}

// handleJoinGameRoom subscribes a spectator or reconnecting player.
func (h *Hub) handleJoinGameRoom(c *Client, raw json.RawMessage) error {
	p, err := decode[gameIDPayload](raw)
	if err != nil {
		return err
	}
	g, err := h.registry.Get(p.GameID)
	if err != nil {
		return err
	}
	h.joinRoom(c, GameRoom(p.GameID))
	h.sendTo(c, "gameState", g.State())
	return nil
}

func (h *Hub) handleLeaveGameRoom(c *Client, raw json.RawMessage) error {
	p, err := decode[gameIDPayload](raw)
	if err != nil {
		return err
	}
	h.leaveRoom(c, GameRoom(p.GameID))
	return nil
}

func (h *Hub) handleLeaveGame(c *Client, raw json.RawMessage) error {
	p, err := decode[gameIDPayload](raw)
	if err != nil {
		return err
	}

	_, removed, err := h.registry.Leave(p.GameID, c.identity.UserID)
	if err != nil {
		return err
	}
	for _, other := range h.clientsOf(c.identity.Username) {
		h.leaveRoom(other, GameRoom(p.GameID))
	}
	if !removed {
		h.systemMessage(p.GameID, c.identity.Username+" left the game")
	}
	h.BroadcastActiveGames()
	return nil
}

func (h *Hub) handleGetGameState(c *Client, raw json.RawMessage) error {
	p, err := decode[gameIDPayload](raw)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	st, err := h.games.GetCurrentGameState(ctx, p.GameID)
	if err != nil {
		return err
	}
	h.sendTo(c, "gameState", st)
	return nil
}

func (h *Hub) handleStartGame(c *Client, raw json.RawMessage) error {
	p, err := decode[gameIDPayload](raw)
	if err != nil {
		return err
	}
	g, err := h.registry.Get(p.GameID)
	if err != nil {
		return err
	}
	if !g.HasPlayer(c.identity.UserID) {
		return game.ErrPlayerNotInGame
	}
	if _, err := h.registry.Start(p.GameID); err != nil {
		return err
	}
	h.BroadcastActiveGames()
	h.systemMessage(p.GameID, "Game has started!")
	return nil
}

func (h *Hub) handleSubmit(c *Client, event string, raw json.RawMessage) error {
	var (
		gameID int64
		submit func() (game.SubmitResult, error)
	)
	switch event {
	case "submitWordAnswer":
		p, err := decode[wordAnswerPayload](raw)
		if err != nil {
			return err
		}
		gameID = p.GameID
		submit = func() (game.SubmitResult, error) { return h.registry.SubmitWord(p.GameID, c.identity.UserID, p.Word) }
	case "submitMathAnswer":
		p, err := decode[mathAnswerPayload](raw)
		if err != nil {
			return err
		}
		if p.Answer == nil {
			return fmt.Errorf("%w: missing answer", errBadRequest)
		}
		gameID = p.GameID
		submit = func() (game.SubmitResult, error) {
			return h.registry.SubmitMath(p.GameID, c.identity.UserID, *p.Answer)
		}
	default:
		p, err := decode[quizAnswerPayload](raw)
		if err != nil {
			return err
		}
		if p.SelectedOption == nil {
			return fmt.Errorf("%w: missing selected option", errBadRequest)
		}
		gameID = p.GameID
		submit = func() (game.SubmitResult, error) {
			return h.registry.SubmitQuiz(p.GameID, c.identity.UserID, *p.SelectedOption)
		}
	}

	res, err := submit()
	if err != nil {
		return err
	}

	h.sendTo(c, "submissionResult", submissionResultPayload{GameID: gameID, Submission: res.Submission})
	h.systemMessage(gameID, submissionMessage(res))
	return nil
}

func submissionMessage(res game.SubmitResult) string {
	sub := res.Submission
	switch {
	case sub.Word != "" && sub.IsCorrect:
		return fmt.Sprintf("%s submitted %q for %d points!", res.Username, sub.Word, sub.Score)
	case sub.Word != "":
		return res.Username + " submitted an invalid word."
	case sub.IsCorrect:
		return fmt.Sprintf("%s answered correctly for %d points!", res.Username, sub.Score)
	default:
		return res.Username + " answered incorrectly."
	}
}

func (h *Hub) handleSendMessage(c *Client, raw json.RawMessage) error {
	p, err := decode[sendMessagePayload](raw)
	if err != nil {
		return err
	}
	content := strings.TrimSpace(p.Content)
	if content == "" || utf8.RuneCountInString(content) > maxChatLength {
		return fmt.Errorf("%w: message must be 1-%d characters", errBadRequest, maxChatLength)
	}
	if p.GameID != nil {
		if _, err := h.registry.Get(*p.GameID); err != nil {
			return err
		}
	}

	h.publishChat("newMessage", models.Message{
		SenderID:   uint(c.identity.UserID),
		SenderName: c.identity.Username,
		Content:    content,
		GameID:     p.GameID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (h *Hub) handleGetMessages(c *Client, raw json.RawMessage) error {
	p, err := decode[getMessagesPayload](raw)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	msgs, err := h.games.Messages(ctx, p.GameID, p.Limit)
	if err != nil {
		return err
	}
	out := make([]ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = chatFromModel(m)
	}
	h.sendTo(c, "messageHistory", gin.H{"gameId": p.GameID, "messages": out})
	return nil
}

func (h *Hub) handleSendInvitation(c *Client, raw json.RawMessage) error {
	p, err := decode[invitationPayload](raw)
	if err != nil {
		return err
	}
	kind, err := game.ParseKind(p.Kind)
	if err != nil {
		return err
	}
	if p.To == "" || p.To == c.identity.Username {
		return fmt.Errorf("%w: invalid invitee", errBadRequest)
	}
	targets := h.clientsOf(p.To)
	if len(targets) == 0 {
		h.sendError(c, p.To+" is not online")
		return nil
	}

	h.inviteMu.Lock()
	h.invites[invitationKey{from: c.identity.Username, to: p.To}] = kind
	h.inviteMu.Unlock()

	for _, t := range targets {
		h.sendTo(t, "gameInvitation", gin.H{"from": c.identity.Username, "kind": kind})
	}
	log.Info().Str("from", c.identity.Username).Str("to", p.To).Str("kind", string(kind)).Msg("invitation sent")
	return nil
}

func (h *Hub) takeInvitation(from, to string) (game.Kind, bool) {
	h.inviteMu.Lock()
	defer h.inviteMu.Unlock()
	key := invitationKey{from: from, to: to}
	kind, ok := h.invites[key]
	delete(h.invites, key)
	return kind, ok
}

// handleAcceptInvitation starts a game of the invited kind between the
// inviter and the accepting user.
func (h *Hub) handleAcceptInvitation(c *Client, raw json.RawMessage) error {
	p, err := decode[invitationPayload](raw)
	if err != nil {
		return err
	}
	kind, ok := h.takeInvitation(p.From, c.identity.Username)
	inviters := h.clientsOf(p.From)
	if !ok || len(inviters) == 0 {
		h.sendError(c, "Invitation is no longer valid")
		return nil
	}

	inviter := inviters[0].player()
	g, err := h.registry.Create(kind, inviter, game.Config{})
	if err != nil {
		return err
	}
	if _, _, err := g.AddPlayer(c.player()); err != nil {
		return err
	}

	room := GameRoom(g.ID())
	payload := gin.H{"gameId": g.ID(), "kind": kind}
	for _, member := range append(inviters, h.clientsOf(c.identity.Username)...) {
		h.joinRoom(member, room)
		h.sendTo(member, "gameStart", payload)
	}
	h.systemMessage(g.ID(), fmt.Sprintf("%s accepted %s's invitation", c.identity.Username, p.From))
	if _, err := h.registry.Start(g.ID()); err != nil {
		return err
	}
	h.systemMessage(g.ID(), "Game has started!")
	return nil
}

func (h *Hub) handleDeclineInvitation(c *Client, raw json.RawMessage) error {
	p, err := decode[invitationPayload](raw)
	if err != nil {
		return err
	}
	if _, ok := h.takeInvitation(p.From, c.identity.Username); !ok {
		return nil
	}
	for _, t := range h.clientsOf(p.From) {
		h.sendTo(t, "invitationCancelled", gin.H{"by": c.identity.Username, "reason": "declined"})
	}
	return nil
}

// cancelInvitations withdraws every pending invitation involving username
// and tells the other side.
func (h *Hub) cancelInvitations(username string) {
	h.inviteMu.Lock()
	var notify []string
	for key := range h.invites {
		switch username {
		case key.from:
			notify = append(notify, key.to)
		case key.to:
			notify = append(notify, key.from)
		default:
			continue
		}
		delete(h.invites, key)
	}
	h.inviteMu.Unlock()

	for _, name := range notify {
		for _, t := range h.clientsOf(name) {
			h.sendTo(t, "invitationCancelled", gin.H{"by": username, "reason": "disconnected"})
		}
	}
}

// PendingInvitations counts invitations waiting for an answer.
func (h *Hub) PendingInvitations() int {
	h.inviteMu.Lock()
	defer h.inviteMu.Unlock()
	return len(h.invites)
}
