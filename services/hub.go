package services

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"sync"
	"time"

	"eduarena/game"
	"eduarena/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	GlobalRoom     = "global"
	SystemUsername = "System"

	DefaultMessageRate  = 5
	DefaultMessageBurst = 10
)

// GameRoom names the broadcast room of a game.
func GameRoom(id int64) string {
	return "game:" + strconv.FormatInt(id, 10)
}

// Message is the envelope of every frame sent to a client.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HubOptions struct {
	MessageRate  float64
	MessageBurst int
}

type invitationKey struct {
	from string
	to   string
}

// Hub owns the realtime connections and their rooms. It routes player
// actions into the registry and fans game state out to each game's room.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex

	inviteMu sync.Mutex
	invites  map[invitationKey]game.Kind

	registry *game.Registry
	games    *GameService
	opts     HubOptions
}

func NewHub(registry *game.Registry, games *GameService, opts HubOptions) *Hub {
	if opts.MessageRate <= 0 {
		opts.MessageRate = DefaultMessageRate
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = DefaultMessageBurst
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      map[string]map[*Client]bool{GlobalRoom: {}},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		invites:    make(map[invitationKey]game.Kind),
		registry:   registry,
		games:      games,
		opts:       opts,
	}
}

// Run serves registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.rooms[GlobalRoom][client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Info().Str("client_id", client.id).Int64("user_id", client.identity.UserID).
				Str("username", client.identity.Username).Int("clients", total).Msg("client registered")
			h.broadcastOnlineUsers()

		case client := <-h.unregister:
			h.mutex.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				for name, members := range h.rooms {
					delete(members, client)
					if len(members) == 0 && name != GlobalRoom {
						delete(h.rooms, name)
					}
				}
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()

			if ok {
				log.Info().Str("client_id", client.id).Int64("user_id", client.identity.UserID).
					Int("clients", total).Msg("client unregistered")
				h.handleDisconnect(client)
			}

		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.rooms = map[string]map[*Client]bool{GlobalRoom: {}}
			h.mutex.Unlock()
			return
		}
	}
}

// RegisterClient attaches an authenticated connection and starts its pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn, identity Identity) *Client {
	client := &Client{
		hub:      h,
		id:       uuid.NewString(),
		socket:   conn,
		send:     make(chan []byte, sendBuffer),
		identity: identity,
		limiter:  rate.NewLimiter(rate.Limit(h.opts.MessageRate), h.opts.MessageBurst),
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return client
	}

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// handleDisconnect removes a departed user from their games once their
// last connection is gone.
func (h *Hub) handleDisconnect(c *Client) {
	h.broadcastOnlineUsers()

	if len(h.clientsOf(c.identity.Username)) > 0 {
		return
	}
	h.cancelInvitations(c.identity.Username)

	changed := false
	for _, res := range h.registry.LeaveAll(c.identity.UserID) {
		changed = true
		if res.Removed {
			log.Info().Int64("game_id", res.GameID).Int64("user_id", c.identity.UserID).Msg("game dropped after last player disconnected")
			continue
		}
		h.systemMessage(res.GameID, c.identity.Username+" left the game")
	}
	if changed {
		h.BroadcastActiveGames()
	}
}

func encode(messageType string, payload any) ([]byte, bool) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", messageType).Msg("error marshaling message")
		return nil, false
	}
	return data, true
}

// deliver queues data for c. Callers hold h.mutex. A client whose buffer is
// full is dropped.
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		log.Warn().Str("client_id", c.id).Int64("user_id", c.identity.UserID).Msg("client send buffer full, dropping connection")
		go h.UnregisterClient(c)
	}
}

func (h *Hub) sendTo(c *Client, messageType string, payload any) {
	data, ok := encode(messageType, payload)
	if !ok {
		return
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if h.clients[c] {
		h.deliver(c, data)
	}
}

func (h *Hub) sendError(c *Client, message string) {
	h.sendTo(c, "gameError", gin.H{"message": message})
}

// BroadcastToRoom sends one message to every member of room. It never
// blocks, so it may be called while a game is locked.
func (h *Hub) BroadcastToRoom(room, messageType string, payload any) {
	data, ok := encode(messageType, payload)
	if !ok {
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	count := 0
	for c := range h.rooms[room] {
		h.deliver(c, data)
		count++
	}
	log.Debug().Str("room", room).Str("event", messageType).Int("clients", count).Msg("broadcast")
}

func (h *Hub) BroadcastActiveGames() {
	h.BroadcastToRoom(GlobalRoom, "activeGames", h.activeGames())
}

func (h *Hub) activeGames() []game.Summary {
	games := h.registry.Waiting()
	if games == nil {
		games = []game.Summary{}
	}
	return games
}

func (h *Hub) broadcastOnlineUsers() {
	h.BroadcastToRoom(GlobalRoom, "onlineUsers", h.OnlineUsers())
}

// OnlineUsers lists the usernames with at least one open connection.
func (h *Hub) OnlineUsers() []string {
	h.mutex.RLock()
	seen := make(map[string]bool, len(h.clients))
	for c := range h.clients {
		seen[c.identity.Username] = true
	}
	h.mutex.RUnlock()

	users := make([]string, 0, len(seen))
	for name := range seen {
		users = append(users, name)
	}
	slices.Sort(users)
	return users
}

func (h *Hub) clientsOf(username string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	var out []*Client
	for c := range h.clients {
		if c.identity.Username == username {
			out = append(out, c)
		}
	}
	return out
}

// joinRoom reports whether c was already a member.
func (h *Hub) joinRoom(c *Client, room string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if !h.clients[c] {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	already := members[c]
	members[c] = true
	return already
}

func (h *Hub) leaveRoom(c *Client, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 && room != GlobalRoom {
			delete(h.rooms, room)
		}
	}
}

// RoomSize counts the connections in room.
func (h *Hub) RoomSize(room string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[room])
}

// ChatMessage is the wire form of a chat or system message.
type ChatMessage struct {
	ID         uint      `json:"id,omitempty"`
	SenderID   int64     `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	GameID     *int64    `json:"gameId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func chatFromModel(m models.Message) ChatMessage {
	return ChatMessage{
		ID:         m.ID,
		SenderID:   int64(m.SenderID),
		SenderName: m.SenderName,
		Content:    m.Content,
		GameID:     m.GameID,
		CreatedAt:  m.CreatedAt,
	}
}

// publishChat broadcasts a message to its room and stores it.
func (h *Hub) publishChat(event string, m models.Message) {
	room := GlobalRoom
	if m.GameID != nil {
		room = GameRoom(*m.GameID)
	}
	h.BroadcastToRoom(room, event, chatFromModel(m))
	h.games.PersistMessage(m)
}

// systemMessage posts a server generated line to a game room.
func (h *Hub) systemMessage(gameID int64, content string) {
	id := gameID
	h.publishChat("gameMessage", models.Message{
		SenderID:   models.SystemSenderID,
		SenderName: SystemUsername,
		Content:    content,
		GameID:     &id,
		CreatedAt:  time.Now().UTC(),
	})
}

type gameOverPayload struct {
	GameID  int64         `json:"gameId"`
	Winner  *game.Player  `json:"winner"`
	IsTie   bool          `json:"isTie"`
	Players []game.Player `json:"players"`
}

// GameChanged implements game.Observer.
func (h *Hub) GameChanged(s game.State) {
	h.BroadcastToRoom(GameRoom(s.ID), "gameState", s)
	h.games.MirrorState(s)
}

// GameFinished implements game.Observer.
func (h *Hub) GameFinished(s game.State) {
	payload := gameOverPayload{GameID: s.ID, Players: s.Players}
	winner, ok := s.WinnerPlayer()
	if ok {
		payload.Winner = &winner
	} else {
		payload.IsTie = len(s.Players) > 1
	}
	h.BroadcastToRoom(GameRoom(s.ID), "gameOver", payload)

	if ok {
		h.systemMessage(s.ID, "Game over! "+winner.Username+" wins with "+strconv.Itoa(winner.Score)+" points!")
	} else {
		h.systemMessage(s.ID, "Game over! It's a tie!")
	}
	h.games.PersistResult(s)
	log.Info().Int64("game_id", s.ID).Str("kind", string(s.Type)).Bool("tie", !ok).Msg("game finished")
}
