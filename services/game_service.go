package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"eduarena/game"
	"eduarena/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStateTTL       = 2 * time.Hour
	DefaultPersistTimeout = 5 * time.Second
	mirrorBuffer          = 1024
)

type GameServiceOptions struct {
	StateTTL       time.Duration
	PersistTimeout time.Duration
}

// GameService carries the side effects of gameplay: finished games and chat
// are written to storage, and every state change is mirrored to redis. None
// of it ever blocks the game that produced it.
type GameService struct {
	registry       *game.Registry
	storage        StoragePort
	redis          *redis.Client
	stateTTL       time.Duration
	persistTimeout time.Duration

	mirror chan game.State
	wg     sync.WaitGroup
}

func NewGameService(registry *game.Registry, storage StoragePort, redis *redis.Client, opts GameServiceOptions) *GameService {
	if opts.StateTTL <= 0 {
		opts.StateTTL = DefaultStateTTL
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultPersistTimeout
	}
	return &GameService{
		registry:       registry,
		storage:        storage,
		redis:          redis,
		stateTTL:       opts.StateTTL,
		persistTimeout: opts.PersistTimeout,
		mirror:         make(chan game.State, mirrorBuffer),
	}
}

func stateKey(id int64) string {
	return "game:" + strconv.FormatInt(id, 10)
}

// RunMirror writes queued states to redis until ctx is done.
func (s *GameService) RunMirror(ctx context.Context) {
	if s.redis == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-s.mirror:
			if err := s.storeGameState(ctx, st); err != nil {
				log.Warn().Err(err).Int64("game_id", st.ID).Msg("failed to mirror game state")
			}
		}
	}
}

// MirrorState queues st for redis. When the queue is full the snapshot is
// dropped; a later change will replace it.
func (s *GameService) MirrorState(st game.State) {
	if s.redis == nil {
		return
	}
	select {
	case s.mirror <- st:
	default:
		log.Warn().Int64("game_id", st.ID).Msg("state mirror queue full, dropping snapshot")
	}
}

func (s *GameService) storeGameState(ctx context.Context, st game.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()
	if err := s.redis.Set(ctx, stateKey(st.ID), data, s.stateTTL).Err(); err != nil {
		return fmt.Errorf("failed to store in redis: %w", err)
	}
	log.Debug().Int64("game_id", st.ID).Str("status", string(st.Status)).Int("round", st.Round).Msg("stored game state")
	return nil
}

func (s *GameService) getGameState(ctx context.Context, id int64) (*game.State, error) {
	data, err := s.redis.Get(ctx, stateKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, game.ErrGameNotFound
		}
		return nil, err
	}

	var st game.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state %d: %w", id, err)
	}
	return &st, nil
}

// GetCurrentGameState returns the live state of a game, falling back to the
// last mirrored snapshot once the game has left the registry.
func (s *GameService) GetCurrentGameState(ctx context.Context, id int64) (game.State, error) {
	if g, err := s.registry.Get(id); err == nil {
		return g.State(), nil
	}
	if s.redis == nil {
		return game.State{}, game.ErrGameNotFound
	}

	st, err := s.getGameState(ctx, id)
	if err != nil {
		if !errors.Is(err, game.ErrGameNotFound) {
			log.Error().Err(err).Int64("game_id", id).Msg("redis error getting game state")
		}
		return game.State{}, game.ErrGameNotFound
	}
	return *st, nil
}

// PersistResult records a finished game and credits every player who
// earned points, in the background.
func (s *GameService) PersistResult(st game.State) {
	if s.storage == nil {
		return
	}
	s.background(func(ctx context.Context) {
		if _, err := s.storage.RecordGameResult(ctx, st); err != nil {
			log.Error().Err(err).Int64("game_id", st.ID).Msg("failed to record game result")
		}
		for _, p := range st.Players {
			if p.Score == 0 {
				continue
			}
			if err := s.storage.UpdateUserPoints(ctx, p.ID, p.Score); err != nil {
				log.Error().Err(err).Int64("game_id", st.ID).Int64("user_id", p.ID).Int("points", p.Score).
					Msg("failed to update user points")
			}
		}
		log.Info().Int64("game_id", st.ID).Str("kind", string(st.Type)).Msg("game result persisted")
	})
}

// PersistMessage stores a chat message in the background.
func (s *GameService) PersistMessage(msg models.Message) {
	if s.storage == nil {
		return
	}
	s.background(func(ctx context.Context) {
		if err := s.storage.CreateMessage(ctx, &msg); err != nil {
			log.Error().Err(err).Uint("user_id", msg.SenderID).Msg("failed to store message")
		}
	})
}

// Messages loads the recent history of a room.
func (s *GameService) Messages(ctx context.Context, gameID *int64, limit int) ([]models.Message, error) {
	if s.storage == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()
	return s.storage.GetMessages(ctx, gameID, limit)
}

func (s *GameService) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until every background write has finished.
func (s *GameService) Wait() {
	s.wg.Wait()
}
