package game

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RegistryOptions configures a Registry. Zero values select defaults.
type RegistryOptions struct {
	// Defaults is merged under the config passed to Create.
	Defaults  Config
	Clock     Clock
	Validator WordValidator
	// Sources builds the content source of a new game.
	Sources   func(kind Kind, cfg Config) ContentSource
	Observer  Observer
	Scheduler *Scheduler
}

// Registry owns the live games, partitioned by kind. Ids are issued from a
// single counter and never reused.
type Registry struct {
	mu     sync.RWMutex
	nextID int64
	games  map[Kind]map[int64]*Game

	defaults  Config
	clock     Clock
	validator WordValidator
	sources   func(kind Kind, cfg Config) ContentSource
	observer  Observer
	scheduler *Scheduler
}

// LeaveResult describes one game a departing player was removed from.
type LeaveResult struct {
	GameID  int64
	State   State
	Removed bool
}

func NewRegistry(opts RegistryOptions) *Registry {
	r := &Registry{
		games:     make(map[Kind]map[int64]*Game, len(Kinds)),
		defaults:  opts.Defaults.withDefaults(),
		clock:     opts.Clock,
		validator: opts.Validator,
		sources:   opts.Sources,
		observer:  opts.Observer,
		scheduler: opts.Scheduler,
	}
	for _, k := range Kinds {
		r.games[k] = make(map[int64]*Game)
	}
	if r.clock == nil {
		r.clock = SystemClock
	}
	if r.validator == nil {
		r.validator = DefaultWordList()
	}
	if r.sources == nil {
		r.sources = func(_ Kind, cfg Config) ContentSource { return NewRandomSource(nil, cfg) }
	}
	return r
}

// SetObserver installs the observer handed to games created afterwards.
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// Create registers a new waiting game of kind with creator as its first
// player. Non-zero fields of cfg override the registry defaults.
func (r *Registry) Create(kind Kind, creator Player, cfg Config) (*Game, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	cfg = mergeConfig(r.defaults, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	g := New(id, kind, creator, cfg, Deps{
		Clock:     r.clock,
		Source:    r.sources(kind, cfg),
		Validator: r.validator,
		Observer:  r.observer,
	})
	r.games[kind][id] = g
	r.mu.Unlock()

	log.Info().Int64("game_id", id).Str("kind", string(kind)).Int64("user_id", creator.ID).Msg("game created")
	return g, nil
}

// Get finds a game by id across all kinds.
func (r *Registry) Get(id int64) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, byID := range r.games {
		if g, ok := byID[id]; ok {
			return g, nil
		}
	}
	return nil, ErrGameNotFound
}

// Join adds p to a waiting game. added is false when p was already a member.
func (r *Registry) Join(id int64, p Player) (s State, added bool, err error) {
	g, err := r.Get(id)
	if err != nil {
		return State{}, false, err
	}
	return g.AddPlayer(p)
}

// Start begins the first round of a game and schedules its ticks.
func (r *Registry) Start(id int64) (State, error) {
	g, err := r.Get(id)
	if err != nil {
		return State{}, err
	}
	s, err := g.Start()
	if err != nil {
		return s, err
	}
	if r.scheduler != nil {
		r.scheduler.Start(g)
	}
	log.Info().Int64("game_id", id).Str("kind", string(g.Kind())).Int("players", len(s.Players)).Msg("game started")
	return s, nil
}

// Leave removes a player from a game. removed reports that the game became
// empty and was dropped from the registry.
func (r *Registry) Leave(id, playerID int64) (s State, removed bool, err error) {
	g, err := r.Get(id)
	if err != nil {
		return State{}, false, err
	}
	s, remaining, err := g.RemovePlayer(playerID)
	if err != nil {
		return s, false, err
	}
	if remaining == 0 {
		r.drop(g)
		log.Info().Int64("game_id", id).Msg("game removed, no players left")
		return s, true, nil
	}
	r.settle(s)
	return s, false, nil
}

func (r *Registry) SubmitWord(id, playerID int64, word string) (SubmitResult, error) {
	return r.submit(id, func(g *Game) (SubmitResult, error) { return g.SubmitWord(playerID, word) })
}

func (r *Registry) SubmitMath(id, playerID int64, answer float64) (SubmitResult, error) {
	return r.submit(id, func(g *Game) (SubmitResult, error) { return g.SubmitMath(playerID, answer) })
}

func (r *Registry) SubmitQuiz(id, playerID int64, selected int) (SubmitResult, error) {
	return r.submit(id, func(g *Game) (SubmitResult, error) { return g.SubmitQuiz(playerID, selected) })
}

func (r *Registry) submit(id int64, fn func(g *Game) (SubmitResult, error)) (SubmitResult, error) {
	g, err := r.Get(id)
	if err != nil {
		return SubmitResult{}, err
	}
	res, err := fn(g)
	if err != nil {
		return res, err
	}
	r.settle(res.State)
	return res, nil
}

// settle stops the schedule of a game that a player action just finished.
func (r *Registry) settle(s State) {
	if s.Status == StatusFinished && r.scheduler != nil {
		r.scheduler.Stop(s.ID)
	}
}

// LeaveAll removes a player from every game they belong to.
func (r *Registry) LeaveAll(playerID int64) []LeaveResult {
	var results []LeaveResult
	for _, g := range r.all() {
		if !g.HasPlayer(playerID) {
			continue
		}
		s, removed, err := r.Leave(g.ID(), playerID)
		if err != nil {
			continue
		}
		results = append(results, LeaveResult{GameID: g.ID(), State: s, Removed: removed})
	}
	return results
}

// Waiting lists the games that can still be joined, oldest first.
func (r *Registry) Waiting() []Summary {
	var out []Summary
	for _, g := range r.all() {
		if s := g.Summary(); s.Status == StatusWaiting {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b Summary) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Remove drops a game regardless of its players.
func (r *Registry) Remove(id int64) bool {
	g, err := r.Get(id)
	if err != nil {
		return false
	}
	return r.drop(g)
}

// Sweep removes finished games older than retention and waiting games idle
// longer than idle, returning the removed ids.
func (r *Registry) Sweep(now time.Time, retention, idle time.Duration) []int64 {
	var removed []int64
	for _, g := range r.all() {
		if g.expired(now, retention, idle) && r.drop(g) {
			removed = append(removed, g.ID())
		}
	}
	if len(removed) > 0 {
		log.Info().Ints64("game_ids", removed).Msg("swept expired games")
	}
	return removed
}

// Reap runs Sweep every interval until ctx is done. onRemoved, when set, is
// called after each sweep that removed games.
func (r *Registry) Reap(ctx context.Context, interval, retention, idle time.Duration, onRemoved func([]int64)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ids := r.Sweep(r.clock.Now(), retention, idle); len(ids) > 0 && onRemoved != nil {
				onRemoved(ids)
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, byID := range r.games {
		n += len(byID)
	}
	return n
}

func (r *Registry) all() []*Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Game
	for _, byID := range r.games {
		for _, g := range byID {
			out = append(out, g)
		}
	}
	return out
}

// drop deletes g from its partition, stops its schedule and discards it.
func (r *Registry) drop(g *Game) bool {
	r.mu.Lock()
	_, ok := r.games[g.Kind()][g.ID()]
	delete(r.games[g.Kind()], g.ID())
	r.mu.Unlock()

	if r.scheduler != nil {
		r.scheduler.Stop(g.ID())
	}
	g.Discard()
	return ok
}

// mergeConfig overlays the non-zero fields of o onto base.
func mergeConfig(base, o Config) Config {
	if o.RoundDuration > 0 {
		base.RoundDuration = o.RoundDuration
	}
	if o.MaxRounds > 0 {
		base.MaxRounds = o.MaxRounds
	}
	if o.Policy != "" {
		base.Policy = o.Policy
	}
	if o.TargetScore > 0 {
		base.TargetScore = o.TargetScore
	}
	if o.QuizScoring != "" {
		base.QuizScoring = o.QuizScoring
	}
	if o.AdvanceWhenAllSubmitted {
		base.AdvanceWhenAllSubmitted = true
	}
	if o.Difficulty != "" {
		base.Difficulty = o.Difficulty
	}
	if o.Operation != "" {
		base.Operation = o.Operation
	}
	if o.LetterCount > 0 {
		base.LetterCount = o.LetterCount
	}
	if o.Category != "" {
		base.Category = o.Category
	}
	return base
}
