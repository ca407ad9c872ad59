package game

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultRoundDuration = 15 * time.Second
	DefaultMaxRounds     = 5

	// Upper bounds on client-chosen options.
	MaxRoundDuration = 5 * time.Minute
	MaxRoundsLimit   = 50
	MaxTargetScore   = 10000
	MinLetterCount   = 3
	MaxLetterCount   = 26
)

// Config holds the per-game tunables chosen at creation.
type Config struct {
	RoundDuration time.Duration
	MaxRounds     int
	Policy        CompletionPolicy
	// TargetScore ends a PolicyTargetScore game; MaxRounds, when positive,
	// still caps such a game.
	TargetScore             int
	QuizScoring             QuizScoring
	AdvanceWhenAllSubmitted bool
	Difficulty              Difficulty
	Operation               Operation
	LetterCount             int
	Category                Category
}

func DefaultConfig() Config {
	return Config{
		RoundDuration: DefaultRoundDuration,
		MaxRounds:     DefaultMaxRounds,
		Policy:        PolicyRounds,
		QuizScoring:   QuizScoringFirstCorrect,
		Difficulty:    DifficultyMedium,
		LetterCount:   DefaultLetterCount,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RoundDuration <= 0 {
		c.RoundDuration = d.RoundDuration
	}
	if c.Policy == "" {
		c.Policy = d.Policy
	}
	if c.Policy == PolicyRounds && c.MaxRounds <= 0 {
		c.MaxRounds = d.MaxRounds
	}
	if c.QuizScoring == "" {
		c.QuizScoring = d.QuizScoring
	}
	if c.Difficulty == "" {
		c.Difficulty = d.Difficulty
	}
	if c.LetterCount <= 0 {
		c.LetterCount = d.LetterCount
	}
	return c
}

// Validate checks the enumerated fields, the target of a target-score game
// and the numeric bounds. Empty fields are accepted and take defaults.
func (c Config) Validate() error {
	if c.Difficulty != "" {
		if _, err := ParseDifficulty(string(c.Difficulty)); err != nil {
			return err
		}
	}
	if _, err := ParseOperation(string(c.Operation)); err != nil {
		return err
	}
	if c.Category != "" && !HasCategory(c.Category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c.Category)
	}
	switch c.Policy {
	case "", PolicyRounds:
	case PolicyTargetScore:
		if c.TargetScore <= 0 {
			return fmt.Errorf("%w: target score must be positive, got %d", ErrInvalidConfig, c.TargetScore)
		}
	default:
		return fmt.Errorf("%w: unknown completion policy %q", ErrInvalidConfig, c.Policy)
	}
	switch c.QuizScoring {
	case "", QuizScoringFirstCorrect, QuizScoringDifficulty:
	default:
		return fmt.Errorf("%w: unknown quiz scoring %q", ErrInvalidConfig, c.QuizScoring)
	}
	if c.MaxRounds < 0 || c.RoundDuration < 0 || c.TargetScore < 0 {
		return fmt.Errorf("%w: negative value in config", ErrInvalidConfig)
	}
	if c.RoundDuration > MaxRoundDuration {
		return fmt.Errorf("%w: round duration %s exceeds %s", ErrInvalidConfig, c.RoundDuration, MaxRoundDuration)
	}
	if c.MaxRounds > MaxRoundsLimit {
		return fmt.Errorf("%w: max rounds %d exceeds %d", ErrInvalidConfig, c.MaxRounds, MaxRoundsLimit)
	}
	if c.TargetScore > MaxTargetScore {
		return fmt.Errorf("%w: target score %d exceeds %d", ErrInvalidConfig, c.TargetScore, MaxTargetScore)
	}
	if c.LetterCount != 0 && (c.LetterCount < MinLetterCount || c.LetterCount > MaxLetterCount) {
		return fmt.Errorf("%w: letter count must be between %d and %d, got %d",
			ErrInvalidConfig, MinLetterCount, MaxLetterCount, c.LetterCount)
	}
	return nil
}

type Player struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Submission is the judged answer of one player for the current round.
type Submission struct {
	PlayerID       int64     `json:"playerId"`
	Word           string    `json:"word,omitempty"`
	Answer         *float64  `json:"answer,omitempty"`
	SelectedOption *int      `json:"selectedOption,omitempty"`
	IsCorrect      bool      `json:"isCorrect"`
	Score          int       `json:"score"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// SubmitResult is returned to the submitting player.
type SubmitResult struct {
	Submission Submission
	Username   string
	State      State
}

// Observer is notified after every mutation with the post-mutation state.
// It is called with the game locked: implementations must not call back
// into the game and must not block.
type Observer interface {
	GameChanged(s State)
	GameFinished(s State)
}

type nopObserver struct{}

func (nopObserver) GameChanged(State)  {}
func (nopObserver) GameFinished(State) {}

// Deps are the collaborators of a Game. Zero values select defaults.
type Deps struct {
	Clock     Clock
	Source    ContentSource
	Validator WordValidator
	Observer  Observer
}

// Game is one running instance. All methods are safe for concurrent use;
// every mutation happens under the instance lock.
type Game struct {
	mu sync.Mutex

	id        int64
	kind      Kind
	cfg       Config
	clock     Clock
	source    ContentSource
	validator WordValidator
	observer  Observer

	players      []Player
	status       Status
	round        int
	timeLeft     int
	roundStart   time.Time
	createdAt    time.Time
	finishedAt   time.Time
	content      Content
	submissions  []Submission
	firstCorrect *int64
	winner       *int64
	discarded    bool

	finishPending bool
}

// New creates a waiting game with creator as its only player.
func New(id int64, kind Kind, creator Player, cfg Config, deps Deps) *Game {
	cfg = cfg.withDefaults()
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	if deps.Source == nil {
		deps.Source = NewRandomSource(nil, cfg)
	}
	if deps.Validator == nil {
		deps.Validator = DefaultWordList()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	creator.Score = 0
	return &Game{
		id:          id,
		kind:        kind,
		cfg:         cfg,
		clock:       deps.Clock,
		source:      deps.Source,
		validator:   deps.Validator,
		observer:    deps.Observer,
		players:     []Player{creator},
		status:      StatusWaiting,
		createdAt:   deps.Clock.Now(),
		submissions: []Submission{},
	}
}

func (g *Game) ID() int64            { return g.id }
func (g *Game) Kind() Kind           { return g.kind }
func (g *Game) Config() Config       { return g.cfg }
func (g *Game) CreatedAt() time.Time { return g.createdAt }

func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

func (g *Game) HasPlayer(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.indexOf(id) >= 0
}

// Discarded reports whether the game was emptied and dropped.
func (g *Game) Discarded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.discarded
}

func (g *Game) indexOf(id int64) int {
	for i, p := range g.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// AddPlayer joins p to a waiting game. Re-adding a current player is a
// no-op that succeeds in any status.
func (g *Game) AddPlayer(p Player) (State, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.discarded {
		return State{}, false, ErrGameNotFound
	}
	if g.indexOf(p.ID) >= 0 {
		return g.stateLocked(), false, nil
	}
	if g.status != StatusWaiting {
		return g.stateLocked(), false, ErrGameAlreadyStarted
	}

	p.Score = 0
	g.players = append(g.players, p)
	s := g.stateLocked()
	g.notifyLocked(s)
	return s, true, nil
}

// RemovePlayer drops a player. When the last player leaves the game is
// discarded without completing its round and no broadcast is made.
func (g *Game) RemovePlayer(id int64) (State, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.discarded {
		return State{}, 0, ErrGameNotFound
	}
	i := g.indexOf(id)
	if i < 0 {
		return g.stateLocked(), len(g.players), ErrPlayerNotInGame
	}
	g.players = append(g.players[:i], g.players[i+1:]...)

	if len(g.players) == 0 {
		g.discarded = true
		return g.stateLocked(), 0, nil
	}

	if g.status == StatusPlaying && g.cfg.AdvanceWhenAllSubmitted && g.allSubmittedLocked() {
		g.endRoundLocked()
	}
	s := g.stateLocked()
	g.notifyLocked(s)
	return s, len(g.players), nil
}

// Start moves a waiting game into its first round.
func (g *Game) Start() (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.discarded {
		return State{}, ErrGameNotFound
	}
	if g.status != StatusWaiting {
		return g.stateLocked(), ErrGameAlreadyStarted
	}
	if len(g.players) == 0 {
		return g.stateLocked(), ErrNoPlayers
	}

	g.status = StatusPlaying
	g.beginRoundLocked(1)
	s := g.stateLocked()
	g.notifyLocked(s)
	return s, nil
}

func (g *Game) SubmitWord(playerID int64, word string) (SubmitResult, error) {
	return g.submit(playerID, KindWord, func(now time.Time, _ bool) Submission {
		valid, score := JudgeWord(word, g.content.Letters, g.validator)
		return Submission{
			PlayerID:    playerID,
			Word:        strings.ToUpper(strings.TrimSpace(word)),
			IsCorrect:   valid,
			Score:       score,
			SubmittedAt: now,
		}
	})
}

func (g *Game) SubmitMath(playerID int64, answer float64) (SubmitResult, error) {
	return g.submit(playerID, KindMath, func(now time.Time, first bool) Submission {
		correct := MathCorrect(answer, g.content.Answer)
		sub := Submission{PlayerID: playerID, Answer: &answer, IsCorrect: correct, SubmittedAt: now}
		if correct {
			sub.Score = CorrectAnswerScore(first, QuizScoringFirstCorrect, g.cfg.Difficulty)
		}
		return sub
	})
}

func (g *Game) SubmitQuiz(playerID int64, selected int) (SubmitResult, error) {
	return g.submit(playerID, KindQuiz, func(now time.Time, first bool) Submission {
		correct := selected == g.content.CorrectOption
		sub := Submission{PlayerID: playerID, SelectedOption: &selected, IsCorrect: correct, SubmittedAt: now}
		if correct {
			sub.Score = CorrectAnswerScore(first, g.cfg.QuizScoring, g.content.Difficulty)
		}
		return sub
	})
}

func invalid(reason error) error {
	return fmt.Errorf("%w: %w", ErrInvalidSubmission, reason)
}

// submit runs the shared acceptance checks, then judges and records the
// answer. first tells judge whether the first-correct slot is still open.
func (g *Game) submit(playerID int64, kind Kind, judge func(now time.Time, first bool) Submission) (SubmitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.discarded {
		return SubmitResult{}, ErrGameNotFound
	}
	if g.kind != kind {
		return SubmitResult{}, invalid(ErrWrongKind)
	}
	if g.status != StatusPlaying {
		return SubmitResult{}, invalid(ErrNotPlaying)
	}
	idx := g.indexOf(playerID)
	if idx < 0 {
		return SubmitResult{}, invalid(ErrPlayerNotInGame)
	}
	now := g.clock.Now()
	if now.Sub(g.roundStart) >= g.cfg.RoundDuration {
		return SubmitResult{}, invalid(ErrRoundOver)
	}
	for _, s := range g.submissions {
		if s.PlayerID == playerID {
			return SubmitResult{}, invalid(ErrAlreadySubmitted)
		}
	}

	sub := judge(now, g.firstCorrect == nil)
	if sub.IsCorrect && g.firstCorrect == nil && kind != KindWord {
		id := playerID
		g.firstCorrect = &id
	}
	g.submissions = append(g.submissions, sub)
	g.players[idx].Score += sub.Score
	username := g.players[idx].Username

	g.timeLeft = g.remainingLocked(now)
	if g.cfg.AdvanceWhenAllSubmitted && g.allSubmittedLocked() {
		g.endRoundLocked()
	}

	s := g.stateLocked()
	g.notifyLocked(s)
	return SubmitResult{Submission: sub, Username: username, State: s}, nil
}

// Tick recomputes the remaining time from the wall clock and advances or
// finishes the game once the round has expired. It reports false, and
// changes nothing, unless the game is playing.
func (g *Game) Tick() (State, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.discarded || g.status != StatusPlaying {
		return g.stateLocked(), false
	}

	g.timeLeft = g.remainingLocked(g.clock.Now())
	if g.timeLeft == 0 {
		g.endRoundLocked()
	}
	s := g.stateLocked()
	g.notifyLocked(s)
	return s, true
}

// State returns the current broadcast representation.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

// Announce emits the current state to the observer under the game lock, so
// it is ordered with every broadcast made by a mutation.
func (g *Game) Announce() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.stateLocked()
	if !g.discarded {
		g.observer.GameChanged(s)
	}
	return s
}

func (g *Game) Summary() Summary {
	g.mu.Lock()
	defer g.mu.Unlock()

	refs := make([]PlayerRef, len(g.players))
	for i, p := range g.players {
		refs[i] = PlayerRef{ID: p.ID, Username: p.Username}
	}
	return Summary{ID: g.id, Type: g.kind, Status: g.status, Players: refs, CreatedAt: g.createdAt}
}

// expired reports whether a finished game has outlived retention, or a
// waiting game has idled past idle. Zero durations disable the check.
func (g *Game) expired(now time.Time, retention, idle time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.status {
	case StatusFinished:
		return retention > 0 && now.Sub(g.finishedAt) >= retention
	case StatusWaiting:
		return idle > 0 && now.Sub(g.createdAt) >= idle
	default:
		return false
	}
}

// Discard marks the game dropped: later calls fail with ErrGameNotFound and
// its scheduler stops at the next tick.
func (g *Game) Discard() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.discarded = true
}

// notifyLocked emits the post-mutation state, followed by the completion
// notice when this mutation finished the game.
func (g *Game) notifyLocked(s State) {
	g.observer.GameChanged(s)
	if g.finishPending {
		g.finishPending = false
		g.observer.GameFinished(s)
	}
}

func (g *Game) roundSeconds() int {
	return int(math.Ceil(g.cfg.RoundDuration.Seconds()))
}

// remainingLocked returns whole seconds left in the round, clamped to
// [0, roundSeconds].
func (g *Game) remainingLocked(now time.Time) int {
	elapsed := now.Sub(g.roundStart)
	if elapsed < 0 {
		elapsed = 0
	}
	left := g.cfg.RoundDuration - elapsed
	if left <= 0 {
		return 0
	}
	secs := int(math.Ceil(left.Seconds()))
	if limit := g.roundSeconds(); secs > limit {
		secs = limit
	}
	return secs
}

func (g *Game) allSubmittedLocked() bool {
	return len(g.players) > 0 && len(g.submissions) >= len(g.players)
}

func (g *Game) beginRoundLocked(n int) {
	g.round = n
	g.submissions = []Submission{}
	g.firstCorrect = nil
	g.content = g.nextContentLocked()
	g.roundStart = g.clock.Now()
	g.timeLeft = g.roundSeconds()
}

func (g *Game) endRoundLocked() {
	if g.shouldFinishLocked() {
		g.finishLocked()
		return
	}
	g.beginRoundLocked(g.round + 1)
}

func (g *Game) shouldFinishLocked() bool {
	capped := g.cfg.MaxRounds > 0 && g.round >= g.cfg.MaxRounds
	if g.cfg.Policy != PolicyTargetScore {
		return capped
	}
	for _, p := range g.players {
		if p.Score >= g.cfg.TargetScore {
			return true
		}
	}
	return capped
}

func (g *Game) finishLocked() {
	g.status = StatusFinished
	g.timeLeft = 0
	g.finishedAt = g.clock.Now()
	g.finishPending = true
	if id, ok := Winner(g.players); ok {
		g.winner = &id
	}
}

// nextContentLocked asks the source for a round and substitutes the fixed
// fallback when it fails or panics.
func (g *Game) nextContentLocked() (c Content) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int64("game_id", g.id).Str("kind", string(g.kind)).Interface("panic", r).
				Msg("round generation panicked, using fallback content")
			c = FallbackContent(g.kind)
		}
	}()

	c, err := g.source.Next(g.kind)
	if err == nil {
		err = c.validate(g.kind)
	}
	if err != nil {
		log.Error().Err(err).Int64("game_id", g.id).Str("kind", string(g.kind)).
			Msg("round generation failed, using fallback content")
		return FallbackContent(g.kind)
	}
	return c
}
