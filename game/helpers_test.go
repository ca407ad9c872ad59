package game

import (
	"sync"
	"sync/atomic"
	"time"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: epoch} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

// fakeTickers hands every ticker it creates to the test through created.
type fakeTickers struct {
	created chan *fakeTicker
}

func newFakeTickers() *fakeTickers { return &fakeTickers{created: make(chan *fakeTicker, 16)} }

func (f *fakeTickers) NewTicker(time.Duration) Ticker {
	t := &fakeTicker{ch: make(chan time.Time)}
	f.created <- t
	return t
}

type chanObserver struct {
	changed  chan State
	finished chan State
}

func newChanObserver() *chanObserver {
	return &chanObserver{changed: make(chan State, 64), finished: make(chan State, 8)}
}

func (o *chanObserver) GameChanged(s State)  { o.changed <- s }
func (o *chanObserver) GameFinished(s State) { o.finished <- s }

func fixedSource(c Content) ContentSource {
	return ContentSourceFunc(func(Kind) (Content, error) { return c, nil })
}

var (
	wordRound = Content{Letters: []string{"A", "E", "I", "R", "S", "T", "N"}}
	mathRound = Content{Problem: "12 + 8", Answer: 20}
	quizRound = Content{
		Question:      "What is the chemical symbol for gold?",
		Options:       []string{"Go", "Gd", "Au", "Ag"},
		CorrectOption: 2,
		Category:      "science",
		Difficulty:    DifficultyHard,
	}
)

func roundFor(kind Kind) Content {
	switch kind {
	case KindWord:
		return wordRound
	case KindMath:
		return mathRound
	default:
		return quizRound
	}
}

var (
	alice = Player{ID: 1, Username: "alice"}
	bob   = Player{ID: 2, Username: "bob"}
	carol = Player{ID: 3, Username: "carol"}
)

func newTestGame(kind Kind, cfg Config, clk *fakeClock, obs Observer) *Game {
	return New(42, kind, alice, cfg, Deps{
		Clock:    clk,
		Source:   fixedSource(roundFor(kind)),
		Observer: obs,
	})
}

func ptr[T any](v T) *T { return &v }
