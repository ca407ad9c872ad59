package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultTickInterval = time.Second

// Scheduler runs one ticker per playing game. A game's schedule ends on its
// own once the game finishes or is discarded.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	tickers  TickerFactory
	active   map[int64]chan struct{}
	wg       sync.WaitGroup
	closed   bool
}

func NewScheduler(interval time.Duration, tickers TickerFactory) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if tickers == nil {
		tickers = SystemTickers
	}
	return &Scheduler{
		interval: interval,
		tickers:  tickers,
		active:   make(map[int64]chan struct{}),
	}
}

// Start begins ticking g. It reports false if g is already scheduled or the
// scheduler has been shut down.
func (s *Scheduler) Start(g *Game) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, ok := s.active[g.ID()]; ok {
		return false
	}
	stop := make(chan struct{})
	s.active[g.ID()] = stop
	t := s.tickers.NewTicker(s.interval)

	s.wg.Add(1)
	go s.run(g, t, stop)
	log.Debug().Int64("game_id", g.ID()).Dur("interval", s.interval).Msg("round scheduler started")
	return true
}

func (s *Scheduler) run(g *Game, t Ticker, stop chan struct{}) {
	defer s.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C():
			st, ok := g.Tick()
			if !ok || st.Status == StatusFinished {
				s.release(g.ID(), stop)
				log.Debug().Int64("game_id", g.ID()).Str("status", string(st.Status)).Msg("round scheduler stopped")
				return
			}
		}
	}
}

// release drops the entry for id if it still belongs to stop.
func (s *Scheduler) release(id int64, stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.active[id]; ok && cur == stop {
		delete(s.active, id)
	}
}

// Stop cancels the schedule of a game. It is safe to call for games that are
// not scheduled.
func (s *Scheduler) Stop(id int64) {
	s.mu.Lock()
	stop, ok := s.active[id]
	if ok {
		delete(s.active, id)
	}
	s.mu.Unlock()

	if ok {
		close(stop)
	}
}

func (s *Scheduler) IsActive(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// Shutdown cancels every schedule and waits for the tickers to exit.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.closed = true
	stops := make([]chan struct{}, 0, len(s.active))
	for id, stop := range s.active {
		stops = append(stops, stop)
		delete(s.active, id)
	}
	s.mu.Unlock()

	for _, stop := range stops {
		close(stop)
	}
	s.wg.Wait()
}
