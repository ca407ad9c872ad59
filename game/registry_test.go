package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(clk *fakeClock, sched *Scheduler) *Registry {
	return NewRegistry(RegistryOptions{
		Clock:     clk,
		Sources:   func(kind Kind, _ Config) ContentSource { return fixedSource(roundFor(kind)) },
		Scheduler: sched,
	})
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := newTestRegistry(newFakeClock(), nil)

	var ids []int64
	for _, kind := range []Kind{KindWord, KindMath, KindQuiz, KindMath} {
		g, err := r.Create(kind, alice, Config{})
		require.NoError(t, err)
		ids = append(ids, g.ID())

		got, err := r.Get(g.ID())
		require.NoError(t, err)
		assert.Same(t, g, got)
		assert.Equal(t, kind, got.Kind())
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
	assert.Equal(t, 4, r.Len())

	_, err := r.Get(99)
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = r.Create("chess", alice, Config{})
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = r.Create(KindQuiz, alice, Config{Category: "astrology"})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = r.Create(KindWord, alice, Config{LetterCount: 2_000_000_000})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, 4, r.Len())
}

func TestRegistryIDsAreNeverReused(t *testing.T) {
	r := newTestRegistry(newFakeClock(), nil)
	g, err := r.Create(KindWord, alice, Config{})
	require.NoError(t, err)
	require.True(t, r.Remove(g.ID()))
	assert.False(t, r.Remove(g.ID()))

	next, err := r.Create(KindWord, alice, Config{})
	require.NoError(t, err)
	assert.Greater(t, next.ID(), g.ID())
}

func TestRegistryConcurrentCreate(t *testing.T) {
	r := newTestRegistry(newFakeClock(), nil)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := r.Create(Kinds[i%len(Kinds)], Player{ID: int64(i), Username: "p"}, Config{})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[g.ID()] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	assert.Len(t, seen, 50)
	assert.Equal(t, 50, r.Len())
}

func TestRegistryConfigMerge(t *testing.T) {
	r := NewRegistry(RegistryOptions{
		Defaults: Config{RoundDuration: 20 * time.Second, MaxRounds: 3, Difficulty: DifficultyEasy},
		Clock:    newFakeClock(),
	})
	g, err := r.Create(KindMath, alice, Config{MaxRounds: 7})
	require.NoError(t, err)

	cfg := g.Config()
	assert.Equal(t, 20*time.Second, cfg.RoundDuration)
	assert.Equal(t, 7, cfg.MaxRounds)
	assert.Equal(t, DifficultyEasy, cfg.Difficulty)
	assert.Equal(t, PolicyRounds, cfg.Policy)
}

func TestRegistryJoinAndWaiting(t *testing.T) {
	r := newTestRegistry(newFakeClock(), nil)
	g1, _ := r.Create(KindWord, alice, Config{})
	g2, _ := r.Create(KindMath, bob, Config{})
	g3, _ := r.Create(KindQuiz, carol, Config{})

	s, added, err := r.Join(g1.ID(), bob)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Len(t, s.Players, 2)

	_, _, err = r.Join(404, bob)
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = r.Start(g2.ID())
	require.NoError(t, err)
	_, _, err = r.Join(g2.ID(), alice)
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)

	waiting := r.Waiting()
	require.Len(t, waiting, 2)
	assert.Equal(t, g1.ID(), waiting[0].ID)
	assert.Equal(t, g3.ID(), waiting[1].ID)
	assert.Equal(t, []PlayerRef{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, waiting[0].Players)
}

func TestRegistryLeave(t *testing.T) {
	r := newTestRegistry(newFakeClock(), nil)
	g, _ := r.Create(KindWord, alice, Config{})
	_, _, err := r.Join(g.ID(), bob)
	require.NoError(t, err)

	s, removed, err := r.Leave(g.ID(), alice.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, s.Players, 1)

	_, removed, err = r.Leave(g.ID(), bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Zero(t, r.Len())
	assert.True(t, g.Discarded())

	_, err = r.Get(g.ID())
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestRegistryLeaveAll(t *testing.T) {
	r := newTestRegistry(newFakeClock(), nil)
	solo, _ := r.Create(KindWord, alice, Config{})
	shared, _ := r.Create(KindMath, bob, Config{})
	_, _, err := r.Join(shared.ID(), alice)
	require.NoError(t, err)
	other, _ := r.Create(KindQuiz, carol, Config{})

	results := r.LeaveAll(alice.ID)
	require.Len(t, results, 2)

	byID := map[int64]LeaveResult{}
	for _, res := range results {
		byID[res.GameID] = res
	}
	assert.True(t, byID[solo.ID()].Removed)
	assert.False(t, byID[shared.ID()].Removed)
	assert.Len(t, byID[shared.ID()].State.Players, 1)

	assert.Equal(t, 2, r.Len())
	_, err = r.Get(other.ID())
	assert.NoError(t, err)
}

func TestRegistrySweep(t *testing.T) {
	clk := newFakeClock()
	r := newTestRegistry(clk, nil)

	idle, _ := r.Create(KindWord, alice, Config{})
	done, _ := r.Create(KindMath, bob, Config{MaxRounds: 1})
	_, err := r.Start(done.ID())
	require.NoError(t, err)
	running, _ := r.Create(KindQuiz, carol, Config{})
	_, err = r.Start(running.ID())
	require.NoError(t, err)

	clk.Advance(15 * time.Second)
	s, _ := done.Tick()
	require.Equal(t, StatusFinished, s.Status)

	assert.Empty(t, r.Sweep(clk.Now(), time.Minute, time.Hour))

	clk.Advance(time.Minute)
	assert.Equal(t, []int64{done.ID()}, r.Sweep(clk.Now(), time.Minute, time.Hour))

	clk.Advance(time.Hour)
	assert.Equal(t, []int64{idle.ID()}, r.Sweep(clk.Now(), time.Minute, time.Hour))

	assert.Equal(t, 1, r.Len())
	_, err = r.Get(running.ID())
	assert.NoError(t, err, "playing games are never swept")
}

func TestRegistrySchedulesStartedGames(t *testing.T) {
	tickers := newFakeTickers()
	sched := NewScheduler(time.Second, tickers)
	defer sched.Shutdown()

	r := newTestRegistry(newFakeClock(), sched)
	g, _ := r.Create(KindMath, alice, Config{})
	_, err := r.Start(g.ID())
	require.NoError(t, err)
	assert.True(t, sched.IsActive(g.ID()))
	tk := <-tickers.created

	_, removed, err := r.Leave(g.ID(), alice.ID)
	require.NoError(t, err)
	require.True(t, removed)
	assert.False(t, sched.IsActive(g.ID()))
	assert.Eventually(t, tk.stopped.Load, time.Second, 5*time.Millisecond)
}

func TestRegistryStopsScheduleWhenSubmitFinishesGame(t *testing.T) {
	tickers := newFakeTickers()
	sched := NewScheduler(time.Second, tickers)
	defer sched.Shutdown()

	r := newTestRegistry(newFakeClock(), sched)
	g, err := r.Create(KindMath, alice, Config{MaxRounds: 1, AdvanceWhenAllSubmitted: true})
	require.NoError(t, err)
	_, _, err = r.Join(g.ID(), bob)
	require.NoError(t, err)
	_, err = r.Start(g.ID())
	require.NoError(t, err)
	tk := <-tickers.created

	res, err := r.SubmitMath(g.ID(), alice.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, res.State.Status)
	assert.True(t, sched.IsActive(g.ID()))

	res, err = r.SubmitMath(g.ID(), bob.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, res.State.Status)
	assert.False(t, sched.IsActive(g.ID()), "the schedule ends with the submission that finished the game")
	assert.Eventually(t, tk.stopped.Load, time.Second, 5*time.Millisecond)

	_, err = r.SubmitWord(99, alice.ID, "rain")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestRegistryStopsScheduleWhenLeaveFinishesGame(t *testing.T) {
	tickers := newFakeTickers()
	sched := NewScheduler(time.Second, tickers)
	defer sched.Shutdown()

	r := newTestRegistry(newFakeClock(), sched)
	g, _ := r.Create(KindQuiz, alice, Config{MaxRounds: 1, AdvanceWhenAllSubmitted: true})
	_, _, err := r.Join(g.ID(), bob)
	require.NoError(t, err)
	_, err = r.Start(g.ID())
	require.NoError(t, err)
	<-tickers.created

	_, err = r.SubmitQuiz(g.ID(), alice.ID, 0)
	require.NoError(t, err)
	s, removed, err := r.Leave(g.ID(), bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, StatusFinished, s.Status)
	assert.False(t, sched.IsActive(g.ID()))
}
