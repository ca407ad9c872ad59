package game

import "time"

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates tickers; tests substitute one that is driven by hand.
type TickerFactory interface {
	NewTicker(d time.Duration) Ticker
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

type systemTickers struct{}

func (systemTickers) NewTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

var SystemTickers TickerFactory = systemTickers{}
