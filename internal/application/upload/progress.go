// Package upload drives the cosmetic progress shown while an asset is
// uploaded. The percentage advances on a timer, not on bytes transferred.
package upload

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Defaults for a progress ticker.
const (
	DefaultStep     = 10
	DefaultCap      = 90
	DefaultInterval = 200 * time.Millisecond
)

// TickerConfig tunes a Ticker. Zero values take the defaults.
type TickerConfig struct {
	Step     int
	Cap      int
	Interval time.Duration
	// OnChange is called from the ticker goroutine, or from Complete,
	// every time the percentage moves.
	OnChange func(percent int)
}

// Ticker advances a percentage by Step every Interval until it reaches Cap.
// Only Complete moves it to 100.
type Ticker struct {
	cfg     TickerConfig
	percent atomic.Int32

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
	mu        sync.Mutex // serialises OnChange calls
}

// NewTicker creates a stopped ticker at 0%.
func NewTicker(cfg TickerConfig) *Ticker {
	if cfg.Step <= 0 {
		cfg.Step = DefaultStep
	}
	if cfg.Cap <= 0 || cfg.Cap >= 100 {
		cfg.Cap = DefaultCap
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Ticker{cfg: cfg, stop: make(chan struct{}), done: make(chan struct{})}
}

// Start launches the ticker goroutine. Later calls are no-ops.
// POST: the goroutine exits on Complete, Stop, or ctx cancellation
func (t *Ticker) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		go t.run(ctx)
	})
}

func (t *Ticker) run(ctx context.Context) {
	defer close(t.done)
	tick := time.NewTicker(t.cfg.Interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-tick.C:
			if !t.advance() {
				return
			}
		}
	}
}

// advance bumps the percentage and reports whether ticking should go on.
func (t *Ticker) advance() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := int(t.percent.Load())
	if cur >= t.cfg.Cap {
		return false
	}
	next := min(cur+t.cfg.Step, t.cfg.Cap)
	t.percent.Store(int32(next))
	t.notify(next)
	return next < t.cfg.Cap
}

// Percent returns the current percentage.
func (t *Ticker) Percent() int {
	return int(t.percent.Load())
}

// Complete jumps to 100% and stops the ticker.
func (t *Ticker) Complete() {
	t.Stop()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.percent.Swap(100) != 100 {
		t.notify(100)
	}
}

// Stop halts the ticker, leaving the percentage where it is.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Done is closed once the ticker goroutine has exited. It never closes if
// Start was not called.
func (t *Ticker) Done() <-chan struct{} {
	return t.done
}

func (t *Ticker) notify(p int) {
	if t.cfg.OnChange != nil {
		t.cfg.OnChange(p)
	}
}
