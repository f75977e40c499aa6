// Package loader keeps the result of the most recently issued request and
// drops responses that arrive for requests that have since been superseded.
package loader

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Ticket tags one issued request.
type Ticket uint64

// Guard hands out monotonically increasing tickets. Only the latest ticket
// is current; Invalidate retires all outstanding ones.
type Guard struct {
	seq atomic.Uint64
}

// Next issues a ticket that supersedes every earlier one.
func (g *Guard) Next() Ticket {
	return Ticket(g.seq.Add(1))
}

// Current reports whether t is still the latest ticket.
func (g *Guard) Current(t Ticket) bool {
	return uint64(t) == g.seq.Load()
}

// Invalidate retires every issued ticket without issuing a usable one.
// In-flight calls keep running; their results are discarded.
func (g *Guard) Invalidate() {
	g.seq.Add(1)
}

// FetchFunc performs one request for query q.
type FetchFunc[Q, T any] func(ctx context.Context, q Q) (T, error)

// State is a snapshot of a Loader.
type State[Q, T any] struct {
	Query   Q
	Value   T
	Err     error
	Loading bool
	Ticket  Ticket
}

// Loader runs fetches and commits a result only while its ticket is current
// (last request wins, not first response).
type Loader[Q, T any] struct {
	guard  Guard
	fetch  FetchFunc[Q, T]
	logger *zap.SugaredLogger
	name   string

	mu    sync.RWMutex
	state State[Q, T]
	wg    sync.WaitGroup
}

// New creates a Loader. A nil logger falls back to the global zap logger.
func New[Q, T any](name string, fetch FetchFunc[Q, T], logger *zap.SugaredLogger) *Loader[Q, T] {
	if logger == nil {
		logger = zap.S()
	}
	return &Loader[Q, T]{name: name, fetch: fetch, logger: logger}
}

// Load runs the fetch synchronously and commits its result if no newer Load
// or Invalidate happened meanwhile. It reports whether the result was
// committed; the fetch error is returned either way.
func (l *Loader[Q, T]) Load(ctx context.Context, q Q) (bool, error) {
	t := l.begin(q)
	v, err := l.fetch(ctx, q)
	return l.commit(t, v, err), err
}

// Start runs the fetch in a goroutine and returns its ticket. Use Wait to
// block until every started fetch has returned.
func (l *Loader[Q, T]) Start(ctx context.Context, q Q) Ticket {
	t := l.begin(q)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		v, err := l.fetch(ctx, q)
		l.commit(t, v, err)
	}()
	return t
}

// Wait blocks until all fetches started with Start have returned.
func (l *Loader[Q, T]) Wait() { l.wg.Wait() }

// Invalidate discards interest in all in-flight fetches and clears Loading.
func (l *Loader[Q, T]) Invalidate() {
	l.mu.Lock()
	l.guard.Invalidate()
	l.state.Loading = false
	l.mu.Unlock()
}

// Snapshot returns the latest committed state.
func (l *Loader[Q, T]) Snapshot() State[Q, T] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Loader[Q, T]) begin(q Q) Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.guard.Next()
	l.state.Query = q
	l.state.Loading = true
	l.state.Ticket = t
	return t
}

func (l *Loader[Q, T]) commit(t Ticket, v T, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.guard.Current(t) {
		l.logger.Debugw("loader_stale_response_dropped", "loader", l.name, "ticket", uint64(t))
		return false
	}
	if err != nil {
		// keep the last good value on failure
		l.state.Err = err
	} else {
		l.state.Value = v
		l.state.Err = nil
	}
	l.state.Loading = false
	return true
}
