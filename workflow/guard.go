package workflow

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when a submission is attempted while another one
// from the same flow instance is still outstanding. The UI disables the
// trigger for the duration; this guard backs that up.
var ErrInFlight = errors.New("workflow: submission already in flight")

// inFlightGuard admits at most one outstanding operation.
type inFlightGuard struct {
	mu   sync.Mutex
	busy bool
}

func (g *inFlightGuard) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return ErrInFlight
	}
	g.busy = true
	return nil
}

func (g *inFlightGuard) end() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}

// liveness tracks whether the owning flow instance is still mounted. Async
// completions consult it before applying state, so a torn-down screen never
// receives a late update.
type liveness struct {
	mu     sync.Mutex
	closed bool
}

func (l *liveness) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *liveness) alive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.closed
}
