package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// OutcomeKind is the result delivered through a Gate.
type OutcomeKind int

const (
	OutcomeQRReady OutcomeKind = iota + 1
	OutcomeConnected
	OutcomeFailed
	OutcomeTimeout
)

// Outcome is what a pairing waiter receives.
type Outcome struct {
	Kind       OutcomeKind
	QRImageURL string
	Err        error
}

// Gate delivers exactly one Outcome to one waiter. The first Fire wins; the
// armed timer fires OutcomeTimeout if nothing else has.
type Gate struct {
	once  sync.Once
	ch    chan Outcome
	timer atomic.Pointer[time.Timer]
}

// NewGate arms a gate that times out after timeout. A non-positive timeout
// disables the timer.
func NewGate(timeout time.Duration) *Gate {
	g := &Gate{ch: make(chan Outcome, 1)}
	if timeout > 0 {
		g.timer.Store(time.AfterFunc(timeout, func() {
			g.Fire(Outcome{Kind: OutcomeTimeout, Err: ErrPairingTimeout})
		}))
	}
	return g
}

// Fire delivers o if no outcome has been delivered yet and reports whether it did.
func (g *Gate) Fire(o Outcome) bool {
	fired := false
	g.once.Do(func() {
		g.ch <- o
		fired = true
		g.stopTimer()
	})
	return fired
}

// Wait blocks until an outcome is delivered or ctx ends.
func (g *Gate) Wait(ctx context.Context) (Outcome, error) {
	select {
	case o := <-g.ch:
		return o, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Close cancels the timer and turns later Fire calls into no-ops.
func (g *Gate) Close() {
	g.once.Do(func() {})
	g.stopTimer()
}

func (g *Gate) stopTimer() {
	if t := g.timer.Load(); t != nil {
		t.Stop()
	}
}
