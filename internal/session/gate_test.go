package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateFirstFireWins(t *testing.T) {
	t.Parallel()

	for round := 0; round < 50; round++ {
		g := NewGate(time.Minute)
		const n = 16
		var wins atomic.Int32
		var winner atomic.Value
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				o := Outcome{Kind: OutcomeQRReady, QRImageURL: string(rune('a' + i))}
				if g.Fire(o) {
					wins.Add(1)
					winner.Store(o.QRImageURL)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		if got := wins.Load(); got != 1 {
			t.Fatalf("round %d: %d fires won, want 1", round, got)
		}
		out, err := g.Wait(context.Background())
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if out.QRImageURL != winner.Load().(string) {
			t.Fatalf("delivered %q, winner was %q", out.QRImageURL, winner.Load())
		}
		g.Close()
	}
}

func TestGateTimeout(t *testing.T) {
	t.Parallel()

	g := NewGate(20 * time.Millisecond)
	defer g.Close()
	out, err := g.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if out.Kind != OutcomeTimeout || !errors.Is(out.Err, ErrPairingTimeout) {
		t.Fatalf("expected timeout outcome, got %+v", out)
	}
	if g.Fire(Outcome{Kind: OutcomeQRReady}) {
		t.Fatal("fire after timeout must be a no-op")
	}
}

func TestGateFireBeatsTimeout(t *testing.T) {
	t.Parallel()

	g := NewGate(30 * time.Millisecond)
	defer g.Close()
	if !g.Fire(Outcome{Kind: OutcomeConnected}) {
		t.Fatal("first fire should win")
	}
	time.Sleep(60 * time.Millisecond)
	out, err := g.Wait(context.Background())
	if err != nil || out.Kind != OutcomeConnected {
		t.Fatalf("Wait() = %+v, %v; want connected", out, err)
	}
}

func TestGateCloseSilencesLaterFires(t *testing.T) {
	t.Parallel()

	g := NewGate(10 * time.Millisecond)
	g.Close()
	if g.Fire(Outcome{Kind: OutcomeQRReady}) {
		t.Fatal("fire after close must be a no-op")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	if _, err := g.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected no delivery after close, got err=%v", err)
	}
}

func TestGateWaitHonoursContext(t *testing.T) {
	t.Parallel()

	g := NewGate(0)
	defer g.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
