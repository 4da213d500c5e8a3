package event

import (
	"testing"
	"time"
)

func TestHubPublishScopedByTenant(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	streamA, cancelA := hub.Subscribe("tenant-a", 8)
	defer cancelA()
	streamB, cancelB := hub.Subscribe("tenant-b", 8)
	defer cancelB()

	hub.Publish(Event{Type: TypeQRReady, TenantID: "tenant-a", QRImageURL: "data:image/png;base64,xx"})

	select {
	case ev := <-streamA:
		if ev.Type != TypeQRReady || ev.QRImageURL == "" {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.At.IsZero() {
			t.Fatal("expected publish time to be stamped")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected event for tenant-a subscriber")
	}

	select {
	case <-streamB:
		t.Fatalf("did not expect tenant-b subscriber to receive tenant-a event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubCancelUnsubscribe(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	stream, cancel := hub.Subscribe("tenant-a", 8)
	other, cancelOther := hub.Subscribe("tenant-a", 8)
	defer cancelOther()
	cancel()
	cancel()

	select {
	case _, ok := <-stream:
		if ok {
			t.Fatalf("expected stream to be closed after cancel")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for stream close")
	}

	hub.Publish(Event{Type: TypeConnected, TenantID: "tenant-a"})
	select {
	case ev := <-other:
		if ev.Type != TypeConnected {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("remaining subscriber should still receive events")
	}
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	stream, cancel := hub.Subscribe("tenant-a", 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			hub.Publish(Event{Type: TypeConnected, TenantID: "tenant-a"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if len(stream) != 1 {
		t.Fatalf("expected exactly one buffered event, got %d", len(stream))
	}
}

func TestHubEmptyTenant(t *testing.T) {
	t.Parallel()

	var nilHub *Hub
	nilHub.Publish(Event{TenantID: "x"})
	ch, cancel := NewHub().Subscribe("  ", 0)
	defer cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel for empty tenant")
	}
}

func TestHubLastCancelDropsTenant(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	_, cancel := hub.Subscribe("tenant-a", 1)
	cancel()

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if _, ok := hub.tenants["tenant-a"]; ok {
		t.Fatal("expected tenant entry to be removed with its last subscriber")
	}
}
