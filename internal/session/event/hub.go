// Package event provides the in-process hub for tenant session lifecycle events.
package event

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBufferSize is the default per-subscriber channel buffer.
	DefaultBufferSize = 16
)

// Type identifies a session lifecycle transition.
type Type string

const (
	TypeQRReady      Type = "qr_ready"
	TypeConnected    Type = "connected"
	TypeAuthFailed   Type = "auth_failed"
	TypeDisconnected Type = "disconnected"
)

// Event is published whenever a tenant session changes state.
type Event struct {
	Type       Type      `json:"type"`
	TenantID   string    `json:"tenant_id"`
	QRImageURL string    `json:"qr_image_url,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher publishes events to subscribers.
type Publisher interface {
	Publish(event Event)
}

// Subscriber subscribes to tenant-scoped events. The returned cancel func
// closes the channel and may be called more than once.
type Subscriber interface {
	Subscribe(tenantID string, buffer int) (<-chan Event, func())
}

type subscription struct {
	ch     chan Event
	closed bool
}

// Hub is an in-process pub/sub dispatcher keyed by tenant.
type Hub struct {
	mu      sync.RWMutex
	tenants map[string]map[*subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{tenants: map[string]map[*subscription]struct{}{}}
}

// Publish delivers event to every subscriber of its tenant. It never blocks:
// a subscriber with a full buffer misses the event.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	tenantID := strings.TrimSpace(event.TenantID)
	if tenantID == "" {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.tenants[tenantID] {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribe registers a subscriber for tenantID. An empty tenant or a nil hub
// yields an already closed channel.
func (h *Hub) Subscribe(tenantID string, buffer int) (<-chan Event, func()) {
	tenantID = strings.TrimSpace(tenantID)
	if h == nil || tenantID == "" {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	sub := &subscription{ch: make(chan Event, buffer)}

	h.mu.Lock()
	set := h.tenants[tenantID]
	if set == nil {
		set = map[*subscription]struct{}{}
		h.tenants[tenantID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	return sub.ch, func() { h.unsubscribe(tenantID, sub) }
}

func (h *Hub) unsubscribe(tenantID string, sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	set := h.tenants[tenantID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.tenants, tenantID)
	}
}
