// Package transporttest provides an in-memory ChatTransport for tests.
package transporttest

import (
	"context"
	"errors"
	"sync"

	"github.com/memohai/wagate/internal/transport"
)

// SentMessage records one Send call.
type SentMessage struct {
	Target  string
	Payload transport.Payload
}

// Fake is a scriptable transport. Zero value is not usable; use NewFake.
type Fake struct {
	TenantID     string
	Resumed      []byte
	Creds        []byte
	InitErr      error
	InitBlock    chan struct{}
	OnInitialize func(f *Fake)
	SendFunc     func(target string, payload transport.Payload) error

	events chan transport.Event

	mu        sync.Mutex
	closed    bool
	inits     int
	destroys  int
	logouts   int
	sent      []SentMessage
	destroyed chan struct{}
}

// NewFake creates a fake transport for tenantID.
func NewFake(tenantID string) *Fake {
	return &Fake{
		TenantID:  tenantID,
		Creds:     []byte("creds-" + tenantID),
		events:    make(chan transport.Event, 16),
		destroyed: make(chan struct{}),
	}
}

// Initialize implements transport.ChatTransport.
func (f *Fake) Initialize(ctx context.Context) error {
	f.mu.Lock()
	f.inits++
	f.mu.Unlock()
	if f.InitBlock != nil {
		select {
		case <-f.InitBlock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.InitErr != nil {
		return f.InitErr
	}
	if f.OnInitialize != nil {
		f.OnInitialize(f)
	}
	return nil
}

// Events implements transport.ChatTransport.
func (f *Fake) Events() <-chan transport.Event {
	return f.events
}

// Emit queues ev unless the fake has been closed.
func (f *Fake) Emit(ev transport.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.events <- ev
	return true
}

// EmitPairingCode emits a pairing code event.
func (f *Fake) EmitPairingCode(code string) bool {
	return f.Emit(transport.Event{Kind: transport.EventPairingCode, Code: code})
}

// EmitAuthenticated emits an authenticated event.
func (f *Fake) EmitAuthenticated() bool {
	return f.Emit(transport.Event{Kind: transport.EventAuthenticated})
}

// EmitAuthFailed emits an authentication failure.
func (f *Fake) EmitAuthFailed(err error) bool {
	return f.Emit(transport.Event{Kind: transport.EventAuthFailed, Err: err})
}

// Drop closes the event stream without a Destroy call, like a lost connection.
func (f *Fake) Drop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

// Send implements transport.ChatTransport.
func (f *Fake) Send(_ context.Context, target string, payload transport.Payload) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	if f.destroys > 0 {
		f.mu.Unlock()
		return transport.ErrNotConnected
	}
	f.sent = append(f.sent, SentMessage{Target: target, Payload: payload})
	fn := f.SendFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(target, payload)
	}
	return nil
}

// Credentials implements transport.ChatTransport.
func (f *Fake) Credentials() ([]byte, error) {
	if len(f.Creds) == 0 {
		return nil, errors.New("no credentials")
	}
	return f.Creds, nil
}

// Destroy implements transport.ChatTransport.
func (f *Fake) Destroy(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys++
	if f.destroys == 1 {
		close(f.destroyed)
	}
	f.closeLocked()
	return nil
}

// Logout implements transport.LogoutCapable.
func (f *Fake) Logout(context.Context) error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	return nil
}

func (f *Fake) closeLocked() {
	if f.closed {
		return
	}
	f.closed = true
	close(f.events)
}

// Destroyed is closed on the first Destroy call.
func (f *Fake) Destroyed() <-chan struct{} {
	return f.destroyed
}

// Sent returns a copy of all recorded sends.
func (f *Fake) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

// Counts returns how often Initialize, Destroy and Logout were called.
func (f *Fake) Counts() (inits, destroys, logouts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inits, f.destroys, f.logouts
}

// Factory hands out Fakes and remembers them.
type Factory struct {
	// Configure runs on each new Fake before it is returned.
	Configure func(f *Fake)
	Err       error

	mu      sync.Mutex
	created []*Fake
	notify  chan *Fake
}

// NewFactory returns a factory applying configure to every fake.
func NewFactory(configure func(f *Fake)) *Factory {
	return &Factory{Configure: configure, notify: make(chan *Fake, 64)}
}

// New implements transport.Factory.
func (fa *Factory) New(_ context.Context, tenantID string, credentials []byte) (transport.ChatTransport, error) {
	if fa.Err != nil {
		return nil, fa.Err
	}
	f := NewFake(tenantID)
	f.Resumed = credentials
	if fa.Configure != nil {
		fa.Configure(f)
	}
	fa.mu.Lock()
	fa.created = append(fa.created, f)
	fa.mu.Unlock()
	select {
	case fa.notify <- f:
	default:
	}
	return f, nil
}

// Created returns every fake produced so far.
func (fa *Factory) Created() []*Fake {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	out := make([]*Fake, len(fa.created))
	copy(out, fa.created)
	return out
}

// Next receives the next fake the factory creates.
func (fa *Factory) Next(ctx context.Context) (*Fake, error) {
	select {
	case f := <-fa.notify:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
