package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/memohai/wagate/internal/session/event"
	"github.com/memohai/wagate/internal/transport"
)

const persistTimeout = 10 * time.Second

// Manager drives tenant sessions through the pairing lifecycle.
//
// Every transition for a tenant happens under that session's mutex. Transport
// events are consumed by one goroutine per transport; initialization runs in
// its own goroutine and keeps going after a pairing caller has timed out.
type Manager struct {
	registry *Registry
	factory  transport.Factory
	store    Store
	render   Renderer
	events   event.Publisher
	timeout  time.Duration
	logger   *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a manager. A nil publisher drops lifecycle events.
func NewManager(log *slog.Logger, registry *Registry, factory transport.Factory, store Store, events event.Publisher, pairingTimeout time.Duration) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		registry: registry,
		factory:  factory,
		store:    store,
		render:   RenderDataURL,
		events:   events,
		timeout:  pairingTimeout,
		logger:   log.With(slog.String("service", "session")),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// SetRenderer replaces the pairing artifact renderer.
func (m *Manager) SetRenderer(r Renderer) {
	if r != nil {
		m.render = r
	}
}

// Registry exposes the registry the manager mutates.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// RequestPairing returns immediately when the tenant is connected or a QR
// code is cached; otherwise it starts (or joins) a pairing attempt and waits
// for the first of: QR code, authentication, failure, timeout.
func (m *Manager) RequestPairing(ctx context.Context, tenantID string) (PairingResult, error) {
	sess, gate, result, done, err := m.joinPairing(ctx, tenantID)
	if done || err != nil {
		return result, err
	}
	defer m.leave(sess, gate)

	out, err := gate.Wait(ctx)
	if err != nil {
		return PairingResult{}, err
	}
	switch out.Kind {
	case OutcomeQRReady:
		return PairingResult{Kind: PairingQRReady, QRImageURL: out.QRImageURL}, nil
	case OutcomeConnected:
		return PairingResult{Kind: PairingConnected}, nil
	case OutcomeTimeout:
		return PairingResult{}, ErrPairingTimeout
	default:
		if out.Err == nil {
			return PairingResult{}, ErrTransportInit
		}
		return PairingResult{}, out.Err
	}
}

func (m *Manager) joinPairing(ctx context.Context, tenantID string) (*Session, *Gate, PairingResult, bool, error) {
	for {
		sess, _ := m.registry.GetOrCreate(tenantID)
		sess.mu.Lock()
		if sess.state.terminal() {
			// Torn down between lookup and lock; its successor is a fresh entry.
			sess.mu.Unlock()
			continue
		}
		if sess.state == StateReady {
			sess.mu.Unlock()
			return nil, nil, PairingResult{Kind: PairingConnected}, true, nil
		}
		if sess.artifact != "" {
			url := sess.artifact
			sess.mu.Unlock()
			return nil, nil, PairingResult{Kind: PairingQRReady, QRImageURL: url}, true, nil
		}

		gate := NewGate(m.timeout)
		sess.waiters[gate] = struct{}{}
		if sess.state == StateUnpaired {
			creds, err := m.storedCredentials(ctx, tenantID)
			if err == nil {
				err = m.startLocked(ctx, sess, creds)
			} else {
				m.teardownLocked(sess, StateDisconnected, Outcome{Kind: OutcomeFailed, Err: err})
			}
			if err != nil {
				delete(sess.waiters, gate)
				sess.mu.Unlock()
				gate.Close()
				return nil, nil, PairingResult{}, true, err
			}
		}
		sess.mu.Unlock()
		return sess, gate, PairingResult{}, false, nil
	}
}

func (m *Manager) leave(sess *Session, gate *Gate) {
	gate.Close()
	sess.mu.Lock()
	delete(sess.waiters, gate)
	sess.mu.Unlock()
}

func (m *Manager) storedCredentials(ctx context.Context, tenantID string) ([]byte, error) {
	if m.store == nil {
		return nil, nil
	}
	rec, found, err := m.store.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !found || !rec.IsActive {
		return nil, nil
	}
	return rec.Credentials, nil
}

// startLocked moves an unpaired session to AwaitingScan and attaches a
// transport. Caller holds sess.mu.
func (m *Manager) startLocked(ctx context.Context, sess *Session, creds []byte) error {
	sess.state = StateAwaitingScan
	t, err := m.factory.New(context.WithoutCancel(ctx), sess.tenantID, creds)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrTransportInit, err)
		m.teardownLocked(sess, StateDisconnected, Outcome{Kind: OutcomeFailed, Err: err})
		return err
	}
	sess.transport = t
	m.logger.Info("session starting", slog.String("tenant_id", sess.tenantID), slog.Bool("resume", len(creds) > 0))

	m.wg.Add(1)
	go m.watch(sess, t)
	go m.initialize(sess, t)
	return nil
}

func (m *Manager) initialize(sess *Session, t transport.ChatTransport) {
	err := t.Initialize(m.baseCtx)
	if err == nil {
		return
	}
	m.logger.Error("transport initialize failed", slog.String("tenant_id", sess.tenantID), slog.Any("error", err))
	sess.mu.Lock()
	if sess.transport != t {
		sess.mu.Unlock()
		return
	}
	stale := m.teardownLocked(sess, StateDisconnected, Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("%w: %v", ErrTransportInit, err)})
	sess.mu.Unlock()
	m.destroy(stale)
	m.publish(event.Event{Type: event.TypeDisconnected, TenantID: sess.tenantID, Error: err.Error()})
}

func (m *Manager) watch(sess *Session, t transport.ChatTransport) {
	defer m.wg.Done()
	for ev := range t.Events() {
		switch ev.Kind {
		case transport.EventPairingCode:
			m.onPairingCode(sess, t, ev.Code)
		case transport.EventAuthenticated:
			m.onAuthenticated(sess, t)
		case transport.EventAuthFailed:
			m.onAuthFailed(sess, t, ev.Err)
		default:
			m.logger.Warn("unknown transport event", slog.String("tenant_id", sess.tenantID), slog.String("kind", string(ev.Kind)))
		}
	}
	m.onStreamClosed(sess, t)
}

func (m *Manager) onPairingCode(sess *Session, t transport.ChatTransport, code string) {
	url, renderErr := m.render(code)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.transport != t || sess.state != StateAwaitingScan {
		return
	}
	if renderErr != nil {
		m.logger.Error("render pairing code failed", slog.String("tenant_id", sess.tenantID), slog.Any("error", renderErr))
		sess.fireAllLocked(Outcome{Kind: OutcomeFailed, Err: renderErr})
		return
	}
	sess.artifact = url
	sess.fireAllLocked(Outcome{Kind: OutcomeQRReady, QRImageURL: url})
	m.publish(event.Event{Type: event.TypeQRReady, TenantID: sess.tenantID, QRImageURL: url})
}

func (m *Manager) onAuthenticated(sess *Session, t transport.ChatTransport) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.transport != t || sess.state != StateAwaitingScan {
		return
	}
	sess.state = StateReady
	sess.artifact = ""
	log := m.logger.With(slog.String("tenant_id", sess.tenantID))
	log.Info("session ready")

	if err := m.persistReady(sess.tenantID, t); err != nil {
		log.Error("persist session record failed", slog.Any("error", err))
		sess.fireAllLocked(Outcome{Kind: OutcomeFailed, Err: err})
	} else {
		sess.fireAllLocked(Outcome{Kind: OutcomeConnected})
	}
	m.publish(event.Event{Type: event.TypeConnected, TenantID: sess.tenantID})
}

func (m *Manager) persistReady(tenantID string, t transport.ChatTransport) error {
	if m.store == nil {
		return nil
	}
	creds, err := t.Credentials()
	if err != nil {
		return fmt.Errorf("%w: read credentials: %v", ErrPersistence, err)
	}
	ctx, cancel := context.WithTimeout(m.baseCtx, persistTimeout)
	defer cancel()
	if err := m.store.Upsert(ctx, Record{TenantID: tenantID, Credentials: creds, IsActive: true}); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (m *Manager) onAuthFailed(sess *Session, t transport.ChatTransport, cause error) {
	err := ErrAuthentication
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrAuthentication, cause)
	}
	sess.mu.Lock()
	if sess.transport != t {
		sess.mu.Unlock()
		return
	}
	stale := m.teardownLocked(sess, StateAuthFailed, Outcome{Kind: OutcomeFailed, Err: err})
	sess.mu.Unlock()

	log := m.logger.With(slog.String("tenant_id", sess.tenantID))
	log.Warn("session authentication failed", slog.Any("error", err))
	m.deactivate(sess.tenantID)
	m.destroy(stale)
	m.publish(event.Event{Type: event.TypeAuthFailed, TenantID: sess.tenantID, Error: err.Error()})
}

func (m *Manager) onStreamClosed(sess *Session, t transport.ChatTransport) {
	sess.mu.Lock()
	if sess.transport != t {
		sess.mu.Unlock()
		return
	}
	stale := m.teardownLocked(sess, StateDisconnected, Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("%w: connection closed", ErrTransportInit)})
	sess.mu.Unlock()

	m.logger.Warn("transport closed unexpectedly", slog.String("tenant_id", sess.tenantID))
	m.destroy(stale)
	m.publish(event.Event{Type: event.TypeDisconnected, TenantID: sess.tenantID})
}

// teardownLocked moves sess to a terminal state, detaches it from the
// registry and answers every waiter with o. The detached transport is
// returned for the caller to destroy after unlocking.
func (m *Manager) teardownLocked(sess *Session, state State, o Outcome) transport.ChatTransport {
	t := sess.transport
	sess.state = state
	sess.transport = nil
	sess.artifact = ""
	m.registry.RemoveIf(sess)
	sess.fireAllLocked(o)
	return t
}

// Status reports the tenant's connection status. When only an active record
// exists a resume is started in the background.
func (m *Manager) Status(ctx context.Context, tenantID string) (StatusReport, error) {
	var live *Snapshot
	if sess, ok := m.registry.Get(tenantID); ok {
		snap := sess.Snapshot()
		if !snap.State.terminal() {
			live = &snap
		}
	}
	var record *Record
	if m.store != nil {
		rec, found, err := m.store.Get(ctx, tenantID)
		if err != nil {
			return StatusReport{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if found {
			record = &rec
		}
	}
	report := ResolveStatus(live, record)
	if report.Status == StatusSessionExists && live == nil {
		m.Resume(ctx, tenantID, record.Credentials)
	}
	return report, nil
}

// Resume re-enters AwaitingScan with stored credentials unless the tenant
// already has a live session. It reports whether a resume was started.
func (m *Manager) Resume(ctx context.Context, tenantID string, creds []byte) bool {
	sess, created := m.registry.GetOrCreate(tenantID)
	if !created {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state != StateUnpaired {
		return false
	}
	if err := m.startLocked(ctx, sess, creds); err != nil {
		m.logger.Error("resume session failed", slog.String("tenant_id", tenantID), slog.Any("error", err))
		return false
	}
	return true
}

// Disconnect marks the tenant's record inactive, then tears down its live
// session. Paired devices are logged out. If the record cannot be updated the
// session is left running.
func (m *Manager) Disconnect(ctx context.Context, tenantID string) error {
	sess, ok := m.registry.Get(tenantID)
	if !ok {
		return ErrNoActiveSession
	}
	sess.mu.Lock()
	if sess.transport == nil {
		sess.mu.Unlock()
		return ErrNoActiveSession
	}
	if m.store != nil {
		if err := m.store.Deactivate(ctx, tenantID); err != nil {
			sess.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	wasReady := sess.state == StateReady
	t := m.teardownLocked(sess, StateDisconnected, Outcome{Kind: OutcomeFailed, Err: ErrNoActiveSession})
	sess.mu.Unlock()

	log := m.logger.With(slog.String("tenant_id", tenantID))
	if lc, ok := t.(transport.LogoutCapable); ok && wasReady {
		if err := lc.Logout(ctx); err != nil {
			log.Warn("logout failed", slog.Any("error", err))
		}
	}
	if err := t.Destroy(ctx); err != nil {
		log.Warn("destroy transport failed", slog.Any("error", err))
	}
	m.publish(event.Event{Type: event.TypeDisconnected, TenantID: tenantID})
	log.Info("session disconnected")
	return nil
}

// ReadySession returns the tenant's session if it can send.
func (m *Manager) ReadySession(tenantID string) (*Session, error) {
	sess, ok := m.registry.Get(tenantID)
	if !ok || !sess.IsReady() {
		return nil, ErrSessionNotReady
	}
	return sess, nil
}

// Bootstrap resumes every session whose record is active.
func (m *Manager) Bootstrap(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}
	records, err := m.store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	started := 0
	for _, rec := range records {
		if m.Resume(ctx, rec.TenantID, rec.Credentials) {
			started++
		}
	}
	m.logger.Info("sessions resumed", slog.Int("count", started), slog.Int("active_records", len(records)))
	return started, nil
}

// Shutdown destroys every live transport. Records stay active so the next
// process can resume them.
func (m *Manager) Shutdown(ctx context.Context) error {
	var stale []transport.ChatTransport
	for _, sess := range m.registry.Sessions() {
		sess.mu.Lock()
		if t := m.teardownLocked(sess, StateDisconnected, Outcome{Kind: OutcomeFailed, Err: ErrShuttingDown}); t != nil {
			stale = append(stale, t)
		}
		sess.mu.Unlock()
	}
	m.cancel()
	for _, t := range stale {
		if err := t.Destroy(ctx); err != nil {
			m.logger.Warn("destroy transport failed", slog.Any("error", err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) deactivate(tenantID string) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(m.baseCtx, persistTimeout)
	defer cancel()
	if err := m.store.Deactivate(ctx, tenantID); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("deactivate session record failed", slog.String("tenant_id", tenantID), slog.Any("error", err))
	}
}

func (m *Manager) destroy(t transport.ChatTransport) {
	if t == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := t.Destroy(ctx); err != nil {
		m.logger.Warn("destroy transport failed", slog.Any("error", err))
	}
}

func (m *Manager) publish(ev event.Event) {
	if m.events != nil {
		m.events.Publish(ev)
	}
}
