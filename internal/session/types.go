// Package session owns live tenant sessions: the registry, the pairing state
// machine and the single-fire gates that answer pairing requests.
package session

import (
	"context"
	"errors"
	"time"
)

// State is a session's position in the pairing lifecycle.
type State int

const (
	StateUnpaired State = iota
	StateAwaitingScan
	StateReady
	StateAuthFailed
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUnpaired:
		return "unpaired"
	case StateAwaitingScan:
		return "awaiting_scan"
	case StateReady:
		return "ready"
	case StateAuthFailed:
		return "auth_failed"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// terminal states belong to sessions already removed from the registry.
func (s State) terminal() bool {
	return s == StateAuthFailed || s == StateDisconnected
}

var (
	ErrSessionNotReady = errors.New("whatsapp is not initialized or not ready")
	ErrNoActiveSession = errors.New("no active whatsapp connection")
	ErrPairingTimeout  = errors.New("timeout while waiting for qr code")
	ErrTransportInit   = errors.New("failed to initialize whatsapp client")
	ErrAuthentication  = errors.New("whatsapp authentication failed")
	ErrPairingArtifact = errors.New("failed to generate qr code")
	ErrPersistence     = errors.New("session persistence failed")
	ErrShuttingDown    = errors.New("session manager shutting down")
)

// Record is the durable half of a session.
type Record struct {
	TenantID    string
	Credentials []byte
	IsActive    bool
	UpdatedAt   time.Time
}

// Store persists session records.
type Store interface {
	Get(ctx context.Context, tenantID string) (Record, bool, error)
	Upsert(ctx context.Context, record Record) error
	Deactivate(ctx context.Context, tenantID string) error
	ListActive(ctx context.Context) ([]Record, error)
}

// Status is the externally reported connection status.
type Status string

const (
	StatusConnected     Status = "connected"
	StatusQRReady       Status = "qr_ready"
	StatusSessionExists Status = "session_exists"
	StatusDisconnected  Status = "disconnected"
)

// StatusReport answers a status query.
type StatusReport struct {
	Status     Status `json:"status"`
	QRImageURL string `json:"qrImageUrl,omitempty"`
}

// Snapshot is a consistent copy of a live session's observable state.
type Snapshot struct {
	TenantID   string
	State      State
	QRImageURL string
}

// ResolveStatus classifies a tenant from its live session (nil when absent)
// and its stored record (nil when absent).
func ResolveStatus(live *Snapshot, record *Record) StatusReport {
	if live != nil {
		if live.State == StateReady {
			return StatusReport{Status: StatusConnected}
		}
		if live.QRImageURL != "" {
			return StatusReport{Status: StatusQRReady, QRImageURL: live.QRImageURL}
		}
	}
	if record != nil && record.IsActive {
		return StatusReport{Status: StatusSessionExists}
	}
	return StatusReport{Status: StatusDisconnected}
}

// PairingKind tells a pairing caller what it got back.
type PairingKind string

const (
	PairingConnected PairingKind = "connected"
	PairingQRReady   PairingKind = "qr_ready"
)

// PairingResult is the successful answer to RequestPairing.
type PairingResult struct {
	Kind       PairingKind
	QRImageURL string
}
