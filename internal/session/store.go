package session

import (
	"context"
	"strings"

	"github.com/memohai/wagate/internal/db"
	"github.com/memohai/wagate/internal/db/sqlc"
)

// PGStore persists session records in whatsapp_sessions.
type PGStore struct {
	queries *sqlc.Queries
}

// NewPGStore wraps generated queries.
func NewPGStore(queries *sqlc.Queries) *PGStore {
	return &PGStore{queries: queries}
}

// Get returns the tenant's record; found is false when none exists.
func (s *PGStore) Get(ctx context.Context, tenantID string) (Record, bool, error) {
	row, err := s.queries.GetWhatsAppSession(ctx, strings.TrimSpace(tenantID))
	if err != nil {
		if db.IsNotFound(err) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	return toRecord(row), true, nil
}

// Upsert creates or replaces the tenant's record.
func (s *PGStore) Upsert(ctx context.Context, record Record) error {
	creds := record.Credentials
	if creds == nil {
		creds = []byte{}
	}
	_, err := s.queries.UpsertWhatsAppSession(ctx, sqlc.UpsertWhatsAppSessionParams{
		TenantID:    strings.TrimSpace(record.TenantID),
		Credentials: creds,
		IsActive:    record.IsActive,
	})
	return err
}

// Deactivate marks the tenant's record inactive. A missing record is not an error.
func (s *PGStore) Deactivate(ctx context.Context, tenantID string) error {
	return s.queries.DeactivateWhatsAppSession(ctx, strings.TrimSpace(tenantID))
}

// ListActive returns all records eligible for resume.
func (s *PGStore) ListActive(ctx context.Context) ([]Record, error) {
	rows, err := s.queries.ListActiveWhatsAppSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row))
	}
	return out, nil
}

func toRecord(row sqlc.WhatsappSession) Record {
	return Record{
		TenantID:    row.TenantID,
		Credentials: row.Credentials,
		IsActive:    row.IsActive,
		UpdatedAt:   db.TimeFromPg(row.UpdatedAt),
	}
}
