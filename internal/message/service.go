// Package message provides the append-only broadcast message log.
package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	dbpkg "github.com/memohai/wagate/internal/db"
	"github.com/memohai/wagate/internal/db/sqlc"
)

// DBService persists and reads message log entries.
type DBService struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

var _ Service = (*DBService)(nil)

// NewService creates a message service.
func NewService(log *slog.Logger, queries *sqlc.Queries) *DBService {
	if log == nil {
		log = slog.Default()
	}
	return &DBService{
		queries: queries,
		logger:  log.With(slog.String("service", "message")),
	}
}

// Append writes one entry to messages. A zero timestamp means now.
func (s *DBService) Append(ctx context.Context, entry Entry) (Entry, error) {
	if s.queries == nil {
		return Entry{}, errors.New("message queries not configured")
	}
	recipientID, err := dbpkg.ParseUUID(entry.RecipientID)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid recipient id: %w", err)
	}
	if strings.TrimSpace(entry.CompanyID) == "" {
		return Entry{}, errors.New("company id is required")
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	row, err := s.queries.CreateMessage(ctx, sqlc.CreateMessageParams{
		CompanyID:     entry.CompanyID,
		TenantID:      entry.TenantID,
		CompanyUserID: recipientID,
		Content:       entry.Content,
		MediaType:     string(normalizeKind(entry.MediaKind)),
		MediaUrl:      dbpkg.TextFromString(entry.MediaRef),
		Status:        string(normalizeStatus(entry.Status)),
		Timestamp:     dbpkg.Timestamptz(ts),
	})
	if err != nil {
		if dbpkg.IsForeignKeyViolation(err) {
			return Entry{}, fmt.Errorf("create message: %w: %s", ErrRecipientNotFound, entry.RecipientID)
		}
		return Entry{}, fmt.Errorf("create message: %w", err)
	}
	return toEntry(row), nil
}

// ListByCompany returns up to limit entries for the company, oldest first.
// limit outside (0, DefaultListLimit] is clamped to DefaultListLimit.
func (s *DBService) ListByCompany(ctx context.Context, companyID string, limit int) ([]Entry, error) {
	if s.queries == nil {
		return nil, errors.New("message queries not configured")
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, errors.New("company id is required")
	}
	rows, err := s.queries.ListMessagesByCompany(ctx, sqlc.ListMessagesByCompanyParams{
		CompanyID: companyID,
		MaxCount:  int32(clampLimit(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, toListedEntry(row))
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}

func normalizeKind(k MediaKind) MediaKind {
	switch k {
	case MediaImage, MediaVideo, MediaDocument, MediaAudio:
		return k
	default:
		return MediaNone
	}
}

func normalizeStatus(st Status) Status {
	if st == StatusFailed {
		return StatusFailed
	}
	return StatusSent
}

func toEntry(row sqlc.Message) Entry {
	return Entry{
		ID:          dbpkg.UUIDToString(row.ID),
		CompanyID:   row.CompanyID,
		TenantID:    row.TenantID,
		RecipientID: dbpkg.UUIDToString(row.CompanyUserID),
		Content:     row.Content,
		MediaKind:   MediaKind(row.MediaType),
		MediaRef:    dbpkg.TextToString(row.MediaUrl),
		Status:      Status(row.Status),
		Timestamp:   dbpkg.TimeFromPg(row.Timestamp),
	}
}

func toListedEntry(row sqlc.ListMessagesByCompanyRow) Entry {
	e := toEntry(sqlc.Message{
		ID:            row.ID,
		CompanyID:     row.CompanyID,
		TenantID:      row.TenantID,
		CompanyUserID: row.CompanyUserID,
		Content:       row.Content,
		MediaType:     row.MediaType,
		MediaUrl:      row.MediaUrl,
		Status:        row.Status,
		Timestamp:     row.Timestamp,
	})
	if row.SenderID.Valid {
		e.Sender = &Sender{
			ID:          dbpkg.UUIDToString(row.SenderID),
			Name:        dbpkg.TextToString(row.SenderName),
			PhoneNumber: dbpkg.TextToString(row.SenderPhoneNumber),
		}
	}
	return e
}
