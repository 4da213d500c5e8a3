// Package contacts reads the company user directory that broadcasts target.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/memohai/wagate/internal/db"
	"github.com/memohai/wagate/internal/db/sqlc"
)

// Service lists recipients from company_users.
type Service struct {
	queries *sqlc.Queries
}

// NewService creates a directory service.
func NewService(queries *sqlc.Queries) *Service {
	return &Service{queries: queries}
}

// ListByCompany returns the company's recipients in creation order.
func (s *Service) ListByCompany(ctx context.Context, companyID string) ([]Recipient, error) {
	if s.queries == nil {
		return nil, errors.New("contacts queries not configured")
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, errors.New("company id is required")
	}
	rows, err := s.queries.ListCompanyUsers(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company users: %w", err)
	}
	out := make([]Recipient, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecipient(row))
	}
	return out, nil
}

func toRecipient(row sqlc.CompanyUser) Recipient {
	return Recipient{
		ID:          db.UUIDToString(row.ID),
		CompanyID:   row.CompanyID,
		Name:        row.Name,
		PhoneNumber: strings.TrimSpace(row.PhoneNumber),
		CreatedAt:   db.TimeFromPg(row.CreatedAt),
	}
}
