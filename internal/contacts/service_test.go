package contacts

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/memohai/wagate/internal/db"
	"github.com/memohai/wagate/internal/db/sqlc"
)

func TestToRecipient(t *testing.T) {
	t.Parallel()

	id, err := db.ParseUUID("550e8400-e29b-41d4-a716-446655440000")
	if err != nil {
		t.Fatal(err)
	}
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	got := toRecipient(sqlc.CompanyUser{
		ID:          id,
		CompanyID:   "company-1",
		Name:        "Asha",
		PhoneNumber: " 8123456789 ",
		CreatedAt:   pgtype.Timestamptz{Time: created, Valid: true},
	})
	want := Recipient{
		ID:          "550e8400-e29b-41d4-a716-446655440000",
		CompanyID:   "company-1",
		Name:        "Asha",
		PhoneNumber: "8123456789",
		CreatedAt:   created,
	}
	if got != want {
		t.Fatalf("toRecipient() = %+v, want %+v", got, want)
	}
}

func TestListByCompanyValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil).ListByCompany(context.Background(), "c"); err == nil {
		t.Fatal("expected error without queries")
	}
	if _, err := NewService(sqlc.New(nil)).ListByCompany(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty company id")
	}
}
