package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/osadchyi/contacts-api/internal/domain"
)

// Two creates racing on the same unique column can both pass the service
// pre-check; the loser's 23505 must come back as the same conflict
// sentinel the pre-check emits, never as a raw driver error.

func TestMapConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "name constraint",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "uq_contacts_name"},
			want: domain.ErrContactNameTaken,
		},
		{
			name: "email constraint",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "uq_contacts_email"},
			want: domain.ErrContactEmailTaken,
		},
		{
			name: "wrapped unique violation",
			err:  fmt.Errorf("insert failed: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_contacts_email"}),
			want: domain.ErrContactEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapConflict(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapConflictPassesThroughOtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"foreign key violation", &pgconn.PgError{Code: "23503"}},
		{"plain error", errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapConflict(tt.err)
			if !errors.Is(got, tt.err) {
				t.Errorf("mapConflict() = %v, want the original error", got)
			}
			if errors.Is(got, domain.ErrContactEmailTaken) || errors.Is(got, domain.ErrContactNameTaken) {
				t.Errorf("mapConflict() = %v, must not become a conflict", got)
			}
		})
	}
}

func TestMapEmailConflict(t *testing.T) {
	err := mapEmailConflict(&pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("mapEmailConflict() = %v, want ErrEmailTaken", err)
	}

	wrapped := fmt.Errorf("insert failed: %w", &pgconn.PgError{Code: "23505"})
	if !errors.Is(mapEmailConflict(wrapped), domain.ErrEmailTaken) {
		t.Errorf("mapEmailConflict(wrapped) = %v, want ErrEmailTaken", mapEmailConflict(wrapped))
	}
}

func TestMapEmailConflictPassesThroughOtherErrors(t *testing.T) {
	orig := &pgconn.PgError{Code: "42P01"}
	got := mapEmailConflict(orig)
	if !errors.Is(got, orig) {
		t.Errorf("mapEmailConflict() = %v, want the original error", got)
	}
	if errors.Is(got, domain.ErrEmailTaken) {
		t.Errorf("mapEmailConflict() = %v, must not become a conflict", got)
	}
}
