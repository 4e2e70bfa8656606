package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osadchyi/contacts-api/internal/domain"
)

type ContactRepository interface {
	Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
	FindByID(ctx context.Context, id, ownerID int64) (*domain.Contact, error)
	Update(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
	Delete(ctx context.Context, id, ownerID int64) error
	ListByOwner(ctx context.Context, ownerID int64, search string) ([]domain.Contact, error)
	ListWithBirthdays(ctx context.Context, ownerID int64) ([]domain.Contact, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	NameExists(ctx context.Context, firstName, lastName string, excludeID int64) (bool, error)
}

type contactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) ContactRepository {
	return &contactRepository{pool: pool}
}

const contactCols = `id, owner_id, first_name, last_name, email, phone, birthday, COALESCE(note, ''), created_at, updated_at`

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var c domain.Contact
	var birthday *time.Time
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &birthday, &c.Note, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if birthday != nil {
		c.Birthday = &domain.Date{Time: *birthday}
	}
	return &c, nil
}

func birthdayParam(d *domain.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.Time
}

// mapConflict translates a unique-index violation into the same conflict
// the application-level pre-check reports, so a race between two creates
// is indistinguishable from a sequential duplicate.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "uq_contacts_name" {
			return domain.ErrContactNameTaken
		}
		return domain.ErrContactEmailTaken
	}
	return err
}

func (r *contactRepository) Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	const q = `
		INSERT INTO contacts (owner_id, first_name, last_name, email, phone, birthday, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + contactCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanContact(r.pool.QueryRow(ctx, q,
		c.OwnerID, c.FirstName, c.LastName, c.Email, c.Phone, birthdayParam(c.Birthday), c.Note,
	))
	if err != nil {
		return nil, mapConflict(err)
	}
	return created, nil
}

func (r *contactRepository) FindByID(ctx context.Context, id, ownerID int64) (*domain.Contact, error) {
	// A contact owned by someone else is indistinguishable from a missing
	// one: both scan no rows.
	const q = `SELECT ` + contactCols + ` FROM contacts WHERE id = $1 AND owner_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanContact(r.pool.QueryRow(ctx, q, id, ownerID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *contactRepository) Update(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	const q = `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone = $6, birthday = $7, note = $8, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + contactCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	updated, err := scanContact(r.pool.QueryRow(ctx, q,
		c.ID, c.OwnerID, c.FirstName, c.LastName, c.Email, c.Phone, birthdayParam(c.Birthday), c.Note,
	))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapConflict(err)
	}
	return updated, nil
}

func (r *contactRepository) Delete(ctx context.Context, id, ownerID int64) error {
	const q = `DELETE FROM contacts WHERE id = $1 AND owner_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, ownerID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *contactRepository) ListByOwner(ctx context.Context, ownerID int64, search string) ([]domain.Contact, error) {
	const q = `
		SELECT ` + contactCols + `
		FROM contacts
		WHERE owner_id = $1
		  AND ($2 = '' OR first_name ILIKE $3 OR last_name ILIKE $3 OR email ILIKE $3)
		ORDER BY id ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID, search, "%"+search+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContacts(rows)
}

func (r *contactRepository) ListWithBirthdays(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	const q = `
		SELECT ` + contactCols + `
		FROM contacts
		WHERE owner_id = $1 AND birthday IS NOT NULL
		ORDER BY id ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContacts(rows)
}

func collectContacts(rows pgx.Rows) ([]domain.Contact, error) {
	var contacts []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// EmailExists checks contact email uniqueness across all owners.
func (r *contactRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM contacts WHERE email = $1 AND id <> $2)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, email, excludeID).Scan(&exists)
	return exists, err
}

// NameExists checks the (first name, last name) pair across all owners.
func (r *contactRepository) NameExists(ctx context.Context, firstName, lastName string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM contacts WHERE first_name = $1 AND last_name = $2 AND id <> $3)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, firstName, lastName, excludeID).Scan(&exists)
	return exists, err
}
