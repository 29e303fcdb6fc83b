package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/beauty-admin/internal/domain/contact"
)

const (
	listContactsSQL = `SELECT id, name, email, phone, company, notes, created_at
		FROM contacts ORDER BY name, id`

	insertContactSQL = `INSERT INTO contacts (id, name, email, phone, company, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	deleteContactSQL = `DELETE FROM contacts WHERE id = $1`
)

var _ contact.Repository = (*ContactRepository)(nil)

// ContactRepository implements contact.Repository backed by PostgreSQL.
type ContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository returns a ContactRepository that uses the given pool.
func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// List returns every contact ordered by name.
func (r *ContactRepository) List(ctx context.Context) ([]contact.Contact, error) {
	rows, err := r.pool.Query(ctx, listContactsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[contact.Contact])
}

// Create inserts a contact.
func (r *ContactRepository) Create(ctx context.Context, c *contact.Contact) error {
	_, err := r.pool.Exec(ctx, insertContactSQL, c.ID, c.Name, c.Email, c.Phone, c.Company, c.Notes, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating contact: %w", err)
	}
	return nil
}

// Delete removes a contact.
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteContactSQL, id)
	if err != nil {
		return fmt.Errorf("deleting contact %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return contact.ErrNotFound
	}
	return nil
}
