package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/beauty-admin/internal/domain/pricing"
	"github.com/xenking/beauty-admin/internal/domain/special"
)

const (
	listSpecialsSQL = `SELECT id, name, scope, target_ids, discount_type, discount_value, starts_at, ends_at, created_at
		FROM specials ORDER BY starts_at DESC, id`

	insertSpecialSQL = `INSERT INTO specials
		(id, name, scope, target_ids, discount_type, discount_value, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

var _ special.Repository = (*SpecialRepository)(nil)

// SpecialRepository implements special.Repository backed by PostgreSQL.
type SpecialRepository struct {
	pool *pgxpool.Pool
}

// NewSpecialRepository returns a SpecialRepository that uses the given pool.
func NewSpecialRepository(pool *pgxpool.Pool) *SpecialRepository {
	return &SpecialRepository{pool: pool}
}

// List returns every special, latest start first.
func (r *SpecialRepository) List(ctx context.Context) ([]special.Special, error) {
	rows, err := r.pool.Query(ctx, listSpecialsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing specials: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (special.Special, error) {
		var (
			s               special.Special
			scope, discount string
		)
		err := row.Scan(&s.ID, &s.Name, &scope, &s.TargetIDs, &discount, &s.DiscountValue,
			&s.StartsAt, &s.EndsAt, &s.CreatedAt)
		s.Scope = special.Scope(scope)
		s.DiscountType = pricing.DiscountType(discount)
		return s, err
	})
}

// Create inserts a new special.
func (r *SpecialRepository) Create(ctx context.Context, s *special.Special) error {
	_, err := r.pool.Exec(ctx, insertSpecialSQL,
		s.ID, s.Name, string(s.Scope), nonNil(s.TargetIDs), string(s.DiscountType), s.DiscountValue,
		s.StartsAt, s.EndsAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating special %q: %w", s.Name, err)
	}
	return nil
}
