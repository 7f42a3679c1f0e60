package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

const defaultListLimit = 50

// OwnerRepository reads restaurant owner records.
type OwnerRepository interface {
	// ListByAdminID returns every restaurant owned by the principal, in a
	// stable order so callers taking the first element are deterministic.
	ListByAdminID(ctx context.Context, adminID string) ([]domain.OwnerRecord, error)
	// List returns the most recently created restaurants.
	List(ctx context.Context, limit int) ([]domain.OwnerRecord, error)
}

type ownerRepository struct {
	pool *pgxpool.Pool
}

// NewOwnerRepository returns a Postgres-backed implementation.
func NewOwnerRepository(pool *pgxpool.Pool) OwnerRepository {
	return &ownerRepository{pool: pool}
}

func (r *ownerRepository) ListByAdminID(ctx context.Context, adminID string) ([]domain.OwnerRecord, error) {
	const query = `
        SELECT id, admin_id, name, email, phone, address, role, status, created_at
        FROM restaurants WHERE admin_id=$1
        ORDER BY created_at ASC, id ASC`

	return r.query(ctx, query, adminID)
}

func (r *ownerRepository) List(ctx context.Context, limit int) ([]domain.OwnerRecord, error) {
	const query = `
        SELECT id, admin_id, name, email, phone, address, role, status, created_at
        FROM restaurants
        ORDER BY created_at DESC, id ASC
        LIMIT $1`

	return r.query(ctx, query, normalizeLimit(limit))
}

func (r *ownerRepository) query(ctx context.Context, query string, args ...any) ([]domain.OwnerRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.OwnerRecord
	for rows.Next() {
		var (
			owner domain.OwnerRecord
			role  string
		)
		if err := rows.Scan(
			&owner.ID,
			&owner.AdminID,
			&owner.Name,
			&owner.Email,
			&owner.Phone,
			&owner.Address,
			&role,
			&owner.Status,
			&owner.CreatedAt,
		); err != nil {
			return nil, err
		}
		owner.Role = domain.ParseRole(role)
		result = append(result, owner)
	}
	return result, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
