package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

// StaffRepository reads platform staff records.
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*domain.StaffRecord, error)
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository returns a Postgres-backed implementation.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffRecord, error) {
	const query = `
        SELECT id, name, email, fcm_token, account_verify
        FROM staff_records WHERE id=$1`

	var staff domain.StaffRecord
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.FCMToken,
		&staff.AccountVerify,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &staff, nil
}
