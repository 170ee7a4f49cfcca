package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"estate-market/internal/domain"
)

// AdminRepository define el contrato de persistencia para administradores.
type AdminRepository interface {
	Create(ctx context.Context, admin domain.Admin) (int64, error)
	GetByID(ctx context.Context, id int64) (domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (domain.Admin, error)
}

// PgAdminRepository implementa AdminRepository usando pgxpool.
type PgAdminRepository struct {
	pool *pgxpool.Pool
}

func NewPgAdminRepository(pool *pgxpool.Pool) *PgAdminRepository {
	return &PgAdminRepository{pool: pool}
}

func (r *PgAdminRepository) Create(ctx context.Context, admin domain.Admin) (int64, error) {
	const query = `
		INSERT INTO admin (name, email, password, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		admin.Name,
		admin.Email,
		admin.PasswordHash,
		admin.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, classify(err)
	}
	return id, nil
}

func (r *PgAdminRepository) GetByID(ctx context.Context, id int64) (domain.Admin, error) {
	const query = `
		SELECT id, name, email, password, created_at
		FROM admin
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

// GetByEmail compara el email de forma exacta (sensible a mayusculas).
func (r *PgAdminRepository) GetByEmail(ctx context.Context, email string) (domain.Admin, error) {
	const query = `
		SELECT id, name, email, password, created_at
		FROM admin
		WHERE email = $1
	`
	return r.scanOne(ctx, query, email)
}

func (r *PgAdminRepository) scanOne(ctx context.Context, query string, arg any) (domain.Admin, error) {
	var a domain.Admin
	var hash *string
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&hash,
		&a.CreatedAt,
	)
	if err != nil {
		return domain.Admin{}, classify(err)
	}
	if hash != nil {
		a.PasswordHash = *hash
	}
	return a, nil
}
