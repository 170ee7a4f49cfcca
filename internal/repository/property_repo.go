package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estate-market/internal/domain"
)

// PropertyRepository define el contrato de persistencia para inmuebles.
type PropertyRepository interface {
	List(ctx context.Context) ([]domain.Property, error)
	GetByID(ctx context.Context, id int64) (domain.Property, error)
	Create(ctx context.Context, property domain.Property) (int64, error)
	Update(ctx context.Context, property domain.Property) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// PgPropertyRepository implementa PropertyRepository usando pgxpool.
type PgPropertyRepository struct {
	pool *pgxpool.Pool
}

func NewPgPropertyRepository(pool *pgxpool.Pool) *PgPropertyRepository {
	return &PgPropertyRepository{pool: pool}
}

func (r *PgPropertyRepository) List(ctx context.Context) ([]domain.Property, error) {
	const query = `
		SELECT id_property, title, type, price, eth_price, image, address, description
		FROM property
		ORDER BY id_property DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	properties := make([]domain.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, classify(err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return properties, nil
}

func (r *PgPropertyRepository) GetByID(ctx context.Context, id int64) (domain.Property, error) {
	const query = `
		SELECT id_property, title, type, price, eth_price, image, address, description
		FROM property
		WHERE id_property = $1
	`
	p, err := scanProperty(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Property{}, classify(err)
	}
	return p, nil
}

func (r *PgPropertyRepository) Create(ctx context.Context, property domain.Property) (int64, error) {
	const query = `
		INSERT INTO property (title, type, price, eth_price, image, address, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id_property
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		property.Title,
		property.Type,
		property.Price,
		property.EthPrice,
		property.Image,
		property.Address,
		property.Description,
	).Scan(&id)
	if err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// Update reemplaza todas las columnas; devuelve pgx.ErrNoRows si el id no existe.
func (r *PgPropertyRepository) Update(ctx context.Context, property domain.Property) error {
	const query = `
		UPDATE property
		SET title = $1, type = $2, price = $3, eth_price = $4, image = $5, address = $6, description = $7
		WHERE id_property = $8
	`
	tag, err := r.pool.Exec(ctx, query,
		property.Title,
		property.Type,
		property.Price,
		property.EthPrice,
		property.Image,
		property.Address,
		property.Description,
		property.ID,
	)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgPropertyRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM property WHERE id_property = $1`, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgPropertyRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM property`).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func scanProperty(row pgx.Row) (domain.Property, error) {
	var p domain.Property
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Type,
		&p.Price,
		&p.EthPrice,
		&p.Image,
		&p.Address,
		&p.Description,
	)
	return p, err
}
