package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"estate-market/internal/domain"
)

// TransactionRepository define el contrato de persistencia para transacciones.
type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) (int64, error)
	ListSummaries(ctx context.Context, limit int) ([]domain.TransactionSummary, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	SumEthByStatus(ctx context.Context, status string) (float64, error)
}

// PgTransactionRepository implementa TransactionRepository usando pgxpool.
type PgTransactionRepository struct {
	pool *pgxpool.Pool
}

func NewPgTransactionRepository(pool *pgxpool.Pool) *PgTransactionRepository {
	return &PgTransactionRepository{pool: pool}
}

func (r *PgTransactionRepository) Create(ctx context.Context, tx domain.Transaction) (int64, error) {
	const query = `
		INSERT INTO transaksi (user_id, property_id, name, email, phone, eth_amount, tx_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id_transaksi
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		tx.BuyerID,
		tx.PropertyID,
		tx.Name,
		tx.Email,
		tx.Phone,
		tx.EthAmount,
		tx.TxHash,
		tx.Status,
		tx.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// ListSummaries devuelve las transacciones mas recientes primero. limit <= 0 no limita.
func (r *PgTransactionRepository) ListSummaries(ctx context.Context, limit int) ([]domain.TransactionSummary, error) {
	query := `
		SELECT t.id_transaksi, t.property_id, t.user_id, t.name, t.email, t.phone,
		       t.eth_amount, t.tx_hash, t.status, t.created_at,
		       p.title, p.image
		FROM transaksi t
		LEFT JOIN property p ON t.property_id = p.id_property
		ORDER BY t.created_at DESC, t.id_transaksi DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	summaries := make([]domain.TransactionSummary, 0)
	for rows.Next() {
		var s domain.TransactionSummary
		if err := rows.Scan(
			&s.ID,
			&s.PropertyID,
			&s.BuyerID,
			&s.Name,
			&s.Email,
			&s.Phone,
			&s.EthAmount,
			&s.TxHash,
			&s.Status,
			&s.CreatedAt,
			&s.PropertyTitle,
			&s.PropertyImage,
		); err != nil {
			return nil, classify(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return summaries, nil
}

func (r *PgTransactionRepository) Count(ctx context.Context) (int64, error) {
	return r.scalarInt(ctx, `SELECT COUNT(*) FROM transaksi`)
}

func (r *PgTransactionRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	return r.scalarInt(ctx, `SELECT COUNT(*) FROM transaksi WHERE status = $1`, status)
}

func (r *PgTransactionRepository) SumEthByStatus(ctx context.Context, status string) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(eth_amount), 0) FROM transaksi WHERE status = $1`, status).Scan(&total)
	if err != nil {
		return 0, classify(err)
	}
	return total, nil
}

func (r *PgTransactionRepository) scalarInt(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}
