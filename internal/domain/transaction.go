package domain

import "time"

const (
	TransactionStatusCompleted = "Completed"
	TransactionStatusPending   = "Pending"
)

// Transaction registra una compra; no se modifica despues de creada.
type Transaction struct {
	ID         int64     `json:"id_transaksi"`
	PropertyID int64     `json:"property_id"`
	BuyerID    *int64    `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone"`
	EthAmount  float64   `json:"eth_amount"`
	TxHash     string    `json:"tx_hash"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransactionSummary agrega datos del inmueble asociado.
type TransactionSummary struct {
	Transaction
	PropertyTitle *string `json:"property_title"`
	PropertyImage *string `json:"property_image,omitempty"`
}

// DashboardStats resume la actividad para el panel de administracion.
type DashboardStats struct {
	TotalProperties     int64                `json:"totalProperties"`
	TotalTransactions   int64                `json:"totalTransactions"`
	TotalEth            float64              `json:"totalEth"`
	PendingTransactions int64                `json:"pendingTransactions"`
	RecentTransactions  []TransactionSummary `json:"recentTransactions"`
}
