package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"estate-market/internal/domain"
	"estate-market/internal/repository"
)

const recentTransactionsLimit = 5

// TransactionInput llega con los valores en texto; la conversion numerica se valida aqui.
type TransactionInput struct {
	Name       string
	Email      string
	Phone      string
	PropertyID string
	EthAmount  string
	TxHash     string
	BuyerID    string
}

// TransactionService registra compras y calcula las estadisticas del panel.
type TransactionService struct {
	logger       *zap.Logger
	transactions repository.TransactionRepository
	properties   repository.PropertyRepository
	now          func() time.Time
}

func NewTransactionService(logger *zap.Logger, transactions repository.TransactionRepository, properties repository.PropertyRepository) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{
		logger:       logger,
		transactions: transactions,
		properties:   properties,
		now:          time.Now,
	}
}

// Create guarda la transaccion con estado Completed y devuelve su id.
func (s *TransactionService) Create(ctx context.Context, input TransactionInput) (int64, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	propertyRaw := strings.TrimSpace(input.PropertyID)
	amountRaw := strings.TrimSpace(input.EthAmount)
	txHash := strings.TrimSpace(input.TxHash)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", name},
		{"email", email},
		{"property_id", propertyRaw},
		{"ethAmount", amountRaw},
		{"txHash", txHash},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return 0, newValidationError("Missing required fields", missing)
	}

	var invalid []string
	propertyID, err := strconv.ParseInt(propertyRaw, 10, 64)
	if err != nil || propertyID <= 0 {
		invalid = append(invalid, "property_id")
	}
	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil || amount <= 0 {
		invalid = append(invalid, "ethAmount")
	}
	var buyerID *int64
	if raw := strings.TrimSpace(input.BuyerID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			invalid = append(invalid, "user_id")
		} else {
			buyerID = &id
		}
	}
	if len(invalid) > 0 {
		return 0, newValidationError("Invalid fields", invalid)
	}

	var phone *string
	if p := strings.TrimSpace(input.Phone); p != "" {
		phone = &p
	}

	id, err := s.transactions.Create(ctx, domain.Transaction{
		PropertyID: propertyID,
		BuyerID:    buyerID,
		Name:       name,
		Email:      email,
		Phone:      phone,
		EthAmount:  amount,
		TxHash:     txHash,
		Status:     domain.TransactionStatusCompleted,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	s.logger.Info("transaction recorded", zap.Int64("transaction_id", id), zap.Int64("property_id", propertyID))
	return id, nil
}

// List devuelve todas las transacciones, las mas recientes primero.
func (s *TransactionService) List(ctx context.Context) ([]domain.TransactionSummary, error) {
	items, err := s.transactions.ListSummaries(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

func (s *TransactionService) Stats(ctx context.Context) (domain.DashboardStats, error) {
	var stats domain.DashboardStats
	var err error
	if stats.TotalProperties, err = s.properties.Count(ctx); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count properties: %w", err)
	}
	if stats.TotalTransactions, err = s.transactions.Count(ctx); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count transactions: %w", err)
	}
	if stats.TotalEth, err = s.transactions.SumEthByStatus(ctx, domain.TransactionStatusCompleted); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("sum eth: %w", err)
	}
	if stats.PendingTransactions, err = s.transactions.CountByStatus(ctx, domain.TransactionStatusPending); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count pending: %w", err)
	}
	if stats.RecentTransactions, err = s.transactions.ListSummaries(ctx, recentTransactionsLimit); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("recent transactions: %w", err)
	}
	return stats, nil
}
