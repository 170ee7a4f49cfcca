package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-market/internal/service"
)

// TransactionHandler expone transacciones y estadisticas del panel.
type TransactionHandler struct {
	logger *zap.Logger
	txSvc  *service.TransactionService
	errs   errorResponder
}

func NewTransactionHandler(logger *zap.Logger, txSvc *service.TransactionService, exposeErrors bool) *TransactionHandler {
	return &TransactionHandler{
		logger: logger,
		txSvc:  txSvc,
		errs:   errorResponder{logger: logger, exposeError: exposeErrors},
	}
}

// List maneja GET /api/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	items, err := h.txSvc.List(c.Request.Context())
	if err != nil {
		h.errs.respond(c, err, "Failed to fetch transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// Create maneja POST /api/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req struct {
		Name       *flexString `json:"name"`
		Email      *flexString `json:"email"`
		Phone      *flexString `json:"phone"`
		PropertyID *flexString `json:"property_id"`
		EthAmount  *flexString `json:"ethAmount"`
		TxHash     *flexString `json:"txHash"`
		UserID     *flexString `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid transaction request", zap.Error(err))
		badRequest(c)
		return
	}

	id, err := h.txSvc.Create(c.Request.Context(), service.TransactionInput{
		Name:       req.Name.text(),
		Email:      req.Email.text(),
		Phone:      req.Phone.text(),
		PropertyID: req.PropertyID.text(),
		EthAmount:  req.EthAmount.text(),
		TxHash:     req.TxHash.text(),
		BuyerID:    req.UserID.text(),
	})
	if err != nil {
		h.errs.respond(c, err, "Failed to save transaction")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Transaction saved", "transactionId": id})
}

// Stats maneja GET /api/dashboard/stats.
func (h *TransactionHandler) Stats(c *gin.Context) {
	stats, err := h.txSvc.Stats(c.Request.Context())
	if err != nil {
		h.errs.respond(c, err, "Failed to fetch dashboard statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}
