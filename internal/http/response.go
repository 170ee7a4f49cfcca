package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-market/internal/asset"
	"estate-market/internal/repository"
	"estate-market/internal/service"
)

// errorResponder traduce errores de servicio a respuestas HTTP.
type errorResponder struct {
	logger      *zap.Logger
	exposeError bool
}

func (r errorResponder) respond(c *gin.Context, err error, fallback string) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": vErr.Message, "missing": vErr.Fields})
	case errors.Is(err, service.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email already registered"})
	case errors.Is(err, service.ErrPropertyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Property not found"})
	case errors.Is(err, service.ErrAdminNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many attempts, try again later"})
	case errors.Is(err, asset.ErrUnsupportedMedia), errors.Is(err, asset.ErrPayloadTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Record already exists"})
	case errors.Is(err, repository.ErrSchemaMismatch):
		r.logger.Error(fallback, zap.Error(err))
		r.internal(c, err, "Database schema mismatch, check the table structure")
	default:
		r.logger.Error(fallback, zap.Error(err))
		r.internal(c, err, fallback)
	}
}

func (r errorResponder) internal(c *gin.Context, err error, message string) {
	body := gin.H{"success": false, "message": message}
	if r.exposeError {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
}
