package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-market/internal/asset"
)

// UploadHandler sirve las imagenes propias desde el backend configurado.
type UploadHandler struct {
	logger *zap.Logger
	assets *asset.Manager
}

func NewUploadHandler(logger *zap.Logger, assets *asset.Manager) *UploadHandler {
	return &UploadHandler{logger: logger, assets: assets}
}

// Serve maneja GET /uploads/:name.
func (h *UploadHandler) Serve(c *gin.Context) {
	name := c.Param("name")
	rc, err := h.assets.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) || errors.Is(err, asset.ErrInvalidName) {
			c.Status(http.StatusNotFound)
			return
		}
		h.logger.Error("open asset failed", zap.String("asset", name), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, asset.ContentTypeFor(name), rc, nil)
}
