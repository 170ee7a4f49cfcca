package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-market/internal/asset"
	"estate-market/internal/service"
)

// multipartOverhead cubre los campos de texto que acompanan a la imagen.
const multipartOverhead = 1 << 20

// PropertyHandler expone el CRUD de inmuebles.
type PropertyHandler struct {
	logger      *zap.Logger
	propertySvc *service.PropertyService
	errs        errorResponder
}

func NewPropertyHandler(logger *zap.Logger, propertySvc *service.PropertyService, exposeErrors bool) *PropertyHandler {
	return &PropertyHandler{
		logger:      logger,
		propertySvc: propertySvc,
		errs:        errorResponder{logger: logger, exposeError: exposeErrors},
	}
}

// List maneja GET /api/properties.
func (h *PropertyHandler) List(c *gin.Context) {
	items, err := h.propertySvc.List(c.Request.Context(), requestOrigin(c))
	if err != nil {
		h.errs.respond(c, err, "Error fetching properties")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// Get maneja GET /api/properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		badRequest(c)
		return
	}
	p, err := h.propertySvc.Get(c.Request.Context(), id, requestOrigin(c))
	if err != nil {
		h.errs.respond(c, err, "Error fetching property")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}

// Create maneja POST /api/properties.
func (h *PropertyHandler) Create(c *gin.Context) {
	input, upload, cleanup, err := h.readInput(c)
	if err != nil {
		h.respondInputError(c, err)
		return
	}
	defer cleanup()

	p, err := h.propertySvc.Create(c.Request.Context(), input, upload, requestOrigin(c))
	if err != nil {
		h.errs.respond(c, err, "Failed to add property")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Property added", "data": p})
}

// Update maneja PUT /api/properties/:id.
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		badRequest(c)
		return
	}
	input, upload, cleanup, err := h.readInput(c)
	if err != nil {
		h.respondInputError(c, err)
		return
	}
	defer cleanup()

	p, err := h.propertySvc.Update(c.Request.Context(), id, input, upload, requestOrigin(c))
	if err != nil {
		h.errs.respond(c, err, "Failed to update property")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Property updated", "data": p})
}

// Delete maneja DELETE /api/properties/:id.
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		badRequest(c)
		return
	}
	if err := h.propertySvc.Delete(c.Request.Context(), id); err != nil {
		h.errs.respond(c, err, "Failed to delete property")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Property deleted"})
}

// readInput acepta multipart (con imagen opcional), formularios urlencoded o JSON.
func (h *PropertyHandler) readInput(c *gin.Context) (service.PropertyInput, *asset.Upload, func(), error) {
	noop := func() {}
	contentType := c.ContentType()

	if contentType == "multipart/form-data" || contentType == "application/x-www-form-urlencoded" {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, asset.MaxUploadSize+multipartOverhead)
		if contentType == "multipart/form-data" {
			if _, err := c.MultipartForm(); err != nil {
				return service.PropertyInput{}, nil, noop, err
			}
		}
		input := service.PropertyInput{
			Title:       formValue(c, "title"),
			Type:        formValue(c, "type"),
			Price:       formValue(c, "price"),
			EthPrice:    formValue(c, "ethPrice"),
			Address:     formValue(c, "address"),
			Description: formValue(c, "description"),
			ImageURL:    formValue(c, "image"),
		}
		if contentType != "multipart/form-data" {
			return input, nil, noop, nil
		}
		fh, err := c.FormFile("image")
		if errors.Is(err, http.ErrMissingFile) {
			return input, nil, noop, nil
		}
		if err != nil {
			return service.PropertyInput{}, nil, noop, err
		}
		upload, closer, err := openUpload(fh)
		if err != nil {
			return service.PropertyInput{}, nil, noop, err
		}
		return input, upload, closer, nil
	}

	var req struct {
		Title       *flexString `json:"title"`
		Type        *flexString `json:"type"`
		Price       *flexString `json:"price"`
		EthPrice    *flexString `json:"ethPrice"`
		Address     *flexString `json:"address"`
		Description *flexString `json:"description"`
		Image       *flexString `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return service.PropertyInput{}, nil, noop, err
	}
	return service.PropertyInput{
		Title:       req.Title.ptr(),
		Type:        req.Type.ptr(),
		Price:       req.Price.ptr(),
		EthPrice:    req.EthPrice.ptr(),
		Address:     req.Address.ptr(),
		Description: req.Description.ptr(),
		ImageURL:    req.Image.ptr(),
	}, nil, noop, nil
}

func (h *PropertyHandler) respondInputError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, multipart.ErrMessageTooLarge):
		h.errs.respond(c, asset.ErrPayloadTooLarge, "")
	default:
		h.logger.Warn("invalid property request", zap.Error(err))
		badRequest(c)
	}
}

func formValue(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

func openUpload(fh *multipart.FileHeader) (*asset.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &asset.Upload{
		Filename:    fh.Filename,
		ContentType: strings.TrimSpace(fh.Header.Get("Content-Type")),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
