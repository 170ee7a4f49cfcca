package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-market/internal/service"
)

// AdminHandler mantiene dependencias para registro, login y perfil.
type AdminHandler struct {
	logger   *zap.Logger
	adminSvc *service.AdminService
	jwtSvc   *service.JWTService
	errs     errorResponder
}

func NewAdminHandler(logger *zap.Logger, adminSvc *service.AdminService, jwtSvc *service.JWTService, exposeErrors bool) *AdminHandler {
	return &AdminHandler{
		logger:   logger,
		adminSvc: adminSvc,
		jwtSvc:   jwtSvc,
		errs:     errorResponder{logger: logger, exposeError: exposeErrors},
	}
}

// Register maneja POST /api/register.
func (h *AdminHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		badRequest(c)
		return
	}

	id, err := h.adminSvc.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errs.respond(c, err, "Registration failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Registration successful", "userId": id})
}

// Login maneja POST /api/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		badRequest(c)
		return
	}

	admin, err := h.adminSvc.AuthenticateFrom(c.Request.Context(), c.ClientIP(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAdminNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Email not found"})
		case errors.Is(err, service.ErrWrongPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Wrong password"})
		case errors.Is(err, service.ErrInvalidHash):
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Invalid password hash, stored data is corrupted"})
		default:
			h.errs.respond(c, err, "Login failed")
		}
		return
	}

	token, err := h.jwtSvc.Issue(admin)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		h.errs.internal(c, err, "Could not issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login successful", "user": admin, "token": token})
}

// Profile maneja GET /api/user/profile.
func (h *AdminHandler) Profile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Access token required"})
		return
	}

	admin, err := h.adminSvc.Profile(c.Request.Context(), claims.AdminID)
	if err != nil {
		h.errs.respond(c, err, "Could not load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": admin})
}
