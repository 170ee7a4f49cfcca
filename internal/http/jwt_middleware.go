package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-market/internal/service"
)

const authClaimsKey = "auth_claims"

// JWTAuthMiddleware valida el bearer token y guarda claims en el contexto.
// Sin token responde 401; token invalido o vencido responde 403.
func JWTAuthMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "jwt not configured"})
			c.Abort()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Access token required"})
			c.Abort()
			return
		}

		claims, err := jwtSvc.Verify(token)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}
