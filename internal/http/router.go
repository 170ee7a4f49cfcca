package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-market/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	metrics *Metrics,
	jwtSvc *service.JWTService,
	adminH *AdminHandler,
	propertyH *PropertyHandler,
	txH *TransactionHandler,
	uploadH *UploadHandler,
) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	// Middlewares basicos: logging, recovery, CORS y metricas.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware())
	if metrics != nil {
		r.Use(metrics.middleware())
		r.GET("/metrics", metrics.handler())
	}

	r.GET("/uploads/:name", uploadH.Serve)

	auth := JWTAuthMiddleware(jwtSvc)
	api := r.Group("/api", jsonContentTypeMiddleware())
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Server is up"})
	})

	api.GET("/properties", propertyH.List)
	api.GET("/properties/:id", propertyH.Get)
	api.POST("/properties", auth, propertyH.Create)
	api.PUT("/properties/:id", auth, propertyH.Update)
	api.DELETE("/properties/:id", auth, propertyH.Delete)

	api.GET("/transactions", txH.List)
	api.POST("/transactions", txH.Create)
	api.GET("/dashboard/stats", txH.Stats)

	api.POST("/register", adminH.Register)
	api.POST("/login", adminH.Login)
	api.GET("/user/profile", auth, adminH.Profile)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// corsMiddleware abre la API a cualquier origen y corta los preflight.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
