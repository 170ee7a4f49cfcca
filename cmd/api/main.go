package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"estate-market/internal/asset"
	"estate-market/internal/config"
	"estate-market/internal/db"
	apihttp "estate-market/internal/http"
	"estate-market/internal/repository"
	"estate-market/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	err = db.Ping(pingCtx, pool)
	cancelPing()
	if err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	store, err := newAssetStore(ctx, cfg)
	if err != nil {
		logger.Fatal("asset store", zap.Error(err))
	}
	assets := asset.NewManager(store)

	var loginLimiter service.LoginLimiter
	window := time.Duration(cfg.LoginWindowMinutes) * time.Minute
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginLimiter(redisClient, window, cfg.LoginMaxAttempts)
		}
		cancel()
	}
	if loginLimiter == nil {
		loginLimiter = service.NewLoginLimiter(window, cfg.LoginMaxAttempts)
	}

	adminRepo := repository.NewPgAdminRepository(pool)
	propertyRepo := repository.NewPgPropertyRepository(pool)
	transactionRepo := repository.NewPgTransactionRepository(pool)

	jwtSvc := service.NewJWTService(cfg.JWTSecret, service.TokenTTL)
	adminSvc := service.NewAdminService(logger, adminRepo, loginLimiter)
	propertySvc := service.NewPropertyService(logger, propertyRepo, assets)
	transactionSvc := service.NewTransactionService(logger, transactionRepo, propertyRepo)

	dev := cfg.IsDevelopment()
	router := apihttp.NewRouter(
		logger,
		apihttp.NewMetrics("estate_market"),
		jwtSvc,
		apihttp.NewAdminHandler(logger, adminSvc, jwtSvc, dev),
		apihttp.NewPropertyHandler(logger, propertySvc, dev),
		apihttp.NewTransactionHandler(logger, transactionSvc, dev),
		apihttp.NewUploadHandler(logger, assets),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("assets", cfg.AssetBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	propertySvc.Wait()
}

func newAssetStore(ctx context.Context, cfg *config.Config) (asset.Store, error) {
	switch cfg.AssetBackend {
	case "s3":
		return asset.NewS3Store(ctx, asset.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "disk", "":
		return asset.NewDiskStore(cfg.UploadDir)
	default:
		return nil, errors.New("unknown asset backend: " + cfg.AssetBackend)
	}
}
