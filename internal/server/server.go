package server

import (
	"fmt"
	"net/http"
	"time"

	"product-catalog/internal/config"
	custommiddleware "product-catalog/internal/middleware"
	"product-catalog/internal/service"
	"product-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// legacyListPath is the older list endpoint kept for existing clients
const legacyListPath = "/api/v3/products"

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
}

// NewServer wires the router. redisClient may be nil, which disables upload
// rate limiting.
func NewServer(cfg *config.Config, logger *zap.Logger, products service.ProductService, redisClient *redis.Client) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:           NewRouter(cfg, logger, products, redisClient),
			IdleTimeout:       time.Minute,
			ReadHeaderTimeout: 10 * time.Second,
			// No ReadTimeout or WriteTimeout: photo uploads stream for as
			// long as the client keeps sending.
		},
		config: cfg,
		logger: logger,
	}
}

// NewRouter builds the HTTP handler tree
func NewRouter(cfg *config.Config, logger *zap.Logger, products service.ProductService, redisClient *redis.Client) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var uploadLimiter func(http.Handler) http.Handler
	if redisClient != nil && cfg.RateLimit.UploadsPerWindow > 0 {
		uploadLimiter = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.UploadsPerWindow,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rate_limit:uploads",
		}, logger)
	}

	productHandler := transport.NewProductHandler(products, cfg.Storage.MaxUploadBytes, logger)
	productHandler.RegisterRoutes(router, cfg.Server.APIPrefix, uploadLimiter)
	router.Get(legacyListPath, productHandler.List)

	return router
}
