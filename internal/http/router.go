// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-tally-backend/internal/cache"
	"github.com/tbourn/go-tally-backend/internal/config"
	"github.com/tbourn/go-tally-backend/internal/http/handlers"
	"github.com/tbourn/go-tally-backend/internal/http/middleware"
	"github.com/tbourn/go-tally-backend/internal/services"
)

// Deps carries the long-lived dependencies the router wires into handlers.
// The composition root owns their lifecycles (the transport client and the
// cache store outlive any single request).
type Deps struct {
	// Client is the serialized upstream transport.
	Client services.Transport
	// Store is the shared TTL response cache.
	Store *cache.Store
	// Settings is the configuration resolver; its OnChange hook must already
	// be set to flush Store.
	Settings *services.SettingsService
	// Log is the base logger the services log through.
	Log zerolog.Logger
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per IP)
//  8. CORS and Security headers
//  9. Gzip (XML exports compress well)
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured request logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (64 KiB; payloads here are tiny JSON bodies)
	r.Use(limitBody(64 << 10))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 9) Compress responses; voucher pages are large, repetitive JSON
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← transport/cache/settings
	tasks := cache.NewRegistry()
	salesSvc := services.NewSalesService(d.Client, d.Store, tasks, d.Settings, d.Log)
	inventorySvc := services.NewInventoryService(d.Client, d.Store, tasks, d.Settings, d.Log)
	companySvc := services.NewCompanyService(d.Client, d.Store, tasks, d.Settings, d.Log)
	balanceSvc := services.NewBalanceSheetService(d.Client, d.Store, tasks, d.Settings, d.Log)

	// Env-tuned TTLs override the constructor defaults.
	if cfg.Cache.PageTTL > 0 {
		salesSvc.PageTTL = cfg.Cache.PageTTL
	}
	if cfg.Cache.StatsTTL > 0 {
		salesSvc.StatsTTL = cfg.Cache.StatsTTL
		inventorySvc.TTL = cfg.Cache.StatsTTL
		balanceSvc.TTL = cfg.Cache.StatsTTL
	}

	sales := handlers.NewSales(salesSvc)
	inventory := handlers.NewInventory(inventorySvc)
	company := handlers.NewCompany(companySvc, balanceSvc)
	settings := handlers.NewSettings(d.Settings)
	refresh := handlers.NewRefresh(salesSvc, inventorySvc, balanceSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Sales
		api.GET("/sales/vouchers", sales.GetVouchers)
		api.GET("/sales/vouchers/:guid", sales.GetVoucher)
		api.GET("/sales/statistics", sales.GetStatistics)
		api.GET("/sales/customers/top", sales.GetTopCustomers)

		// Inventory
		api.GET("/inventory/items", inventory.GetStockItems)

		// Company
		api.GET("/companies", company.ListCompanies)
		api.GET("/company", company.GetDetails)
		api.GET("/company/tax", company.GetTaxDetails)
		api.GET("/company/balance-sheet", company.GetBalanceSheet)

		// Settings
		api.GET("/settings", settings.Get)
		api.PUT("/settings/server", settings.SetServer)
		api.PUT("/settings/company", settings.SetCompany)
		api.DELETE("/settings", settings.Reset)

		// Cache refresh
		api.POST("/refresh", refresh.Refresh)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
