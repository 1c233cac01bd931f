// Command server runs the Tally dashboard backend: an HTTP API that fronts a
// single Tally ERP server, serializing every upstream XML request through one
// FIFO lane and caching parsed responses.
//
// Startup order matters: configuration first, then logging, then tracing,
// then the settings database, then the transport/cache pair, and finally the
// HTTP server. Shutdown reverses it so in-flight requests settle before the
// transport queue closes.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-tally-backend/docs"
	"github.com/tbourn/go-tally-backend/internal/cache"
	"github.com/tbourn/go-tally-backend/internal/config"
	"github.com/tbourn/go-tally-backend/internal/domain"
	httpapi "github.com/tbourn/go-tally-backend/internal/http"
	"github.com/tbourn/go-tally-backend/internal/observability"
	"github.com/tbourn/go-tally-backend/internal/repo"
	"github.com/tbourn/go-tally-backend/internal/services"
	"github.com/tbourn/go-tally-backend/internal/sysutil"
	"github.com/tbourn/go-tally-backend/internal/tally/transport"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// settingsRepo adapts the repository free functions to the
// services.SettingsRepo interface. This keeps services decoupled from the
// concrete repo package while reusing existing functions.
type settingsRepo struct{}

func (settingsRepo) GetSettings(ctx context.Context, db *gorm.DB) (*domain.Settings, error) {
	return repo.GetSettings(ctx, db)
}

func (settingsRepo) SaveSettings(ctx context.Context, db *gorm.DB, s *domain.Settings) error {
	return repo.SaveSettings(ctx, db, s)
}

func (settingsRepo) UpdateCompany(ctx context.Context, db *gorm.DB, name string) error {
	return repo.UpdateCompany(ctx, db, name)
}

func (settingsRepo) DeleteSettings(ctx context.Context, db *gorm.DB) error {
	return repo.DeleteSettings(ctx, db)
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	setupLogging(cfg)
	gin.SetMode(cfg.GinMode)

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.Version = version
		docs.SwaggerInfo.Host = sysutil.FirstNonEmpty(os.Getenv("SWAGGER_HOST"), "localhost:"+cfg.Port)
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
	}

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("settings database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("settings database migration failed")
	}

	// The cache flushes wholesale on any settings change: every fingerprint
	// embeds the previous company/server context.
	store := cache.NewStore(cfg.Cache.PageTTL, cfg.Cache.Sweep)
	settings := &services.SettingsService{
		DB:       db,
		Repo:     settingsRepo{},
		ProxyURL: cfg.Tally.ProxyURL,
		OnChange: store.Flush,
	}

	client := transport.New(settings.ResolveBaseURL, log.Logger, transport.Options{
		Timeout:    cfg.Tally.Timeout,
		QueueDepth: cfg.Tally.QueueDepth,
	})
	defer client.Close()

	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		Client:   client,
		Store:    store,
		Settings: settings,
		Log:      log.Logger,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(cfg config.Config) {
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
