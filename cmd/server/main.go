// Command server runs the FoodShare donation backend.
//
// Startup order:
//  1. Load .env (best effort) and the environment configuration
//  2. Configure zerolog (level, optional pretty console output)
//  3. Initialize OpenTelemetry tracing (no-op unless enabled)
//  4. Open SQLite, run migrations, seed the bootstrap admin
//  5. Build the Gin engine, register routes, and serve
//
// Shutdown: SIGINT/SIGTERM drains in-flight requests with a bounded grace
// period, then flushes the tracer provider.
package main

import (
	"context"
	"errors"
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

	_ "github.com/foodshare/go-donation-backend/docs"
	"github.com/foodshare/go-donation-backend/internal/config"
	"github.com/foodshare/go-donation-backend/internal/domain"
	httpapi "github.com/foodshare/go-donation-backend/internal/http"
	"github.com/foodshare/go-donation-backend/internal/observability"
	"github.com/foodshare/go-donation-backend/internal/repo"
	"github.com/foodshare/go-donation-backend/internal/services"
	"github.com/foodshare/go-donation-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	if err := seedAdmin(ctx, db, cfg); err != nil {
		log.Fatal().Err(err).Msg("admin seeding failed")
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown failed")
	}
	log.Info().Msg("bye")
}

// seedAdmin creates the bootstrap admin account when credentials are
// configured and no admin exists yet. The seeding path bypasses the OTP
// gate; there is nobody to receive a code before the first admin exists.
func seedAdmin(ctx context.Context, db *gorm.DB, cfg config.Config) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return nil
	}
	n, err := repo.CountUsersByRole(ctx, db, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	accounts := &services.AccountService{DB: db} // nil OTP: gate disabled
	_, err = accounts.Signup(ctx, services.SignupInput{
		FirstName: "Site",
		LastName:  "Admin",
		Email:     cfg.Admin.Email,
		Password:  cfg.Admin.Password,
		Role:      domain.RoleAdmin,
	}, "")
	if err != nil {
		return err
	}
	log.Info().Str("email", cfg.Admin.Email).Msg("seeded bootstrap admin")
	return nil
}
