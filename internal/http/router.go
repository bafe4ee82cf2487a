// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, identity resolution, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/foodshare/go-donation-backend/internal/chatbot"
	"github.com/foodshare/go-donation-backend/internal/config"
	"github.com/foodshare/go-donation-backend/internal/domain"
	"github.com/foodshare/go-donation-backend/internal/http/handlers"
	"github.com/foodshare/go-donation-backend/internal/http/middleware"
	"github.com/foodshare/go-donation-backend/internal/notify"
	"github.com/foodshare/go-donation-backend/internal/repo"
	"github.com/foodshare/go-donation-backend/internal/services"
)

// donationRepoShim adapts the repository free functions to the
// services.DonationRepo interface expected by the DonationService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type donationRepoShim struct{}

// Create proxies repo.CreateDonation.
func (donationRepoShim) Create(ctx context.Context, db *gorm.DB, donorID, foodType, quantity, description string, amount *float64) (*domain.Donation, error) {
	return repo.CreateDonation(ctx, db, donorID, foodType, quantity, description, amount)
}

// Get proxies repo.GetDonation.
func (donationRepoShim) Get(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	return repo.GetDonation(ctx, db, id)
}

// UpdateStatus proxies repo.UpdateDonationStatus.
func (donationRepoShim) UpdateStatus(ctx context.Context, db *gorm.DB, id, fromStatus string, patch repo.StatusPatch) error {
	return repo.UpdateDonationStatus(ctx, db, id, fromStatus, patch)
}

// Reject proxies repo.RejectDonation.
func (donationRepoShim) Reject(ctx context.Context, db *gorm.DB, id string, fromStatuses []string) error {
	return repo.RejectDonation(ctx, db, id, fromStatuses)
}

// Count proxies repo.CountDonations (pagination support).
func (donationRepoShim) Count(ctx context.Context, db *gorm.DB, statuses []string, donorID, agentID string) (int64, error) {
	return repo.CountDonations(ctx, db, statuses, donorID, agentID)
}

// ListPage proxies repo.ListDonationsPage (pagination support).
func (donationRepoShim) ListPage(ctx context.Context, db *gorm.DB, statuses []string, donorID, agentID string, offset, limit int) ([]domain.Donation, error) {
	return repo.ListDonationsPage(ctx, db, statuses, donorID, agentID, offset, limit)
}

// userDirShim adapts the user repository functions to services.UserDirectory.
type userDirShim struct{}

// GetByID proxies repo.GetUserByID.
func (userDirShim) GetByID(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUserByID(ctx, db, id)
}

// FindByRole proxies repo.FindUsersByRole.
func (userDirShim) FindByRole(ctx context.Context, db *gorm.DB, role string) ([]domain.User, error) {
	return repo.FindUsersByRole(ctx, db, role)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), identity and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter, gzip
//  6. Metrics
//  7. Identity resolution (before rate limiter so limits are per-user)
//  8. Rate limiter (per user/IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Resolve X-User-ID to a persisted user (unknown ids get 401,
	//    absent headers proceed as guest)
	r.Use(middleware.Identity(func(ctx context.Context, id string) (*domain.User, error) {
		return repo.GetUserByID(ctx, db, id)
	}))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID},
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
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID},
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

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/mailer
	mailer := notify.NewMailer(cfg.Notify.URL, cfg.Notify.Timeout)

	donationSvc := services.NewDonationService(db, donationRepoShim{}, userDirShim{}, mailer)
	donationSvc.NotifyTimeout = cfg.Notify.Timeout

	otpSvc := services.NewOTPService(db, mailer)
	otpSvc.TTL = cfg.OTPTTL

	accountSvc := &services.AccountService{DB: db, OTP: otpSvc}
	adminSvc := &services.AdminService{DB: db}

	bot := chatbot.NewResponder(chatbot.NewClassifier(), &chatbot.Fallback{
		APIKey:  cfg.Groq.APIKey,
		BaseURL: cfg.Groq.BaseURL,
		Model:   cfg.Groq.Model,
	})

	h := handlers.New(donationSvc, accountSvc, otpSvc, adminSvc, bot)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Donations
		api.POST("/donations", middleware.RequireRole(domain.RoleDonor), h.SubmitDonation)
		api.GET("/donations", middleware.RequireRole(domain.RoleDonor, domain.RoleAgent, domain.RoleAdmin), h.ListDonations)
		api.GET("/donations/:id", middleware.RequireRole(domain.RoleDonor, domain.RoleAgent, domain.RoleAdmin), h.GetDonation)

		// Lifecycle transitions
		api.POST("/donations/:id/accept", middleware.RequireRole(domain.RoleAdmin), h.TransitionDonation(services.ActionAccept))
		api.POST("/donations/:id/reject", middleware.RequireRole(domain.RoleAdmin), h.TransitionDonation(services.ActionReject))
		api.POST("/donations/:id/assign", middleware.RequireRole(domain.RoleAdmin), h.TransitionDonation(services.ActionAssign))
		api.POST("/donations/:id/collect", middleware.RequireRole(domain.RoleAgent), h.TransitionDonation(services.ActionCollect))

		// Chatbot (open to guests)
		api.POST("/chatbot/message", h.ChatMessage)

		// Accounts
		api.POST("/auth/send-otp", h.SendOTP)
		api.POST("/auth/verify-otp", h.VerifyOTP)
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/login", h.Login)
		api.PUT("/auth/profile", middleware.RequireRole(domain.RoleDonor, domain.RoleAgent, domain.RoleAdmin), h.UpdateProfile)

		// Back office
		admin := api.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
		admin.GET("/dashboard", h.Dashboard)
		admin.GET("/agents", h.ListAgents)
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
