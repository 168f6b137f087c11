package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/cors"

	"store-api/internal/auth"
	"store-api/internal/config"
	"store-api/internal/db"
	"store-api/internal/maintenance"
	"store-api/internal/media"
	"store-api/internal/observability"
	"store-api/internal/product"
	"store-api/internal/respond"
)

type Options struct {
	// StartScheduler runs the refresh-token sweep in-process. Only the
	// long-running server sets it; serverless relies on the HTTP trigger.
	StartScheduler bool
	LogOutput      io.Writer
}

type Runtime struct {
	Handler http.Handler
	Logger  *observability.Logger
	Close   func() error
}

// Build opens the database, runs migrations when enabled and assembles
// the full handler chain.
func Build(cfg config.Config, options Options) (*Runtime, error) {
	out := options.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := observability.NewLogger(out, cfg.LogLevel)

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	database.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	ctx := context.Background()
	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	handler, sweeper, err := NewHandler(ctx, cfg, database, logger)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	stopScheduler := func() {}
	if options.StartScheduler {
		stop, err := maintenance.StartScheduler(cfg.CleanupSchedule, sweeper, cfg.RequestTimeout)
		if err != nil {
			_ = database.Close()
			return nil, err
		}
		if stop != nil {
			stopScheduler = stop
			logger.Info("cleanup_scheduled", map[string]any{"schedule": cfg.CleanupSchedule})
		}
	}

	return &Runtime{
		Handler: handler,
		Logger:  logger,
		Close: func() error {
			stopScheduler()
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

// NewHandler wires every route group on top of an open database.
func NewHandler(ctx context.Context, cfg config.Config, database *sql.DB, logger *observability.Logger) (http.Handler, *maintenance.Sweeper, error) {
	codec := auth.NewTokenCodec(auth.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	users := auth.NewRepository(database)
	authService := auth.NewService(users, codec)

	if cfg.AdminEmail != "" || cfg.AdminPassword != "" {
		if err := authService.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return nil, nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		logger.Info("admin_bootstrapped", map[string]any{"email": cfg.AdminEmail})
	}

	gate := auth.NewGate(codec, users, auth.GateOptions{RejectBlocked: cfg.GateRejectBlocked})
	cookies := auth.CookiePolicy{Secure: cfg.Auth.CookieSecure, Domain: cfg.Auth.CookieDomain}
	limiter := auth.NewLoginRateLimiter(cfg.LoginRateLimitMax, cfg.LoginRateLimitWindow, cfg.TrustProxyHeaders)

	var uploader media.ImageUploader
	var productUploader product.ImageUploader
	if cfg.CloudinaryURL != "" {
		cloudinary, err := media.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			return nil, nil, fmt.Errorf("init cloudinary: %w", err)
		}
		uploader = cloudinary
		productUploader = cloudinary
	} else {
		logger.Warn("cloudinary_disabled", map[string]any{"reason": "CLOUDINARY_URL is not set"})
	}

	sweeper := maintenance.NewSweeper(users, logger, cfg.CleanupBatchSize)

	mux := http.NewServeMux()
	auth.NewHandler(authService, cookies).Routes(mux, gate, limiter)
	product.NewHandler(product.NewRepository(database), productUploader).Routes(mux, gate)
	media.NewUploadHandler(uploader).Routes(mux, gate)
	maintenance.NewCleanupHandler(sweeper, cfg.CronSecret).Routes(mux)
	mux.HandleFunc("GET /health", healthHandler(database))
	mux.HandleFunc("/", respond.NotFound)

	var handler http.Handler = mux
	handler = observability.TimeoutMiddleware(cfg.RequestTimeout, handler)
	handler = observability.RequestLoggingMiddleware(logger, handler)
	handler = observability.RecoverMiddleware(logger, handler)
	handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(handler)

	return handler, sweeper, nil
}
