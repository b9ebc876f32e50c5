package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edutrack/edutrack/api/internal/audit"
	"github.com/edutrack/edutrack/api/internal/config"
	"github.com/edutrack/edutrack/api/internal/handlers"
	apimw "github.com/edutrack/edutrack/api/internal/middleware"
	"github.com/edutrack/edutrack/api/internal/ratelimit"
	"github.com/edutrack/edutrack/api/internal/repository"
	"github.com/edutrack/edutrack/api/internal/server"
	"github.com/edutrack/edutrack/api/internal/service"
	"github.com/edutrack/edutrack/api/migrations"
	"github.com/edutrack/edutrack/api/pkg/password"
	"github.com/edutrack/edutrack/api/pkg/tokens"
	"github.com/edutrack/edutrack/common/database"
	"github.com/edutrack/edutrack/common/httputil"
	"github.com/edutrack/edutrack/common/logging"
	natsclient "github.com/edutrack/edutrack/common/messaging/nats"
)

const loginRateLimitPrefix = "ratelimit:login:"

// application holds the wired services and the resources that must be
// released on shutdown.
type application struct {
	handler      http.Handler
	auth         *service.AuthService
	closers      []func() error
	healthChecks []func(context.Context) error
}

// newApplication builds the store, limiter, audit trail, services and router
// described by cfg.
func newApplication(ctx context.Context, cfg *config.Config, logger *logging.Logger) (app *application, err error) {
	app = &application{}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	repo, err := app.openRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var limiter ratelimit.RateLimiter = &ratelimit.NoOpRateLimiter{}
	if cfg.RateLimit.Login.Enabled {
		limiter, err = ratelimit.NewRedisRateLimiter(
			cfg.Redis.URL,
			loginRateLimitPrefix,
			cfg.RateLimit.Login.Limit,
			cfg.RateLimit.Login.Window,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create login rate limiter: %w", err)
		}
		app.closers = append(app.closers, limiter.Close)
		logger.Info("Login rate limiting enabled",
			slog.Int("limit", cfg.RateLimit.Login.Limit),
			slog.Duration("window", cfg.RateLimit.Login.Window),
		)
	}

	svcOpts := []service.Option{service.WithLogger(logger)}
	if cfg.Audit.Enabled {
		auditLog, err := app.newAuditLogger(cfg, logger)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, service.WithAuditLogger(auditLog))
	}

	codec, err := tokens.NewCodec(tokens.Config{
		Secret:    cfg.Auth.JWTSecret,
		Algorithm: cfg.Auth.JWTAlgorithm,
		Issuer:    cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}
	hasher, err := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	authService, err := service.NewAuthService(repo, codec, hasher, &cfg.Auth, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}
	app.auth = authService
	userService := service.NewUserService(repo, svcOpts...)
	syllabusService := service.NewSyllabusService(repo, svcOpts...)

	clientIP, err := httputil.NewClientIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(authService, limiter, cfg.Cookie, logger,
		handlers.WithClientIPResolver(clientIP))

	app.handler = server.NewRouter(server.RouterConfig{
		AuthHandler:     authHandler,
		UserHandler:     handlers.NewUserHandler(userService, logger),
		SyllabusHandler: handlers.NewSyllabusHandler(syllabusService, logger),
		AuthMiddleware:  apimw.NewAuthMiddleware(authService, cfg.Cookie.AccessName, logger),
		Logger:          logger,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		ClientIP:        clientIP,
		HSTS:            cfg.Cookie.IsSecure(),
		HealthCheck:     app.checkHealth,
	})
	return app, nil
}

func (a *application) openRepository(ctx context.Context, cfg *config.Config, logger *logging.Logger) (repository.Repository, error) {
	if cfg.Database.Type != "postgres" {
		logger.Warn("Using in-memory repository (development only)")
		return repository.NewInMemoryRepository(), nil
	}

	pg := cfg.Database.Postgres
	logger.Info("Connecting to PostgreSQL",
		slog.String("host", pg.Host),
		slog.Int("port", pg.Port),
		slog.String("database", pg.Database),
	)
	pool, err := database.NewPool(ctx, pg.DSN(), database.DefaultPoolConfig())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	status, err := migrations.Up(pg.DSN())
	if err != nil {
		return nil, err
	}
	logger.Info("Database migration complete",
		slog.Uint64("version", uint64(status.Version)),
		slog.Bool("dirty", status.Dirty),
	)

	a.healthChecks = append(a.healthChecks, pingCheck(pool))
	return repository.NewPostgresRepository(pool), nil
}

func pingCheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := database.QueryContext(ctx)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// newAuditLogger signs with audit.secret, falling back to the JWT secret, and
// publishes to NATS when nats.url is set.
func (a *application) newAuditLogger(cfg *config.Config, logger *logging.Logger) (*audit.Logger, error) {
	secret := cfg.Audit.Secret
	if secret == "" {
		secret = cfg.Auth.JWTSecret
	}
	opts := []audit.Option{audit.WithLogger(logger)}

	if cfg.NATS.URL != "" {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Token = cfg.NATS.Token
		natsCfg.Logger = logger.Logger
		client, err := natsclient.NewClient(natsCfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.healthChecks = append(a.healthChecks, client.CheckHealth)

		opts = append(opts, audit.WithPublisher(client, cfg.Audit.Subject))
		logger.Info("Publishing audit events", slog.String("subject", cfg.Audit.Subject))
	}
	return audit.NewLogger(secret, opts...), nil
}

// checkHealth runs every registered dependency check and joins the failures.
func (a *application) checkHealth(ctx context.Context) error {
	var errs []error
	for _, check := range a.healthChecks {
		if err := check(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
