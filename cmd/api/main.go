// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Rentwise HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Build shared infrastructure (i18n, delivery, side effects, audit).
//  7. Wire the sign-in domain.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/rentwise/internal/api"
	"github.com/taibuivan/rentwise/internal/platform/config"
	"github.com/taibuivan/rentwise/internal/platform/constants"
	"github.com/taibuivan/rentwise/internal/platform/effects"
	"github.com/taibuivan/rentwise/internal/platform/i18n"
	"github.com/taibuivan/rentwise/internal/platform/migration"
	"github.com/taibuivan/rentwise/internal/platform/notify"
	pgstore "github.com/taibuivan/rentwise/internal/platform/postgres"
	"github.com/taibuivan/rentwise/internal/platform/ratelimit"
	redisstore "github.com/taibuivan/rentwise/internal/platform/redis"
	"github.com/taibuivan/rentwise/internal/platform/sec"
	"github.com/taibuivan/rentwise/internal/system/securitylog"
	"github.com/taibuivan/rentwise/internal/users/account"
	"github.com/taibuivan/rentwise/internal/users/auth"
	"github.com/taibuivan/rentwise/internal/users/identity"
	"github.com/taibuivan/rentwise/internal/users/verification"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[Rentwise] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Startup has a 30s deadline so misconfiguration fails fast.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives as long as the process; stops background janitors on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Shared Infrastructure ──────────────────────────────────────────
	catalog, err := i18n.Load(cfg.DefaultLanguage)
	must(log, err, "load message catalog")

	sender := newSender(cfg, log)

	dispatcher := effects.NewDispatcher(log, effects.DefaultConcurrency, effects.DefaultTaskTimeout)

	securityLogger := securitylog.NewLogger(securitylog.NewPostgresRepository(pool), dispatcher, log)

	tokenService, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	must(log, err, "initialize token service")

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	accountRepository := auth.NewAccountRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)

	issuer := verification.NewIssuer(verification.Dependencies{
		Repository: verification.NewPostgresRepository(pool),
		Sender:     sender,
		Catalog:    catalog,
		Marker:     accountRepository,
		Audit:      securityLogger,
		Logger:     log,
		CodeLength: cfg.VerificationCodeLength,
	})

	authService := auth.NewService(auth.Dependencies{
		Accounts:    accountRepository,
		Sessions:    sessionRepository,
		Tickets:     auth.NewRegistrationTicketRepository(rdb),
		Tokens:      tokenService,
		Codes:       issuer,
		Failures:    ratelimit.NewRedisWindow(rdb),
		SecurityLog: securityLogger,
		Sender:      sender,
		Catalog:     catalog,
		Effects:     dispatcher,
		Logger:      log,
	})

	resolver := identity.NewResolver(accountRepository, issuer, authService, log)
	accountService := account.NewService(sessionRepository, securityLogger, log)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth: auth.NewHandler(authService, auth.CookieSettings{
			Domain:     cfg.CookieDomain,
			Production: cfg.IsProduction(),
		}, cfg.ClientURL),
		Identity: identity.NewHandler(resolver),
		Account:  account.NewHandler(accountService),
	}

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, authService, handlers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	exitCode := 0
	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		exitCode = 1
	}

	// Notifications and audit writes queued by the last requests.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), effects.DefaultTaskTimeout)
	if err := dispatcher.Close(drainCtx); err != nil {
		log.Error("effects_drain_failed", slog.Any("error", err))
		exitCode = 1
	}
	drainCancel()

	if exitCode != 0 {
		rootCancel()
		os.Exit(exitCode)
	}
	log.Info("server_stopped_cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", "rentwise"))
}

// newSender routes email through SMTP when configured. SMS and unconfigured
// email are written to the log.
func newSender(cfg *config.Config, log *slog.Logger) notify.Sender {
	logSender := notify.NewLogSender(log, cfg.IsDevelopment())
	router := notify.NewRouter().Handle(notify.ChannelSMS, logSender)

	if !cfg.SMTPEnabled() {
		log.Warn("smtp_not_configured", slog.String("fallback", "log"))
		return router.Handle(notify.ChannelEmail, logSender)
	}

	return router.Handle(notify.ChannelEmail, notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
