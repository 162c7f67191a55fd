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

	"github.com/BradenHooton/calcvault/internal/auth"
	"github.com/BradenHooton/calcvault/internal/background"
	"github.com/BradenHooton/calcvault/internal/clock"
	"github.com/BradenHooton/calcvault/internal/config"
	"github.com/BradenHooton/calcvault/internal/gate"
	"github.com/BradenHooton/calcvault/internal/handlers"
	"github.com/BradenHooton/calcvault/internal/links"
	"github.com/BradenHooton/calcvault/internal/middleware"
	"github.com/BradenHooton/calcvault/internal/routes"
	"github.com/BradenHooton/calcvault/internal/session"
	"github.com/BradenHooton/calcvault/internal/store"
	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: pkglogger.ParseLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("store", cfg.Database.Driver),
		slog.Bool("admin_routes", cfg.Server.AdminRoutesEnabled),
	)

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
		os.Exit(1)
	}

	// Open the vault store
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	kv, closeStore, err := store.Open(ctx, &cfg.Database, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open vault store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	clk := clock.New()
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Gate and sessions
	vaultGate := gate.New(kv, gate.Config{DefaultPIN: cfg.Vault.DefaultPIN}, clk, logger, auditLogger)

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	if err := vaultGate.Resume(ctx); err != nil {
		// Not fatal: the next verification re-reads the store
		logger.Warn("failed to resume lockout countdown", slog.Any("error", err))
	}
	cancel()

	sessionManager := session.NewManager(vaultGate, clk, session.Config{
		SuccessDelay:  cfg.Vault.SuccessDelay,
		FailureDelay:  cfg.Vault.FailureDelay,
		MaxViolations: cfg.Vault.MaxViolations,
		IdleTimeout:   cfg.Session.IdleTimeout,
	}, logger, auditLogger)

	registry := links.NewRegistry(kv, clk, logger, auditLogger)
	tokenManager := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL)
	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Session.CookieSecure,
		SameSite: cfg.Session.CookieSameSite,
	}

	// Initialize handlers
	h := routes.Handlers{
		Session: handlers.NewSessionHandler(sessionManager, tokenManager, cookieConfig, logger),
		Vault:   handlers.NewVaultHandler(registry, vaultGate, logger),
		Admin:   handlers.NewAdminHandler(vaultGate, registry, sessionManager, auditLogger, ipConfig, logger),
		Health:  handlers.NewHealthHandler(kv, cfg.Database.Driver, logger),
	}

	router := routes.NewRouter(h, routes.Options{
		Env:            cfg.Server.Env,
		Tokens:         tokenManager,
		Sessions:       sessionManager,
		Cookies:        cookieConfig,
		IPConfig:       ipConfig,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      middleware.RateLimitConfig{RequestsPerMinute: cfg.Server.RateLimitPerMinute},
		RequestTimeout: cfg.Server.WriteTimeout,
		AdminEnabled:   cfg.Server.AdminRoutesEnabled,
		StaticDir:      cfg.Server.StaticDir,
		Logger:         logger,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start session sweeper
	sweeper := background.NewSessionSweeper(sessionManager, clk, logger, cfg.Session.SweepInterval)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go sweeper.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
