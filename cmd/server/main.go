package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sportfed/arena/internal/config"
	"github.com/sportfed/arena/internal/handler"
	"github.com/sportfed/arena/internal/jobs"
	"github.com/sportfed/arena/internal/middleware"
	"github.com/sportfed/arena/internal/service"
	"github.com/sportfed/arena/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err), zap.String("driver", cfg.Store.Driver))
	}
	defer func() { _ = st.close() }()

	// Initialize JWT service
	tokens, err := jwt.NewService(jwt.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Expiration: cfg.JWT.TokenExpiration(),
	})
	if err != nil {
		logger.Fatal("failed to initialize JWT service", zap.Error(err))
	}

	workflow := service.NewWorkflow(service.WorkflowConfig{
		Competitions: st.competitions,
		Applications: st.applications,
		Teams:        st.teams,
		JoinRequests: st.joinRequests,
		Users:        st.users,
		Evaluator:    service.NewEvaluator(cfg.Eligibility.AllowUnknownRegion),
		Logger:       logger.Named("workflow"),
	})

	// Background jobs
	statusSync, err := jobs.NewStatusSyncProcessor(jobs.StatusSyncConfig{
		Syncer:   workflow,
		Schedule: cfg.Jobs.StatusSyncSchedule,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to schedule status sync", zap.Error(err))
	}
	statusSync.Start()

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.RateLimitEnabled() {
		rateLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}, logger)
		defer rateLimiter.Stop()
	}

	router := handler.NewRouter(handler.RouterConfig{
		Workflow:    workflow,
		Verifier:    tokens,
		RateLimiter: rateLimiter,
		Store:       st.pinger,
		Logger:      logger.Named("http"),
		CORSOrigins: cfg.Server.AllowedOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
			zap.String("store", cfg.Store.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	statusSync.Stop(shutdownCtx)

	logger.Info("server exited")
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewExample()
	}
	return logger
}
