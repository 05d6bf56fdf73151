package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forumhub/forum-server-go/internal/bootstrap"
	"github.com/forumhub/forum-server-go/internal/http/routes"
	"github.com/forumhub/forum-server-go/pkg/config"
	"github.com/forumhub/forum-server-go/pkg/database"
	"github.com/forumhub/forum-server-go/pkg/logger"
	"github.com/forumhub/forum-server-go/pkg/metrics"
	"github.com/forumhub/forum-server-go/pkg/middleware"
	"github.com/forumhub/forum-server-go/pkg/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := database.Close(db, appLogger); err != nil {
			appLogger.Error("database close failed", slog.String("error", err.Error()))
		}
	}()

	sessionStore, err := newSessionStore(cfg, appLogger)
	if err != nil {
		appLogger.Error("session store initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sessionStore.Close()

	sessionManager := session.NewManager(sessionStore, cfg.Session)

	if err := bootstrap.EnsureDemoData(db, cfg, appLogger); err != nil {
		appLogger.Error("seed demo data failed", slog.String("error", err.Error()))
	}

	router := gin.New()
	router.LoadHTMLGlob("web/templates/*.html")

	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(1 * 1024 * 1024)) // 1MB is plenty for forms
	router.Use(metrics.Middleware())

	rateLimiter := middleware.NewRateLimiter(100, time.Minute)
	router.Use(rateLimiter.Middleware())

	router.Use(sessionManager.Middleware())

	routes.Register(router, cfg, db, sessionStore, appLogger)

	srv := &http.Server{
		Addr: cfg.ServerAddress(),
		// Form submissions spell PATCH/PUT/DELETE through _method, which has
		// to be rewritten before the router dispatches.
		Handler:           middleware.MethodOverride(router),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	appLogger.Info("server started successfully")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}

func newSessionStore(cfg *config.Config, appLogger *slog.Logger) (session.Store, error) {
	if cfg.Redis.Addr == "" {
		appLogger.Warn("FORUM_REDIS_ADDR not set, sessions are kept in process memory")
		return session.NewMemoryStore(), nil
	}

	return session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
}
