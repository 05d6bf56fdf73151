package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Version information, typically set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Pinger is implemented by backends the readiness probe should verify,
// such as the session store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles health check endpoints.
type Handler struct {
	db       *gorm.DB
	sessions Pinger
	logger   *slog.Logger
}

// NewHandler creates a new health check handler. sessions may be nil when
// sessions are kept in process memory.
func NewHandler(db *gorm.DB, sessions Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		db:       db,
		sessions: sessions,
		logger:   logger,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health is a simple liveness probe that always returns OK.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   Version,
	})
}

// Ready checks that the database and session store can be reached before
// declaring the instance ready for traffic.
func (h *Handler) Ready(c *gin.Context) {
	checks := make(map[string]string)
	overallStatus := "ready"

	dbStatus := h.checkDatabase()
	checks["database"] = dbStatus
	if dbStatus != "ok" {
		overallStatus = "not_ready"
	}

	if h.sessions != nil {
		sessionStatus := h.checkSessions()
		checks["sessions"] = sessionStatus
		if sessionStatus != "ok" {
			overallStatus = "not_ready"
		}
	}

	statusCode := http.StatusOK
	if overallStatus != "ready" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Version:   Version,
		Checks:    checks,
	})
}

// VersionInfo returns version information about the service.
func (h *Handler) VersionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	})
}

func (h *Handler) checkDatabase() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err != nil {
		h.logger.Error("health check: failed to get database instance", slog.String("error", err.Error()))
		return "unavailable"
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		h.logger.Error("health check: database ping failed", slog.String("error", err.Error()))
		return "unhealthy"
	}

	return "ok"
}

func (h *Handler) checkSessions() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.sessions.Ping(ctx); err != nil {
		h.logger.Error("health check: session store ping failed", slog.String("error", err.Error()))
		return "unhealthy"
	}

	return "ok"
}
