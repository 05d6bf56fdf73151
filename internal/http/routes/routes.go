package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/internal/features/auth"
	"github.com/forumhub/forum-server-go/internal/features/forum"
	"github.com/forumhub/forum-server-go/internal/features/post"
	"github.com/forumhub/forum-server-go/internal/features/subscription"
	"github.com/forumhub/forum-server-go/pkg/config"
	"github.com/forumhub/forum-server-go/pkg/health"
	"github.com/forumhub/forum-server-go/pkg/session"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, db *gorm.DB, sessions session.Store, logger *slog.Logger) {
	// Health check endpoints (no auth, for probes)
	healthHandler := health.NewHandler(db, sessions, logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.VersionInfo)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The forum listing is the app's landing page
	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/forums")
	})

	root := engine.Group("")

	auth.RegisterRoutes(root, auth.NewHandler(db, logger))
	forum.RegisterRoutes(root, forum.NewHandler(db, logger))
	post.RegisterRoutes(root, post.NewHandler(db, logger))
	subscription.RegisterRoutes(root, db, subscription.NewHandler(db, logger))
}
