// Command seed loads demo forums and a demo account into the database.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/forumhub/forum-server-go/internal/bootstrap"
	"github.com/forumhub/forum-server-go/pkg/config"
	"github.com/forumhub/forum-server-go/pkg/database"
	"github.com/forumhub/forum-server-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	db, err := database.Connect(context.Background(), cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close(db, appLogger)

	if err := bootstrap.EnsureDemoData(db, cfg, appLogger); err != nil {
		appLogger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("seeding complete")
}
