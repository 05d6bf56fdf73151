package bootstrap

import (
	"log/slog"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/internal/features/forum"
	"github.com/forumhub/forum-server-go/internal/features/user"
	"github.com/forumhub/forum-server-go/pkg/config"
)

const (
	demoEmail    = "demo@forumhub.local"
	demoPassword = "demo-password"
)

// EnsureDemoData seeds a handful of forums and a demo account so a fresh
// development install has something to click on. Production installs are
// left alone.
func EnsureDemoData(db *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	if cfg.IsProduction() {
		return nil
	}

	var forumCount int64
	if err := db.Model(&forum.Forum{}).Count(&forumCount).Error; err != nil {
		return err
	}

	if forumCount == 0 {
		forums := []forum.Forum{
			{Title: "General", Description: "Anything goes.", Tags: pq.StringArray{"general"}},
			{Title: "Announcements", Description: "News from the team.", Tags: pq.StringArray{"news", "official"}},
			{Title: "Help", Description: "Ask for help here.", Tags: pq.StringArray{"support"}},
		}

		if err := db.Create(&forums).Error; err != nil {
			return err
		}

		logger.Info("seeded demo forums", slog.Int("count", len(forums)))
	}

	if _, err := user.GetByEmail(db, demoEmail); err != nil {
		if err != user.ErrUserNotFound {
			return err
		}

		if _, err := user.Create(db, "Demo Member", demoEmail, demoPassword); err != nil {
			return err
		}

		logger.Info("seeded demo account", slog.String("email", demoEmail))
	}

	return nil
}
