package subscription

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/internal/middleware"
)

// RegisterRoutes sets up the subscription endpoints. Everything here needs
// a logged-in user, loaded fresh from the database.
func RegisterRoutes(router *gin.RouterGroup, db *gorm.DB, handler *Handler) {
	subs := router.Group("/subscriptions", middleware.RequireUser(db, LogonNotice))
	{
		subs.GET("", handler.Index)
		subs.GET("/new", handler.New)
		subs.POST("", handler.Create)

		member := subs.Group("/:subscriptionId", handler.SetSubscription)
		{
			member.GET("", handler.Show)
			member.GET("/edit", handler.Edit)
			member.PATCH("", handler.Update)
			member.PUT("", handler.Update)
			member.DELETE("", handler.Destroy)
		}
	}
}
