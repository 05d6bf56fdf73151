package post

import (
	"github.com/gin-gonic/gin"

	"github.com/forumhub/forum-server-go/internal/middleware"
)

// RegisterRoutes sets up the post endpoints. Reading is public; every
// mutation sits behind the logon guard, and edit/update/destroy behind the
// ownership guard as well.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	logon := middleware.RequireLogon(LogonNotice)

	// The logon guard runs before the locator: an anonymous caller is
	// turned away without learning whether the id exists.
	forumPosts := router.Group("/forums/:forumId/posts")
	{
		forumPosts.GET("", handler.SetForum, handler.Index)
		forumPosts.GET("/new", logon, handler.SetForum, handler.New)
		forumPosts.POST("", logon, handler.SetForum, handler.Create)
	}

	posts := router.Group("/posts/:postId")
	{
		posts.GET("", handler.SetPost, handler.Show)
		posts.GET("/edit", logon, handler.SetPost, handler.RequireOwner, handler.Edit)
		posts.PATCH("", logon, handler.SetPost, handler.RequireOwner, handler.Update)
		posts.PUT("", logon, handler.SetPost, handler.RequireOwner, handler.Update)
		posts.DELETE("", logon, handler.SetPost, handler.RequireOwner, handler.Destroy)
	}
}
