package forum

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the public forum endpoints.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	router.GET("/forums", handler.Index)
	router.GET("/forums/:forumId", handler.Show)
}
