package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the registration and session endpoints.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	router.GET("/register", handler.NewRegistration)
	router.POST("/register", handler.CreateRegistration)
	router.GET("/login", handler.NewSession)
	router.POST("/login", handler.CreateSession)
	router.POST("/logout", handler.DestroySession)
	router.DELETE("/logout", handler.DestroySession)
}
