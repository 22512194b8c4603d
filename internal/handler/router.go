package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ragvault/ragvault/internal/middleware"
)

type RouterDeps struct {
	Tenants       *TenantHandler
	Documents     *DocumentHandler
	Chat          *ChatHandler
	Audits        *AuditHandler
	JWTSecret     []byte
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/tenants", deps.Tenants.Create)
	api.GET("/tenants", deps.Tenants.List)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/documents", deps.Documents.Upload)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)

	authGroup.PUT("/policy", deps.Tenants.SetPolicy)
	authGroup.GET("/policy", deps.Tenants.GetPolicy)

	chatGroup := authGroup.Group("")
	if deps.ChatRateLimit > 0 {
		chatGroup.Use(middleware.RateLimit(deps.ChatRateLimit))
	}
	chatGroup.POST("/chat", deps.Chat.Chat)

	authGroup.GET("/conversations", deps.Chat.ListConversations)
	authGroup.GET("/conversations/:id", deps.Chat.GetConversation)

	authGroup.GET("/audits", deps.Audits.List)
}
