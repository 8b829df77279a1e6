package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Ping 健康检查
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"status":  "ok",
	})
}

// SetupRoutes 配置路由
func (h *Handler) SetupRoutes(r *gin.Engine) {
	r.Use(CORS())

	r.GET("/ping", Ping)

	// API 路由组
	api := r.Group("/api")
	{
		// 公开接口 (无需认证)
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)

		// 搜索: 登录用户会记录搜索历史
		api.POST("/search", h.OptionalAuth(), h.Search)
		api.GET("/pois/search", h.DirectSearch)
		api.GET("/pois/nearby", h.Nearby)
		api.GET("/pois/match", h.MatchPOI)
		api.GET("/pois/:id", h.GetPOIDetail)

		api.POST("/route/walking", h.WalkingRoute)

		authorized := api.Group("/")
		authorized.Use(h.AuthMiddleware())
		{
			authorized.GET("/me", h.Me)
			authorized.GET("/search/history", h.SearchHistory)
		}
	}
}
