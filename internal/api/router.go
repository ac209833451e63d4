package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/profileviewer-go/internal/config"
	"github.com/jengzang/profileviewer-go/internal/handler"
	"github.com/jengzang/profileviewer-go/internal/middleware"
	"github.com/jengzang/profileviewer-go/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(ctx context.Context, cfg *config.Config, dashboards *service.DashboardService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"message":  "Profile viewer API is running",
			"sessions": dashboards.Len(),
		})
	})

	h := handler.NewDashboardHandler(dashboards)

	// API 路由组
	api := r.Group("/api/v1")
	if cfg.RateLimit > 0 {
		api.Use(middleware.RateLimit(ctx, cfg.RateLimit, time.Minute))
	}
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", h.OpenSession)
			sessions.POST("/batch", h.OpenBatch)

			// 单个会话
			s := sessions.Group("/:token")
			{
				s.GET("/views", h.GetViews)
				s.GET("/views/:kind", h.GetView)
				s.POST("/filter", h.SetFilter)
				s.POST("/focus", h.Focus)
				s.POST("/unfocus", h.Unfocus)
				s.GET("/markers", h.GetMarkers)
				s.GET("/summary", h.GetSummary)
				s.GET("/events", h.Events)
				s.DELETE("", h.CloseSession)
			}
		}
	}

	return r
}
