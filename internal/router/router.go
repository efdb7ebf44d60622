package router

import (
	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/handler"
	applog "github.com/habitlog/internal/log"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, logger *applog.Logger, cfg config.AppConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), applog.GinMiddleware(logger))

	r.GET("/healthz", api.HealthCheck)

	write := newWriteLimiter(cfg.WriteRatePerMinute, cfg.WriteRateBurst).Middleware()

	apiGroup := r.Group("/api")
	{
		// 习惯
		apiGroup.GET("/habits", api.ListHabits)
		apiGroup.POST("/habits", write, api.CreateHabit)
		apiGroup.GET("/habits/:id", api.GetHabit)
		apiGroup.PUT("/habits/:id", write, api.UpdateHabit)
		apiGroup.DELETE("/habits/:id", write, api.DeleteHabit)

		// 每日记录
		apiGroup.GET("/days/:date", api.GetDay)
		apiGroup.PUT("/habits/:id/days/:date/value", write, api.SetTrackingValue)
		apiGroup.PUT("/habits/:id/days/:date/text", write, api.SetTrackingText)
		apiGroup.PUT("/habits/:id/days/:date/miss", write, api.SetOutOfControlMiss)
		apiGroup.GET("/habits/:id/tracking", api.ListTracking)

		// 年度目标与失控缺勤
		apiGroup.GET("/habits/:id/years/:year", api.GetHabitYear)
		apiGroup.POST("/habits/:id/years/:year/rebuild", write, api.RebuildHabitYear)

		apiGroup.GET("/periods/:year", api.ListPeriods)

		// 罚款
		apiGroup.GET("/fines", api.ListFines)
		apiGroup.POST("/fines/recompute", write, api.RecomputeFines)
		apiGroup.GET("/fines/warnings", api.ListFineWarnings)
		apiGroup.PUT("/fines/:id/status", write, api.SetFineStatus)

		// 日记
		apiGroup.GET("/journal", api.ListJournal)
		apiGroup.GET("/journal/:date", api.GetJournal)
		apiGroup.PUT("/journal/:date", write, api.PutJournal)
		apiGroup.DELETE("/journal/:date", write, api.DeleteJournal)

		apiGroup.GET("/analytics/:year", api.GetYearAnalytics)

		// 设置
		apiGroup.GET("/settings", api.GetSettings)
		apiGroup.PUT("/settings", write, api.UpdateSettings)
		apiGroup.POST("/settings/verify-password", write, api.VerifyPassword)
	}

	return r
}
