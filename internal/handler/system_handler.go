package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/service"
)

type settingsPayload struct {
	YearlyWeekOffsAllowed *int    `json:"yearly_week_offs_allowed" binding:"omitempty,min=0"`
	YearlyNothingsAllowed *int    `json:"yearly_nothings_allowed" binding:"omitempty,min=0"`
	AppPassword           *string `json:"app_password"`
	ClearPassword         bool    `json:"clear_password"`
}

type passwordPayload struct {
	Password string `json:"password"`
}

// HealthCheck 提供监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

// GetSettings 返回当前设置，不包含密码哈希。
func (a *API) GetSettings(c *gin.Context) {
	settings, err := a.settings.Get(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "获取设置失败")
		return
	}
	c.JSON(http.StatusOK, settingsToPayload(settings))
}

// UpdateSettings 部分更新设置。
func (a *API) UpdateSettings(c *gin.Context) {
	var payload settingsPayload
	if !bindJSON(c, &payload, "设置参数不合法") {
		return
	}

	settings, err := a.settings.Update(c.Request.Context(), service.SettingsInput{
		YearlyWeekOffsAllowed: payload.YearlyWeekOffsAllowed,
		YearlyNothingsAllowed: payload.YearlyNothingsAllowed,
		AppPassword:           payload.AppPassword,
		ClearPassword:         payload.ClearPassword,
	})
	if err != nil {
		handleServiceError(c, err, "保存设置失败")
		return
	}
	c.JSON(http.StatusOK, settingsToPayload(settings))
}

// VerifyPassword 校验应用密码。
func (a *API) VerifyPassword(c *gin.Context) {
	var payload passwordPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	ok, err := a.settings.VerifyPassword(c.Request.Context(), payload.Password)
	if err != nil {
		handleServiceError(c, err, "校验密码失败")
		return
	}
	if !ok {
		respondError(c, http.StatusUnauthorized, "密码错误")
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func settingsToPayload(settings service.AppSettings) gin.H {
	return gin.H{
		"yearly_week_offs_allowed": settings.YearlyWeekOffsAllowed,
		"yearly_nothings_allowed":  settings.YearlyNothingsAllowed,
		"has_password":             settings.HasPassword(),
	}
}
