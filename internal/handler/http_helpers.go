package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/habitcalc"
	"github.com/habitlog/internal/period"
	"github.com/habitlog/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.Error(err)
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseDateParam(c *gin.Context, key string) (time.Time, bool) {
	d, err := period.ParseDate(c.Param(key))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return time.Time{}, false
	}
	return d, true
}

func parseYear(raw string) (int, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year < 1970 || year > 9999 {
		return 0, false
	}
	return year, true
}

func parseYearParam(c *gin.Context) (int, bool) {
	year, ok := parseYear(c.Param("year"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的年份")
	}
	return year, ok
}

// yearQuery 读取 ?year=，缺省为今年
func (a *API) yearQuery(c *gin.Context) (int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return a.today().Year(), true
	}
	year, ok := parseYear(raw)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的年份")
	}
	return year, ok
}

// handleServiceError 将 service 层哨兵错误映射为 HTTP 状态码
func handleServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, service.ErrFineNotFound):
		respondError(c, http.StatusNotFound, "罚款记录不存在")
	case errors.Is(err, service.ErrJournalNotFound):
		respondError(c, http.StatusNotFound, "当天没有日记")
	case errors.Is(err, service.ErrHabitInvalid):
		respondError(c, http.StatusBadRequest, "习惯配置无效："+detail(err))
	case errors.Is(err, service.ErrTrackingInvalid):
		respondError(c, http.StatusBadRequest, "记录无效："+detail(err))
	case errors.Is(err, service.ErrJournalInvalid):
		respondError(c, http.StatusBadRequest, "日记无效："+detail(err))
	case errors.Is(err, service.ErrSettingsInvalid):
		respondError(c, http.StatusBadRequest, "设置无效："+detail(err))
	case errors.Is(err, service.ErrInvalidFineStatus):
		respondError(c, http.StatusBadRequest, "无效的支付状态")
	case errors.Is(err, habitcalc.ErrMissValueTracked):
		respondError(c, http.StatusConflict, "当天已有记录，不能标记失控缺勤")
	case errors.Is(err, habitcalc.ErrMissAllowanceExhausted):
		respondError(c, http.StatusConflict, "今年的失控缺勤额度已用完")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// detail 取包装错误中哨兵之后的说明
func detail(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
