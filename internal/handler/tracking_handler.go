package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habitcalc"
	"github.com/habitlog/internal/period"
	"github.com/habitlog/internal/service"
)

type trackingValuePayload struct {
	Value *string `json:"value"`
}

type trackingTextPayload struct {
	Text string `json:"text"`
}

type missTogglePayload struct {
	On *bool `json:"on" binding:"required"`
}

// GetDay 返回某天所有习惯的记录
func (a *API) GetDay(c *gin.Context) {
	day, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	entries, err := a.tracking.Day(c.Request.Context(), day)
	if err != nil {
		handleServiceError(c, err, "获取当天记录失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		item := stateToPayload(entry.State)
		item["habit"] = habitToPayload(entry.Habit)
		item["date"] = entry.Date
		if entry.TextValue != "" {
			item["text_value"] = entry.TextValue
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"date": period.FormatDate(day), "entries": items})
}

// SetTrackingValue 设置或清空某天的追踪值
func (a *API) SetTrackingValue(c *gin.Context) {
	habitID, day, ok := a.trackingTarget(c)
	if !ok {
		return
	}

	var payload trackingValuePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	result, err := a.tracking.SetValue(c.Request.Context(), habitID, day, payload.Value)
	if err != nil {
		handleServiceError(c, err, "保存记录失败")
		return
	}
	c.JSON(http.StatusOK, trackingResultToPayload(result))
}

// SetTrackingText 保存文本类习惯的内容
func (a *API) SetTrackingText(c *gin.Context) {
	habitID, day, ok := a.trackingTarget(c)
	if !ok {
		return
	}

	var payload trackingTextPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	record, err := a.tracking.SetText(c.Request.Context(), habitID, day, payload.Text)
	if err != nil {
		handleServiceError(c, err, "保存记录失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": recordToPayload(*record)})
}

// SetOutOfControlMiss 切换失控缺勤标记
func (a *API) SetOutOfControlMiss(c *gin.Context) {
	habitID, day, ok := a.trackingTarget(c)
	if !ok {
		return
	}

	var payload missTogglePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	result, err := a.tracking.SetOutOfControlMiss(c.Request.Context(), habitID, day, *payload.On)
	if err != nil {
		handleServiceError(c, err, "保存失控缺勤失败")
		return
	}
	c.JSON(http.StatusOK, trackingResultToPayload(result))
}

// ListTracking 返回习惯在区间内的记录，默认本月
func (a *API) ListTracking(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	month := period.Containing(period.Monthly, a.today())
	start, end := month.Start, month.End
	if raw := c.Query("start"); raw != "" {
		if start, err = period.ParseDate(raw); err != nil {
			respondError(c, http.StatusBadRequest, "无效的开始日期")
			return
		}
	}
	if raw := c.Query("end"); raw != "" {
		if end, err = period.ParseDate(raw); err != nil {
			respondError(c, http.StatusBadRequest, "无效的结束日期")
			return
		}
	}

	if _, err := a.habits.Get(c.Request.Context(), habitID); err != nil {
		handleServiceError(c, err, "加载习惯失败")
		return
	}

	records, err := a.tracking.Range(c.Request.Context(), habitID, start, end)
	if err != nil {
		handleServiceError(c, err, "获取记录失败")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, recordToPayload(record))
	}
	c.JSON(http.StatusOK, gin.H{
		"habit_id": habitID,
		"range":    gin.H{"start": period.FormatDate(start), "end": period.FormatDate(end)},
		"records":  items,
	})
}

// GetHabitYear 返回年度目标进度与剩余失控缺勤额度
func (a *API) GetHabitYear(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}
	year, ok := parseYearParam(c)
	if !ok {
		return
	}

	status, err := a.tracking.YearStatus(c.Request.Context(), habitID, year)
	if err != nil {
		handleServiceError(c, err, "获取年度进度失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit_id":         status.HabitID,
		"year":             status.Year,
		"goal_count":       status.GoalCount,
		"progress_count":   status.ProgressCount,
		"goal_percent":     status.GoalPercent,
		"misses_allowed":   status.MissesAllowed,
		"misses_used":      status.MissesUsed,
		"misses_remaining": status.MissesRemaining,
	})
}

// RebuildHabitYear 依据记录重新计算年度进度
func (a *API) RebuildHabitYear(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}
	year, ok := parseYearParam(c)
	if !ok {
		return
	}

	count, err := a.tracking.RebuildProgress(c.Request.Context(), habitID, year)
	if err != nil {
		handleServiceError(c, err, "重算年度进度失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit_id": habitID, "year": year, "progress_count": count})
}

// ListPeriods 返回某年的周或月周期
func (a *API) ListPeriods(c *gin.Context) {
	year, ok := parseYearParam(c)
	if !ok {
		return
	}
	kind, ok := period.ParseKind(c.DefaultQuery("kind", string(period.Weekly)))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的周期类型")
		return
	}

	periods := period.ForKind(kind, year)
	items := make([]gin.H, 0, len(periods))
	for _, p := range periods {
		items = append(items, periodToPayload(p))
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "kind": kind, "periods": items})
}

func (a *API) trackingTarget(c *gin.Context) (uint, time.Time, bool) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return 0, time.Time{}, false
	}
	day, ok := parseDateParam(c, "date")
	if !ok {
		return 0, time.Time{}, false
	}
	return habitID, day, true
}

func stateToPayload(state habitcalc.DayState) gin.H {
	item := gin.H{"state": state.Kind().String(), "value": nil}
	if value, ok := state.Value(); ok {
		item["value"] = value
	}
	return item
}

func recordToPayload(record db.DailyTracking) gin.H {
	item := stateToPayload(record.State())
	item["id"] = record.ID
	item["habit_id"] = record.HabitID
	item["date"] = record.Date
	item["is_out_of_control_miss"] = record.IsOutOfControlMiss
	if record.TextValue != "" {
		item["text_value"] = record.TextValue
	}
	return item
}

func trackingResultToPayload(result *service.TrackingResult) gin.H {
	return gin.H{
		"record":           recordToPayload(result.Record),
		"year":             result.Year,
		"progress_count":   result.ProgressCount,
		"misses_used":      result.MissesUsed,
		"misses_remaining": result.MissesRemaining,
	}
}

func periodToPayload(p period.Period) gin.H {
	return gin.H{
		"key":   p.Key,
		"kind":  p.Kind,
		"label": p.Label,
		"start": period.FormatDate(p.Start),
		"end":   period.FormatDate(p.End),
	}
}
