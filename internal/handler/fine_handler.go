package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habitcalc"
	"github.com/habitlog/internal/service"
)

type fineStatusPayload struct {
	Status string `json:"status" binding:"required,oneof=paid unpaid"`
}

// ListFines 先按当前记录重算该年罚款，再按条件返回列表
func (a *API) ListFines(c *gin.Context) {
	year, ok := a.yearQuery(c)
	if !ok {
		return
	}

	filter := service.FineFilter{Year: year, Status: c.Query("status")}
	if raw := c.Query("habit_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的习惯ID")
			return
		}
		filter.HabitID = uint(id)
	}

	if _, err := a.fines.Recompute(c.Request.Context(), year, a.today()); err != nil {
		handleServiceError(c, err, "计算罚款失败")
		return
	}

	fines, err := a.fines.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err, "获取罚款列表失败")
		return
	}

	items := make([]gin.H, 0, len(fines))
	total, unpaid := 0, 0
	for _, fine := range fines {
		items = append(items, fineToPayload(fine))
		total += fine.FineAmount
		if fine.Status != string(habitcalc.FinePaid) {
			unpaid += fine.FineAmount
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"year":          year,
		"fines":         items,
		"total_amount":  total,
		"unpaid_amount": unpaid,
	})
}

// RecomputeFines 手动触发罚款重算
func (a *API) RecomputeFines(c *gin.Context) {
	year, ok := a.yearQuery(c)
	if !ok {
		return
	}

	result, err := a.fines.Recompute(c.Request.Context(), year, a.today())
	if err != nil {
		handleServiceError(c, err, "计算罚款失败")
		return
	}

	items := make([]gin.H, 0, len(result.Fines))
	for _, fine := range result.Fines {
		items = append(items, fineToPayload(fine))
	}
	c.JSON(http.StatusOK, gin.H{
		"year":     result.Year,
		"periods":  result.Periods,
		"created":  result.Created,
		"updated":  result.Updated,
		"removed":  result.Removed,
		"fines":    items,
		"warnings": warningsToPayload(result.Warnings),
	})
}

// SetFineStatus 标记罚款为已支付/未支付
func (a *API) SetFineStatus(c *gin.Context) {
	var payload fineStatusPayload
	if !bindJSON(c, &payload, "无效的支付状态") {
		return
	}

	fine, err := a.fines.SetStatus(c.Request.Context(), c.Param("id"), payload.Status)
	if err != nil {
		handleServiceError(c, err, "更新罚款状态失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fine": fineToPayload(*fine)})
}

// ListFineWarnings 返回本周与本月接近上限的提醒
func (a *API) ListFineWarnings(c *gin.Context) {
	warnings, err := a.fines.Warnings(c.Request.Context(), a.today())
	if err != nil {
		handleServiceError(c, err, "获取提醒失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"warnings": warningsToPayload(warnings)})
}

func fineToPayload(fine db.FineDetail) gin.H {
	return gin.H{
		"id":              fine.ID,
		"period":          fine.Period,
		"period_key":      fine.PeriodKey,
		"period_start":    fine.PeriodStart,
		"period_end":      fine.PeriodEnd,
		"year":            fine.Year,
		"habit_id":        fine.HabitID,
		"tracking_value":  fine.TrackingValue,
		"condition_count": fine.ConditionCount,
		"actual_count":    fine.ActualCount,
		"fine_amount":     fine.FineAmount,
		"status":          fine.Status,
		"cause":           fine.Cause,
		"created_at":      fine.CreatedAt,
	}
}

func warningsToPayload(warnings []habitcalc.Warning) []gin.H {
	items := make([]gin.H, 0, len(warnings))
	for _, w := range warnings {
		items = append(items, gin.H{
			"habit_id":        w.HabitID,
			"habit_name":      w.HabitName,
			"tracking_value":  w.TrackingValue,
			"period_key":      w.PeriodKey,
			"kind":            w.Kind,
			"condition_count": w.ConditionCount,
			"actual_count":    w.ActualCount,
			"message":         w.Message,
		})
	}
	return items
}
