package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetYearAnalytics 返回年度统计，罚款部分先按当前记录重算
func (a *API) GetYearAnalytics(c *gin.Context) {
	year, ok := parseYearParam(c)
	if !ok {
		return
	}

	if _, err := a.fines.Recompute(c.Request.Context(), year, a.today()); err != nil {
		handleServiceError(c, err, "计算罚款失败")
		return
	}

	report, err := a.analytics.Year(c.Request.Context(), year)
	if err != nil {
		handleServiceError(c, err, "获取统计数据失败")
		return
	}

	habits := make([]gin.H, 0, len(report.Habits))
	for _, h := range report.Habits {
		habits = append(habits, gin.H{
			"habit_id":            h.HabitID,
			"name":                h.Name,
			"kind":                h.Kind,
			"value_counts":        h.ValueCounts,
			"monthly_counts":      h.MonthlyCounts,
			"miss_days":           h.MissDays,
			"out_of_control_days": h.OutOfControlDays,
			"text_days":           h.TextDays,
			"goal": gin.H{
				"count":     h.GoalCount,
				"progress":  h.ProgressCount,
				"recounted": h.RecountedCount,
				"percent":   h.GoalPercent,
			},
			"misses": gin.H{
				"allowed":   h.MissesAllowed,
				"used":      h.MissesUsed,
				"remaining": h.MissesRemaining,
			},
			"fines": gin.H{
				"count":         h.Fines.Count,
				"paid_amount":   h.Fines.PaidAmount,
				"unpaid_amount": h.Fines.UnpaidAmount,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"year":   report.Year,
		"habits": habits,
		"mood": gin.H{
			"entries":      report.Mood.Entries,
			"average":      report.Mood.Average,
			"distribution": report.Mood.Distribution,
		},
	})
}
