package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habitcalc"
	"github.com/habitlog/internal/period"
	"github.com/habitlog/internal/service"
)

type frequencyConditionPayload struct {
	TrackingValue string `json:"tracking_value" binding:"required"`
	Frequency     string `json:"frequency" binding:"required,frequency"`
	Count         int    `json:"count" binding:"min=0"`
}

type yearlyGoalPayload struct {
	Count              int      `json:"count" binding:"min=0"`
	ContributingValues []string `json:"contributing_values"`
}

type habitPayload struct {
	Name                      string                      `json:"name" binding:"required"`
	Color                     string                      `json:"color"`
	Kind                      string                      `json:"kind" binding:"omitempty,oneof=tracking free_text"`
	TrackingValues            []string                    `json:"tracking_values"`
	FrequencyConditions       []frequencyConditionPayload `json:"frequency_conditions" binding:"max=5,dive"`
	FineAmount                int                         `json:"fine_amount" binding:"min=0"`
	YearlyGoal                yearlyGoalPayload           `json:"yearly_goal"`
	AllowedOutOfControlMisses int                         `json:"allowed_out_of_control_misses" binding:"min=0"`
	HintText                  string                      `json:"hint_text"`
}

func (p habitPayload) toInput() service.HabitInput {
	conditions := make([]habitcalc.FrequencyCondition, 0, len(p.FrequencyConditions))
	for _, cond := range p.FrequencyConditions {
		kind, _ := period.ParseKind(cond.Frequency)
		conditions = append(conditions, habitcalc.FrequencyCondition{
			TrackingValue: cond.TrackingValue,
			Frequency:     kind,
			Count:         cond.Count,
		})
	}

	return service.HabitInput{
		Name:                p.Name,
		Color:               p.Color,
		Kind:                p.Kind,
		TrackingValues:      p.TrackingValues,
		FrequencyConditions: conditions,
		FineAmount:          p.FineAmount,
		YearlyGoal: habitcalc.YearlyGoal{
			Count:              p.YearlyGoal.Count,
			ContributingValues: p.YearlyGoal.ContributingValues,
		},
		AllowedOutOfControlMisses: p.AllowedOutOfControlMisses,
		HintText:                  p.HintText,
	}
}

// ListHabits 返回习惯列表
func (a *API) ListHabits(c *gin.Context) {
	habits, err := a.habits.List(c.Request.Context(), service.HabitFilter{
		Kind:   c.Query("kind"),
		Search: c.Query("search"),
	})
	if err != nil {
		handleServiceError(c, err, "获取习惯列表失败")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}
	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// GetHabit 返回单个习惯详情
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	habit, err := a.habits.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "加载习惯失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitPayload
	if !bindJSON(c, &payload, "习惯参数不合法") {
		return
	}

	habit, err := a.habits.Create(c.Request.Context(), payload.toInput())
	if err != nil {
		handleServiceError(c, err, "创建习惯失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"habit": habitToPayload(*habit)})
}

// UpdateHabit 更新习惯
func (a *API) UpdateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	var payload habitPayload
	if !bindJSON(c, &payload, "习惯参数不合法") {
		return
	}

	habit, err := a.habits.Update(c.Request.Context(), id, payload.toInput())
	if err != nil {
		handleServiceError(c, err, "更新习惯失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// DeleteHabit 删除习惯及其全部记录
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	if err := a.habits.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "删除习惯失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func habitToPayload(habit db.Habit) gin.H {
	conditions := make([]gin.H, 0, len(habit.FrequencyConditions))
	for _, cond := range habit.FrequencyConditions {
		conditions = append(conditions, gin.H{
			"tracking_value": cond.TrackingValue,
			"frequency":      cond.Frequency,
			"count":          cond.Count,
		})
	}

	values := []string(habit.TrackingValues)
	if values == nil {
		values = []string{}
	}
	goal := habit.YearlyGoal.Data()
	if goal.ContributingValues == nil {
		goal.ContributingValues = []string{}
	}

	return gin.H{
		"id":                            habit.ID,
		"name":                          habit.Name,
		"color":                         habit.Color,
		"kind":                          habit.Kind,
		"tracking_values":               values,
		"frequency_conditions":          conditions,
		"fine_amount":                   habit.FineAmount,
		"yearly_goal":                   goal,
		"allowed_out_of_control_misses": habit.AllowedOutOfControlMisses,
		"hint_text":                     habit.HintText,
		"created_at":                    habit.CreatedAt,
	}
}
