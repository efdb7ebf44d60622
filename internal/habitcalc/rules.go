package habitcalc

import (
	"slices"

	"github.com/habitlog/internal/period"
)

// MaxFrequencyConditions 限制单个习惯可配置的频率条件数量。
const MaxFrequencyConditions = 5

// FrequencyCondition 约束某个追踪值在一周/一月内允许出现的次数。
type FrequencyCondition struct {
	TrackingValue string      `json:"tracking_value"`
	Frequency     period.Kind `json:"frequency"`
	Count         int         `json:"count"`
}

// YearlyGoal 描述年度目标：贡献值累计达到 Count 次。
type YearlyGoal struct {
	Count              int      `json:"count"`
	ContributingValues []string `json:"contributing_values"`
}

// Contributes 判断 value 是否计入年度目标。
func (g YearlyGoal) Contributes(value string) bool {
	return value != "" && slices.Contains(g.ContributingValues, value)
}

// HabitRules 是计算所需的习惯配置快照。
type HabitRules struct {
	HabitID        uint
	Name           string
	TrackingValues []string
	Conditions     []FrequencyCondition
	FineAmount     int
	Goal           YearlyGoal
	AllowedMisses  int
}

// EffectiveConditions 合并同一追踪值、同一粒度的重复条件，保留最低阈值，顺序按首次出现。
func EffectiveConditions(conds []FrequencyCondition) []FrequencyCondition {
	out := make([]FrequencyCondition, 0, len(conds))
	for _, cond := range conds {
		i := slices.IndexFunc(out, func(c FrequencyCondition) bool {
			return c.TrackingValue == cond.TrackingValue && c.Frequency == cond.Frequency
		})
		if i < 0 {
			out = append(out, cond)
			continue
		}
		if cond.Count < out[i].Count {
			out[i].Count = cond.Count
		}
	}
	return out
}

// DayStates 以 yyyy-MM-dd 为键保存单个习惯的每日状态。
type DayStates map[string]DayState
