package habitcalc

import "github.com/habitlog/internal/period"

// CountValues 统计周期内每个追踪值出现的天数。已配置的追踪值即使为 0 也会出现在结果中。
// 每次调用都从原始记录重新计算，以便历史记录被修改后结果依然正确。
func CountValues(trackingValues []string, p period.Period, days DayStates) map[string]int {
	counts := make(map[string]int, len(trackingValues))
	for _, v := range trackingValues {
		counts[v] = 0
	}

	for _, date := range p.Dates() {
		state, ok := days[date]
		if !ok {
			continue
		}
		if value, tracked := state.Value(); tracked {
			counts[value]++
		}
	}
	return counts
}

// CountValue 只统计单个追踪值。
func CountValue(value string, p period.Period, days DayStates) int {
	return CountValues([]string{value}, p, days)[value]
}

// RecountProgress 根据记录重新计算某年的年度目标进度，不受计数下限截断影响。
func RecountProgress(goal YearlyGoal, year int, days DayStates) int {
	total := 0
	for _, date := range period.DatesInPeriod(yearStart(year), yearEnd(year)) {
		if value, ok := days[date].Value(); ok && goal.Contributes(value) {
			total++
		}
	}
	return total
}
