package habitcalc

import "time"

// Transition 是一次选择变更后的结果。
type Transition struct {
	Next        DayState
	Progress    int
	ClearedMiss bool
	Changed     bool
}

// ApplyGoalTransition 将某天的选择从 prev 改为 value（nil 表示清空），并同步年度目标计数。
//
// 旧值属于贡献值时计数减 1（不低于 0），新值属于贡献值时加 1；
// 选择了新值会强制清除失控缺勤标记。每次变更只调整一次计数。
// 截断到 0 会丢失信息，乱序编辑时逆向操作不一定能精确还原。
func ApplyGoalTransition(goal YearlyGoal, progress int, prev DayState, value *string) Transition {
	oldValue, hadValue := prev.Value()

	if value == nil || *value == "" {
		if !hadValue {
			// 没有值可清空，失控缺勤保持不变
			if prev.Kind() == OutOfControlMiss {
				return Transition{Next: prev, Progress: progress}
			}
			return Transition{Next: Missed(), Progress: progress, Changed: prev.Kind() != Miss}
		}
		if goal.Contributes(oldValue) {
			progress = decrementFloor(progress)
		}
		return Transition{Next: Missed(), Progress: progress, Changed: true}
	}

	newValue := *value
	if hadValue && oldValue == newValue {
		return Transition{Next: prev, Progress: progress}
	}

	if hadValue && goal.Contributes(oldValue) {
		progress = decrementFloor(progress)
	}
	if goal.Contributes(newValue) {
		progress++
	}

	return Transition{
		Next:        TrackedValue(newValue),
		Progress:    progress,
		ClearedMiss: prev.Kind() == OutOfControlMiss,
		Changed:     true,
	}
}

// GoalPercent 返回目标完成百分比，目标为 0 时返回 0。
func GoalPercent(goal YearlyGoal, progress int) float64 {
	if goal.Count <= 0 {
		return 0
	}
	return float64(progress) / float64(goal.Count) * 100
}

func decrementFloor(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func yearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}
