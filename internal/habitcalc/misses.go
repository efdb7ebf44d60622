package habitcalc

import "errors"

var (
	// ErrMissValueTracked 当天已有追踪值时不能标记失控缺勤。
	ErrMissValueTracked = errors.New("a value is already tracked for this day")
	// ErrMissAllowanceExhausted 年度失控缺勤额度已用完。
	ErrMissAllowanceExhausted = errors.New("no out-of-control misses remaining this year")
)

// RemainingMisses 返回剩余的失控缺勤额度，可能为负（额度被下调时）。
func RemainingMisses(allowed, used int) int {
	return allowed - used
}

// MissToggle 是切换失控缺勤标记后的结果。
type MissToggle struct {
	Next    DayState
	Used    int
	Changed bool
}

// ToggleMiss 打开或关闭某天的失控缺勤标记。打开失败时不产生任何状态变化；
// 关闭总是成功，仅在原本已标记时归还一次额度。
func ToggleMiss(prev DayState, on bool, allowed, used int) (MissToggle, error) {
	if on {
		switch prev.Kind() {
		case Tracked:
			return MissToggle{Next: prev, Used: used}, ErrMissValueTracked
		case OutOfControlMiss:
			return MissToggle{Next: prev, Used: used}, nil
		}
		if RemainingMisses(allowed, used) <= 0 {
			return MissToggle{Next: prev, Used: used}, ErrMissAllowanceExhausted
		}
		return MissToggle{Next: OutOfControl(), Used: used + 1, Changed: true}, nil
	}

	if prev.Kind() != OutOfControlMiss {
		return MissToggle{Next: prev, Used: used}, nil
	}
	return MissToggle{Next: Missed(), Used: decrementFloor(used), Changed: true}, nil
}
