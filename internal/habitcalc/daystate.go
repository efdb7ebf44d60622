// Package habitcalc 包含习惯统计相关的纯计算逻辑：按周期计数、罚款判定、
// 年度目标计数与失控缺勤额度。所有函数都不访问存储，由 service 层负责加载数据后调用。
package habitcalc

import "fmt"

// DayKind 标识某习惯在某天的记录状态。
type DayKind int

const (
	// NoEntry 表示当天没有任何记录。
	NoEntry DayKind = iota
	// Tracked 表示当天选择了一个追踪值。
	Tracked
	// Miss 表示记录存在但没有选择值。
	Miss
	// OutOfControlMiss 表示当天被标记为失控缺勤，占用年度额度。
	OutOfControlMiss
)

func (k DayKind) String() string {
	switch k {
	case Tracked:
		return "tracked"
	case Miss:
		return "miss"
	case OutOfControlMiss:
		return "out_of_control_miss"
	default:
		return "no_entry"
	}
}

// DayState 是单日记录的标签联合体，追踪值与失控缺勤互斥。
type DayState struct {
	kind  DayKind
	value string
}

// Empty 返回无记录状态。
func Empty() DayState { return DayState{kind: NoEntry} }

// TrackedValue 返回选择了 value 的状态。
func TrackedValue(value string) DayState { return DayState{kind: Tracked, value: value} }

// Missed 返回普通缺勤状态。
func Missed() DayState { return DayState{kind: Miss} }

// OutOfControl 返回失控缺勤状态。
func OutOfControl() DayState { return DayState{kind: OutOfControlMiss} }

// FromRecord 由存储字段还原状态。值优先于缺勤标记，保证两者不会同时成立。
func FromRecord(trackedValues []string, outOfControl bool) DayState {
	for _, v := range trackedValues {
		if v != "" {
			return TrackedValue(v)
		}
	}
	if outOfControl {
		return OutOfControl()
	}
	return Missed()
}

// Kind 返回状态类型。
func (s DayState) Kind() DayKind { return s.kind }

// Value 返回追踪值，仅在 Tracked 状态下 ok 为 true。
func (s DayState) Value() (string, bool) {
	if s.kind != Tracked {
		return "", false
	}
	return s.value, true
}

// TrackedValues 转换为存储使用的数组形式。
func (s DayState) TrackedValues() []string {
	if s.kind != Tracked {
		return []string{}
	}
	return []string{s.value}
}

// IsOutOfControlMiss 对应存储中的 is_out_of_control_miss 字段。
func (s DayState) IsOutOfControlMiss() bool { return s.kind == OutOfControlMiss }

func (s DayState) String() string {
	if s.kind == Tracked {
		return fmt.Sprintf("tracked(%s)", s.value)
	}
	return s.kind.String()
}
