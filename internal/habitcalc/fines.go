package habitcalc

import (
	"fmt"
	"time"

	"github.com/habitlog/internal/period"
)

// FineStatus 表示罚款的支付状态，是罚款记录中唯一允许用户修改的字段。
type FineStatus string

const (
	FineUnpaid FineStatus = "unpaid"
	FinePaid   FineStatus = "paid"
)

// ParseFineStatus 校验支付状态。
func ParseFineStatus(raw string) (FineStatus, bool) {
	switch FineStatus(raw) {
	case FinePaid:
		return FinePaid, true
	case FineUnpaid:
		return FineUnpaid, true
	default:
		return "", false
	}
}

// FineKey 唯一标识一条罚款：同一周期、同一习惯、同一追踪值最多一条。
type FineKey struct {
	PeriodKey     string
	HabitID       uint
	TrackingValue string
}

// ExistingFine 是重新计算时需要继承的已有罚款字段。
type ExistingFine struct {
	ID        string
	Status    FineStatus
	CreatedAt time.Time
}

// FineDraft 是一次计算得到的罚款结果，由 service 层落库。
type FineDraft struct {
	Key            FineKey
	Period         period.Period
	ConditionCount int
	ActualCount    int
	FineAmount     int
	Status         FineStatus
	Cause          string
	Existing       *ExistingFine
}

// WarningKind 区分临界提醒的类型。
type WarningKind string

const (
	// WarningAtLimit 已达上限，再记录一次就会罚款。
	WarningAtLimit WarningKind = "at_limit"
	// WarningOneLeft 距离上限仅剩一次。
	WarningOneLeft WarningKind = "one_left"
)

// Warning 是进行中周期的临界提醒，不落库。
type Warning struct {
	HabitID        uint
	HabitName      string
	TrackingValue  string
	PeriodKey      string
	Kind           WarningKind
	ConditionCount int
	ActualCount    int
	Message        string
}

// FineInput 汇总单个周期的罚款计算输入。
type FineInput struct {
	Period   period.Period
	Habits   []HabitRules
	Days     map[uint]DayStates
	Existing map[FineKey]ExistingFine
	Today    time.Time
}

// EvaluateFines 对周期内每个习惯、每个匹配粒度的频率条件进行判定。
// 结果只依赖输入，重复执行得到相同的罚款集合；已有罚款的 ID 与状态被保留。
func EvaluateFines(in FineInput) ([]FineDraft, []Warning) {
	var (
		fines    []FineDraft
		warnings []Warning
	)
	inProgress := in.Period.Contains(in.Today)

	for _, habit := range in.Habits {
		days := in.Days[habit.HabitID]
		for _, cond := range EffectiveConditions(habit.Conditions) {
			if cond.Frequency != in.Period.Kind {
				continue
			}

			actual := CountValue(cond.TrackingValue, in.Period, days)
			key := FineKey{PeriodKey: in.Period.Key, HabitID: habit.HabitID, TrackingValue: cond.TrackingValue}

			if actual > cond.Count {
				draft := FineDraft{
					Key:            key,
					Period:         in.Period,
					ConditionCount: cond.Count,
					ActualCount:    actual,
					FineAmount:     habit.FineAmount,
					Status:         FineUnpaid,
					Cause:          fineCause(in.Period.Kind, cond.TrackingValue, cond.Count, actual),
				}
				if prev, ok := in.Existing[key]; ok {
					existing := prev
					draft.Existing = &existing
					if prev.Status != "" {
						draft.Status = prev.Status
					}
				}
				fines = append(fines, draft)
			}

			if !inProgress || cond.Count <= 0 {
				continue
			}
			switch actual {
			case cond.Count:
				warnings = append(warnings, newWarning(habit, cond, in.Period, actual, WarningAtLimit))
			case cond.Count - 1:
				warnings = append(warnings, newWarning(habit, cond, in.Period, actual, WarningOneLeft))
			}
		}
	}

	return fines, warnings
}

func newWarning(habit HabitRules, cond FrequencyCondition, p period.Period, actual int, kind WarningKind) Warning {
	scope := periodWord(p.Kind, "本周", "本月")
	var msg string
	if kind == WarningAtLimit {
		msg = fmt.Sprintf("%s「%s」%s已达上限 %d 次，再记录将产生罚款", habit.Name, cond.TrackingValue, scope, cond.Count)
	} else {
		msg = fmt.Sprintf("%s「%s」%s已记录 %d 次，距离上限仅剩 1 次", habit.Name, cond.TrackingValue, scope, actual)
	}
	return Warning{
		HabitID:        habit.HabitID,
		HabitName:      habit.Name,
		TrackingValue:  cond.TrackingValue,
		PeriodKey:      p.Key,
		Kind:           kind,
		ConditionCount: cond.Count,
		ActualCount:    actual,
		Message:        msg,
	}
}

func fineCause(kind period.Kind, value string, threshold, actual int) string {
	return fmt.Sprintf("%s「%s」上限 %d 次，实际 %d 次", periodWord(kind, "每周", "每月"), value, threshold, actual)
}

func periodWord(kind period.Kind, weekly, monthly string) string {
	if kind == period.Monthly {
		return monthly
	}
	return weekly
}
