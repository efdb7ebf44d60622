package period

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat 是所有按日记录使用的日期格式。
const DateFormat = "2006-01-02"

// Kind 表示统计周期的粒度。
type Kind string

const (
	// Weekly 以 ISO 周（周一开始）为单位。
	Weekly Kind = "weekly"
	// Monthly 以自然月为单位。
	Monthly Kind = "monthly"
)

// ParseKind 解析周期类型，大小写不敏感。
func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case Weekly:
		return Weekly, true
	case Monthly:
		return Monthly, true
	default:
		return "", false
	}
}

// Period 描述一个闭区间周期 [Start, End]，Key 在同一粒度内稳定唯一。
type Period struct {
	Kind  Kind
	Key   string
	Label string
	Start time.Time
	End   time.Time
}

// Contains 判断某天是否落在周期内。
func (p Period) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Dates 返回周期内的全部日期字符串。
func (p Period) Dates() []string {
	return DatesInPeriod(p.Start, p.End)
}

// Day 将任意时间截断为 UTC 零点，按日历日比较。
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 yyyy-MM-dd。
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate 输出 yyyy-MM-dd。
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// WeeksInYear 返回覆盖该自然年的全部 ISO 周，从包含 1 月 1 日的周到包含 12 月 31 日的周。
// 首尾两周可能跨入相邻年份，Key 使用 ISO 年份。
func WeeksInYear(year int) []Period {
	first := startOfWeek(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	last := startOfWeek(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))

	weeks := make([]Period, 0, 54)
	for start := first; !start.After(last); start = start.AddDate(0, 0, 7) {
		weeks = append(weeks, weekOf(start))
	}
	return weeks
}

// MonthsInYear 返回该年的 12 个自然月。
func MonthsInYear(year int) []Period {
	months := make([]Period, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, monthOf(time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)))
	}
	return months
}

// ForKind 按粒度返回一年内的周期列表。
func ForKind(kind Kind, year int) []Period {
	if kind == Monthly {
		return MonthsInYear(year)
	}
	return WeeksInYear(year)
}

// Containing 返回包含指定日期的周期。
func Containing(kind Kind, day time.Time) Period {
	d := Day(day)
	if kind == Monthly {
		return monthOf(time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC))
	}
	return weekOf(startOfWeek(d))
}

// DatesInPeriod 按顺序枚举 [start, end] 内的每一天，end 早于 start 时返回空切片。
func DatesInPeriod(start, end time.Time) []string {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return []string{}
	}

	dates := make([]string, 0, int(e.Sub(s).Hours()/24)+1)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		dates = append(dates, FormatDate(d))
	}
	return dates
}

func startOfWeek(day time.Time) time.Time {
	d := Day(day)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func weekOf(monday time.Time) Period {
	isoYear, isoWeek := monday.ISOWeek()
	end := monday.AddDate(0, 0, 6)
	return Period{
		Kind:  Weekly,
		Key:   fmt.Sprintf("%d-W%02d", isoYear, isoWeek),
		Label: fmt.Sprintf("%d年第%d周 (%s ~ %s)", isoYear, isoWeek, monday.Format("01-02"), end.Format("01-02")),
		Start: monday,
		End:   end,
	}
}

func monthOf(first time.Time) Period {
	return Period{
		Kind:  Monthly,
		Key:   fmt.Sprintf("%d-%02d", first.Year(), int(first.Month())),
		Label: fmt.Sprintf("%d年%d月", first.Year(), int(first.Month())),
		Start: first,
		End:   first.AddDate(0, 1, -1),
	}
}
