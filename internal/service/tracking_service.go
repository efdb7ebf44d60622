package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habitcalc"
	applog "github.com/habitlog/internal/log"
	"github.com/habitlog/internal/period"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTrackingInvalid 追踪值不属于该习惯或习惯类型不匹配时返回
var ErrTrackingInvalid = errors.New("invalid tracking input")

// TrackingService 负责每日追踪记录，并在同一事务中维护年度进度与失控缺勤计数
type TrackingService struct {
	db *gorm.DB
}

// TrackingResult 是一次追踪变更后的完整状态
type TrackingResult struct {
	Record          db.DailyTracking
	State           habitcalc.DayState
	Year            int
	ProgressCount   int
	MissesUsed      int
	MissesRemaining int
}

// DayEntry 表示某天某个习惯的记录
type DayEntry struct {
	Habit     db.Habit
	Date      string
	State     habitcalc.DayState
	TextValue string
}

// HabitYearStatus 汇总习惯在某年的目标进度与失控缺勤额度
type HabitYearStatus struct {
	HabitID         uint
	Year            int
	GoalCount       int
	ProgressCount   int
	GoalPercent     float64
	MissesAllowed   int
	MissesUsed      int
	MissesRemaining int
}

// NewTrackingService 构造 TrackingService
func NewTrackingService(gdb *gorm.DB) *TrackingService {
	return &TrackingService{db: gdb}
}

// SetValue 将某天的选择改为 value（nil 表示清空），在单个事务中同时更新记录、年度进度和失控缺勤计数。
func (s *TrackingService) SetValue(ctx context.Context, habitID uint, date time.Time, value *string) (*TrackingResult, error) {
	day := period.FormatDate(date)
	year := date.Year()
	var result TrackingResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		habit, err := findHabit(tx, habitID)
		if err != nil {
			return err
		}
		if !habit.IsTracking() {
			return fmt.Errorf("%w: habit %d is free text", ErrTrackingInvalid, habitID)
		}
		if value != nil {
			trimmed := strings.TrimSpace(*value)
			if trimmed == "" {
				value = nil
			} else if !slices.Contains([]string(habit.TrackingValues), trimmed) {
				return fmt.Errorf("%w: unknown value %s", ErrTrackingInvalid, trimmed)
			} else {
				value = &trimmed
			}
		}

		record, exists, err := findTracking(tx, habitID, day)
		if err != nil {
			return err
		}
		progress, err := findProgress(tx, habitID, year)
		if err != nil {
			return err
		}
		misses, err := findMissCount(tx, habitID, year)
		if err != nil {
			return err
		}

		prev := habitcalc.Empty()
		if exists {
			prev = record.State()
		}

		tr := habitcalc.ApplyGoalTransition(habit.YearlyGoal.Data(), progress.ProgressCount, prev, value)
		if tr.Changed || !exists {
			record.Apply(tr.Next)
			if err := tx.Save(&record).Error; err != nil {
				return fmt.Errorf("save tracking: %w", err)
			}
		}
		if tr.Progress != progress.ProgressCount {
			progress.ProgressCount = tr.Progress
			if err := upsertProgress(tx, progress); err != nil {
				return err
			}
		}
		if tr.ClearedMiss {
			// 追踪值替换了失控缺勤，归还一次额度以保持计数与记录一致
			toggle, err := habitcalc.ToggleMiss(habitcalc.OutOfControl(), false, habit.AllowedOutOfControlMisses, misses.UsedCount)
			if err != nil {
				return err
			}
			misses.UsedCount = toggle.Used
			if err := upsertMissCount(tx, misses); err != nil {
				return err
			}
		}

		result = TrackingResult{
			Record:          record,
			State:           tr.Next,
			Year:            year,
			ProgressCount:   progress.ProgressCount,
			MissesUsed:      misses.UsedCount,
			MissesRemaining: habitcalc.RemainingMisses(habit.AllowedOutOfControlMisses, misses.UsedCount),
		}
		return nil
	})
	if err != nil {
		return nil, wrapTrackingErr("set tracking value", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentTracking).Info("tracking value set",
		applog.FieldHabitID, habitID, applog.FieldDate, day, applog.FieldOperation, applog.OpTrack,
		"state", result.State.String(), "progress", result.ProgressCount)
	return &result, nil
}

// SetOutOfControlMiss 打开或关闭某天的失控缺勤标记。已有追踪值或额度用完时拒绝且不修改任何数据。
func (s *TrackingService) SetOutOfControlMiss(ctx context.Context, habitID uint, date time.Time, on bool) (*TrackingResult, error) {
	day := period.FormatDate(date)
	year := date.Year()
	var result TrackingResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		habit, err := findHabit(tx, habitID)
		if err != nil {
			return err
		}
		if !habit.IsTracking() {
			return fmt.Errorf("%w: habit %d is free text", ErrTrackingInvalid, habitID)
		}

		record, exists, err := findTracking(tx, habitID, day)
		if err != nil {
			return err
		}
		misses, err := findMissCount(tx, habitID, year)
		if err != nil {
			return err
		}
		progress, err := findProgress(tx, habitID, year)
		if err != nil {
			return err
		}

		prev := habitcalc.Empty()
		if exists {
			prev = record.State()
		}

		toggle, err := habitcalc.ToggleMiss(prev, on, habit.AllowedOutOfControlMisses, misses.UsedCount)
		if err != nil {
			return err
		}
		if toggle.Changed {
			record.Apply(toggle.Next)
			if err := tx.Save(&record).Error; err != nil {
				return fmt.Errorf("save tracking: %w", err)
			}
			misses.UsedCount = toggle.Used
			if err := upsertMissCount(tx, misses); err != nil {
				return err
			}
		}

		result = TrackingResult{
			Record:          record,
			State:           toggle.Next,
			Year:            year,
			ProgressCount:   progress.ProgressCount,
			MissesUsed:      misses.UsedCount,
			MissesRemaining: habitcalc.RemainingMisses(habit.AllowedOutOfControlMisses, misses.UsedCount),
		}
		return nil
	})
	if err != nil {
		return nil, wrapTrackingErr("toggle out-of-control miss", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentTracking).Info("out-of-control miss toggled",
		applog.FieldHabitID, habitID, applog.FieldDate, day, applog.FieldOperation, applog.OpToggle,
		"on", on, "used", result.MissesUsed)
	return &result, nil
}

// SetText 保存文本类习惯的当日内容
func (s *TrackingService) SetText(ctx context.Context, habitID uint, date time.Time, text string) (*db.DailyTracking, error) {
	day := period.FormatDate(date)
	var record db.DailyTracking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		habit, err := findHabit(tx, habitID)
		if err != nil {
			return err
		}
		if habit.IsTracking() {
			return fmt.Errorf("%w: habit %d is not free text", ErrTrackingInvalid, habitID)
		}

		record, _, err = findTracking(tx, habitID, day)
		if err != nil {
			return err
		}
		record.TextValue = strings.TrimSpace(text)
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("save tracking text: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapTrackingErr("set tracking text", err)
	}
	return &record, nil
}

// Day 返回指定日期所有习惯的记录，没有记录的习惯状态为 NoEntry
func (s *TrackingService) Day(ctx context.Context, date time.Time) ([]DayEntry, error) {
	day := period.FormatDate(date)
	gdb := s.db.WithContext(ctx)

	var habits []db.Habit
	if err := gdb.Order("created_at ASC, id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	var records []db.DailyTracking
	if err := gdb.Where("date = ?", day).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list day tracking: %w", err)
	}
	byHabit := make(map[uint]db.DailyTracking, len(records))
	for _, r := range records {
		byHabit[r.HabitID] = r
	}

	entries := make([]DayEntry, 0, len(habits))
	for _, habit := range habits {
		entry := DayEntry{Habit: habit, Date: day, State: habitcalc.Empty()}
		if r, ok := byHabit[habit.ID]; ok {
			if habit.IsTracking() {
				entry.State = r.State()
			}
			entry.TextValue = r.TextValue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Range 返回习惯在 [start, end] 区间内的记录
func (s *TrackingService) Range(ctx context.Context, habitID uint, start, end time.Time) ([]db.DailyTracking, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end before start", ErrTrackingInvalid)
	}

	var records []db.DailyTracking
	if err := s.db.WithContext(ctx).
		Where("habit_id = ?", habitID).
		Where("date BETWEEN ? AND ?", period.FormatDate(start), period.FormatDate(end)).
		Order("date ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list tracking: %w", err)
	}
	return records, nil
}

// YearStatus 返回年度目标进度与剩余失控缺勤额度
func (s *TrackingService) YearStatus(ctx context.Context, habitID uint, year int) (*HabitYearStatus, error) {
	gdb := s.db.WithContext(ctx)
	habit, err := findHabit(gdb, habitID)
	if err != nil {
		return nil, err
	}
	progress, err := findProgress(gdb, habitID, year)
	if err != nil {
		return nil, err
	}
	misses, err := findMissCount(gdb, habitID, year)
	if err != nil {
		return nil, err
	}

	goal := habit.YearlyGoal.Data()
	return &HabitYearStatus{
		HabitID:         habitID,
		Year:            year,
		GoalCount:       goal.Count,
		ProgressCount:   progress.ProgressCount,
		GoalPercent:     habitcalc.GoalPercent(goal, progress.ProgressCount),
		MissesAllowed:   habit.AllowedOutOfControlMisses,
		MissesUsed:      misses.UsedCount,
		MissesRemaining: habitcalc.RemainingMisses(habit.AllowedOutOfControlMisses, misses.UsedCount),
	}, nil
}

// RebuildProgress 根据追踪记录重新计算年度进度并覆盖缓存值，用于修改贡献值后或修复截断造成的偏差。
func (s *TrackingService) RebuildProgress(ctx context.Context, habitID uint, year int) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		habit, err := findHabit(tx, habitID)
		if err != nil {
			return err
		}
		states, err := loadDayStates(tx, []uint{habitID}, fmt.Sprintf("%d-01-01", year), fmt.Sprintf("%d-12-31", year))
		if err != nil {
			return err
		}
		count = habitcalc.RecountProgress(habit.YearlyGoal.Data(), year, states[habitID])
		return upsertProgress(tx, db.YearlyProgress{Year: year, HabitID: habitID, ProgressCount: count})
	})
	if err != nil {
		return 0, wrapTrackingErr("rebuild progress", err)
	}
	return count, nil
}

func wrapTrackingErr(action string, err error) error {
	switch {
	case errors.Is(err, ErrHabitNotFound),
		errors.Is(err, ErrTrackingInvalid),
		errors.Is(err, habitcalc.ErrMissValueTracked),
		errors.Is(err, habitcalc.ErrMissAllowanceExhausted):
		return err
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

// findTracking 查找记录，不存在时返回带主键字段的新记录
func findTracking(tx *gorm.DB, habitID uint, day string) (db.DailyTracking, bool, error) {
	var record db.DailyTracking
	err := tx.Where("habit_id = ? AND date = ?", habitID, day).First(&record).Error
	switch {
	case err == nil:
		return record, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.DailyTracking{HabitID: habitID, Date: day}, false, nil
	default:
		return db.DailyTracking{}, false, fmt.Errorf("find tracking: %w", err)
	}
}

func findProgress(tx *gorm.DB, habitID uint, year int) (db.YearlyProgress, error) {
	var progress db.YearlyProgress
	err := tx.Where("habit_id = ? AND year = ?", habitID, year).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.YearlyProgress{HabitID: habitID, Year: year}, nil
	}
	if err != nil {
		return db.YearlyProgress{}, fmt.Errorf("find yearly progress: %w", err)
	}
	return progress, nil
}

func findMissCount(tx *gorm.DB, habitID uint, year int) (db.YearlyMissCount, error) {
	var misses db.YearlyMissCount
	err := tx.Where("habit_id = ? AND year = ?", habitID, year).First(&misses).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.YearlyMissCount{HabitID: habitID, Year: year}, nil
	}
	if err != nil {
		return db.YearlyMissCount{}, fmt.Errorf("find miss count: %w", err)
	}
	return misses, nil
}

func upsertProgress(tx *gorm.DB, progress db.YearlyProgress) error {
	progress = db.YearlyProgress{Year: progress.Year, HabitID: progress.HabitID, ProgressCount: progress.ProgressCount}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "habit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress_count", "updated_at"}),
	}).Create(&progress).Error; err != nil {
		return fmt.Errorf("upsert yearly progress: %w", err)
	}
	return nil
}

func upsertMissCount(tx *gorm.DB, misses db.YearlyMissCount) error {
	misses = db.YearlyMissCount{Year: misses.Year, HabitID: misses.HabitID, UsedCount: misses.UsedCount}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "habit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"used_count", "updated_at"}),
	}).Create(&misses).Error; err != nil {
		return fmt.Errorf("upsert miss count: %w", err)
	}
	return nil
}

// loadDayStates 读取多个习惯在 [start, end] 内的每日状态
func loadDayStates(tx *gorm.DB, habitIDs []uint, start, end string) (map[uint]habitcalc.DayStates, error) {
	result := make(map[uint]habitcalc.DayStates, len(habitIDs))
	if len(habitIDs) == 0 {
		return result, nil
	}

	var records []db.DailyTracking
	if err := tx.Where("habit_id IN ?", habitIDs).
		Where("date BETWEEN ? AND ?", start, end).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load day states: %w", err)
	}

	for _, id := range habitIDs {
		result[id] = habitcalc.DayStates{}
	}
	for _, r := range records {
		result[r.HabitID][r.Date] = r.State()
	}
	return result, nil
}
