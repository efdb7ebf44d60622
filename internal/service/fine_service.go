package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habitcalc"
	applog "github.com/habitlog/internal/log"
	"github.com/habitlog/internal/period"
	"gorm.io/gorm"
)

var (
	// ErrFineNotFound 指定罚款不存在
	ErrFineNotFound = errors.New("fine not found")
	// ErrInvalidFineStatus 支付状态只能是 paid/unpaid
	ErrInvalidFineStatus = errors.New("invalid fine status")
)

// FineService 根据追踪记录重新推导罚款；支付状态是唯一由用户维护的字段
type FineService struct {
	db *gorm.DB
}

// FineFilter 描述罚款列表过滤条件
type FineFilter struct {
	Year    int
	HabitID uint
	Status  string
}

// RecomputeResult 汇总一次重新计算的结果
type RecomputeResult struct {
	Year     int
	Periods  int
	Created  int
	Updated  int
	Removed  int
	Fines    []db.FineDetail
	Warnings []habitcalc.Warning
}

// FineTotals 汇总罚款金额
type FineTotals struct {
	Count        int
	PaidAmount   int
	UnpaidAmount int
}

// NewFineService 构造 FineService
func NewFineService(gdb *gorm.DB) *FineService {
	return &FineService{db: gdb}
}

// Recompute 对该年所有已开始的周/月周期重新判定罚款。
// 同一 (周期, 习惯, 追踪值) 的已有罚款保留 ID、状态与创建时间；不再超限的未支付罚款被删除，已支付的保留。
// 对相同的追踪数据重复执行结果不变。
func (s *FineService) Recompute(ctx context.Context, year int, today time.Time) (*RecomputeResult, error) {
	result := &RecomputeResult{Year: year}
	today = period.Day(today)

	var periods []period.Period
	for _, p := range append(period.WeeksInYear(year), period.MonthsInYear(year)...) {
		if !p.Start.After(today) {
			periods = append(periods, p)
		}
	}
	if len(periods) == 0 {
		return result, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		habits, err := listRuleHabits(tx)
		if err != nil {
			return err
		}

		start, end, keys := spanOf(periods)
		states, err := loadDayStates(tx, habitIDs(habits), start, end)
		if err != nil {
			return err
		}

		var existing []db.FineDetail
		if err := tx.Where("period_key IN ?", keys).Find(&existing).Error; err != nil {
			return fmt.Errorf("load existing fines: %w", err)
		}
		existingByKey := make(map[habitcalc.FineKey]db.FineDetail, len(existing))
		inherited := make(map[habitcalc.FineKey]habitcalc.ExistingFine, len(existing))
		for _, f := range existing {
			key := fineKeyOf(f)
			existingByKey[key] = f
			inherited[key] = habitcalc.ExistingFine{ID: f.ID, Status: habitcalc.FineStatus(f.Status), CreatedAt: f.CreatedAt}
		}

		rules := make([]habitcalc.HabitRules, 0, len(habits))
		for _, h := range habits {
			rules = append(rules, h.Rules())
		}

		seen := make(map[habitcalc.FineKey]bool)
		for _, p := range periods {
			drafts, warnings := habitcalc.EvaluateFines(habitcalc.FineInput{
				Period:   p,
				Habits:   rules,
				Days:     states,
				Existing: inherited,
				Today:    today,
			})
			result.Warnings = append(result.Warnings, warnings...)

			for _, draft := range drafts {
				seen[draft.Key] = true
				fine, created, err := saveFineDraft(tx, draft, existingByKey)
				if err != nil {
					return err
				}
				if created {
					result.Created++
				} else {
					result.Updated++
				}
				result.Fines = append(result.Fines, fine)
			}
		}

		for key, f := range existingByKey {
			if seen[key] || f.Status == string(habitcalc.FinePaid) {
				continue
			}
			if err := tx.Delete(&db.FineDetail{}, "id = ?", f.ID).Error; err != nil {
				return fmt.Errorf("delete stale fine: %w", err)
			}
			result.Removed++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recompute fines: %w", err)
	}

	result.Periods = len(periods)
	applog.FromContext(ctx).WithComponent(applog.ComponentFine).Info("fines recomputed",
		applog.FieldYear, year, applog.FieldOperation, applog.OpRecompute,
		"periods", result.Periods, "created", result.Created, "updated", result.Updated, "removed", result.Removed)
	return result, nil
}

// Warnings 返回本周与本月的临界提醒
func (s *FineService) Warnings(ctx context.Context, today time.Time) ([]habitcalc.Warning, error) {
	gdb := s.db.WithContext(ctx)
	habits, err := listRuleHabits(gdb)
	if err != nil {
		return nil, err
	}

	current := []period.Period{period.Containing(period.Weekly, today), period.Containing(period.Monthly, today)}
	start, end, _ := spanOf(current)
	states, err := loadDayStates(gdb, habitIDs(habits), start, end)
	if err != nil {
		return nil, err
	}

	rules := make([]habitcalc.HabitRules, 0, len(habits))
	for _, h := range habits {
		rules = append(rules, h.Rules())
	}

	warnings := []habitcalc.Warning{}
	for _, p := range current {
		_, w := habitcalc.EvaluateFines(habitcalc.FineInput{Period: p, Habits: rules, Days: states, Today: today})
		warnings = append(warnings, w...)
	}
	return warnings, nil
}

// List 返回罚款列表，按周期倒序
func (s *FineService) List(ctx context.Context, filter FineFilter) ([]db.FineDetail, error) {
	query := s.db.WithContext(ctx).Model(&db.FineDetail{})
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.HabitID > 0 {
		query = query.Where("habit_id = ?", filter.HabitID)
	}
	if filter.Status != "" {
		status, ok := habitcalc.ParseFineStatus(filter.Status)
		if !ok {
			return nil, ErrInvalidFineStatus
		}
		query = query.Where("status = ?", string(status))
	}

	var fines []db.FineDetail
	if err := query.Order("period_start DESC, habit_id ASC, tracking_value ASC").Find(&fines).Error; err != nil {
		return nil, fmt.Errorf("list fines: %w", err)
	}
	return fines, nil
}

// SetStatus 修改支付状态
func (s *FineService) SetStatus(ctx context.Context, id string, status string) (*db.FineDetail, error) {
	parsed, ok := habitcalc.ParseFineStatus(status)
	if !ok {
		return nil, ErrInvalidFineStatus
	}

	var fine db.FineDetail
	gdb := s.db.WithContext(ctx)
	if err := gdb.First(&fine, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFineNotFound
		}
		return nil, fmt.Errorf("get fine: %w", err)
	}

	if err := gdb.Model(&fine).Update("status", string(parsed)).Error; err != nil {
		return nil, fmt.Errorf("update fine status: %w", err)
	}
	fine.Status = string(parsed)

	applog.FromContext(ctx).WithComponent(applog.ComponentFine).Info("fine status updated",
		applog.FieldFineID, id, "status", parsed)
	return &fine, nil
}

// Totals 汇总某年各习惯的罚款金额
func (s *FineService) Totals(ctx context.Context, year int) (map[uint]FineTotals, error) {
	fines, err := s.List(ctx, FineFilter{Year: year})
	if err != nil {
		return nil, err
	}

	totals := make(map[uint]FineTotals)
	for _, f := range fines {
		t := totals[f.HabitID]
		t.Count++
		if f.Status == string(habitcalc.FinePaid) {
			t.PaidAmount += f.FineAmount
		} else {
			t.UnpaidAmount += f.FineAmount
		}
		totals[f.HabitID] = t
	}
	return totals, nil
}

func saveFineDraft(tx *gorm.DB, draft habitcalc.FineDraft, existing map[habitcalc.FineKey]db.FineDetail) (db.FineDetail, bool, error) {
	fine, found := existing[draft.Key]
	if !found {
		fine = db.FineDetail{
			ID:            uuid.NewString(),
			PeriodKey:     draft.Key.PeriodKey,
			HabitID:       draft.Key.HabitID,
			TrackingValue: draft.Key.TrackingValue,
			Status:        string(draft.Status),
		}
	}

	fine.Period = string(draft.Period.Kind)
	fine.Year = yearOfKey(draft.Key.PeriodKey, draft.Period)
	fine.PeriodStart = period.FormatDate(draft.Period.Start)
	fine.PeriodEnd = period.FormatDate(draft.Period.End)
	fine.ConditionCount = draft.ConditionCount
	fine.ActualCount = draft.ActualCount
	if fine.Status != string(habitcalc.FinePaid) {
		fine.FineAmount = draft.FineAmount
	}
	fine.Cause = draft.Cause

	write := tx.Save
	if !found {
		write = tx.Create
	}
	if err := write(&fine).Error; err != nil {
		return db.FineDetail{}, false, fmt.Errorf("save fine: %w", err)
	}
	return fine, !found, nil
}

func listRuleHabits(tx *gorm.DB) ([]db.Habit, error) {
	var habits []db.Habit
	if err := tx.Where("kind = ?", db.HabitKindTracking).Order("created_at ASC, id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

func habitIDs(habits []db.Habit) []uint {
	ids := make([]uint, 0, len(habits))
	for _, h := range habits {
		ids = append(ids, h.ID)
	}
	return ids
}

func spanOf(periods []period.Period) (string, string, []string) {
	start, end := periods[0].Start, periods[0].End
	keys := make([]string, 0, len(periods))
	for _, p := range periods {
		if p.Start.Before(start) {
			start = p.Start
		}
		if p.End.After(end) {
			end = p.End
		}
		keys = append(keys, p.Key)
	}
	return period.FormatDate(start), period.FormatDate(end), keys
}

func fineKeyOf(f db.FineDetail) habitcalc.FineKey {
	return habitcalc.FineKey{PeriodKey: f.PeriodKey, HabitID: f.HabitID, TrackingValue: f.TrackingValue}
}

// yearOfKey 取周期 Key 的年份部分（ISO 周年份或自然年）
func yearOfKey(key string, p period.Period) int {
	if len(key) >= 4 {
		if y, err := strconv.Atoi(key[:4]); err == nil {
			return y
		}
	}
	return p.Start.Year()
}
