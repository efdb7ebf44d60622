package service

import (
	"context"
	"fmt"
	"math"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habitcalc"
	"github.com/habitlog/internal/period"
	"gorm.io/gorm"
)

// HabitYearAnalytics 单个习惯的年度统计
type HabitYearAnalytics struct {
	HabitID          uint
	Name             string
	Kind             string
	ValueCounts      map[string]int
	MonthlyCounts    map[string]map[string]int
	MissDays         int
	OutOfControlDays int
	TextDays         int
	GoalCount        int
	ProgressCount    int
	RecountedCount   int
	GoalPercent      float64
	MissesAllowed    int
	MissesUsed       int
	MissesRemaining  int
	Fines            FineTotals
}

// MoodSummary 日记心情统计
type MoodSummary struct {
	Entries      int
	Average      float64
	Distribution map[int]int
}

// YearAnalytics 年度汇总
type YearAnalytics struct {
	Year   int
	Habits []HabitYearAnalytics
	Mood   MoodSummary
}

// AnalyticsService 从原始记录重新聚合年度统计，不写入任何数据
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService 构造 AnalyticsService
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// Year 返回某年的全部统计
func (s *AnalyticsService) Year(ctx context.Context, year int) (*YearAnalytics, error) {
	gdb := s.db.WithContext(ctx)
	start, end := fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year)

	var habits []db.Habit
	if err := gdb.Order("created_at ASC, id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	states, err := loadDayStates(gdb, habitIDs(habits), start, end)
	if err != nil {
		return nil, err
	}

	var textDays []struct {
		HabitID uint
		Total   int
	}
	if err := gdb.Model(&db.DailyTracking{}).
		Select("habit_id, COUNT(*) AS total").
		Where("date BETWEEN ? AND ? AND text_value <> ''", start, end).
		Group("habit_id").
		Scan(&textDays).Error; err != nil {
		return nil, fmt.Errorf("count text days: %w", err)
	}
	textByHabit := make(map[uint]int, len(textDays))
	for _, row := range textDays {
		textByHabit[row.HabitID] = row.Total
	}

	var progress []db.YearlyProgress
	if err := gdb.Where("year = ?", year).Find(&progress).Error; err != nil {
		return nil, fmt.Errorf("load yearly progress: %w", err)
	}
	progressByHabit := make(map[uint]int, len(progress))
	for _, p := range progress {
		progressByHabit[p.HabitID] = p.ProgressCount
	}

	var misses []db.YearlyMissCount
	if err := gdb.Where("year = ?", year).Find(&misses).Error; err != nil {
		return nil, fmt.Errorf("load miss counts: %w", err)
	}
	missesByHabit := make(map[uint]int, len(misses))
	for _, m := range misses {
		missesByHabit[m.HabitID] = m.UsedCount
	}

	fineTotals, err := NewFineService(s.db).Totals(ctx, year)
	if err != nil {
		return nil, err
	}

	months := period.MonthsInYear(year)
	result := &YearAnalytics{Year: year, Habits: make([]HabitYearAnalytics, 0, len(habits))}
	for _, habit := range habits {
		days := states[habit.ID]
		goal := habit.YearlyGoal.Data()
		item := HabitYearAnalytics{
			HabitID:         habit.ID,
			Name:            habit.Name,
			Kind:            habit.Kind,
			ValueCounts:     make(map[string]int),
			MonthlyCounts:   make(map[string]map[string]int, len(months)),
			TextDays:        textByHabit[habit.ID],
			GoalCount:       goal.Count,
			ProgressCount:   progressByHabit[habit.ID],
			RecountedCount:  habitcalc.RecountProgress(goal, year, days),
			MissesAllowed:   habit.AllowedOutOfControlMisses,
			MissesUsed:      missesByHabit[habit.ID],
			Fines:           fineTotals[habit.ID],
		}
		item.GoalPercent = habitcalc.GoalPercent(goal, item.ProgressCount)
		item.MissesRemaining = habitcalc.RemainingMisses(item.MissesAllowed, item.MissesUsed)

		if habit.IsTracking() {
			for _, state := range days {
				switch state.Kind() {
				case habitcalc.Miss:
					item.MissDays++
				case habitcalc.OutOfControlMiss:
					item.OutOfControlDays++
				}
			}
		}

		for _, month := range months {
			counts := habitcalc.CountValues(habit.TrackingValues, month, days)
			item.MonthlyCounts[month.Key] = counts
			for value, n := range counts {
				item.ValueCounts[value] += n
			}
		}
		result.Habits = append(result.Habits, item)
	}

	mood, err := s.moodSummary(gdb, start, end)
	if err != nil {
		return nil, err
	}
	result.Mood = mood
	return result, nil
}

func (s *AnalyticsService) moodSummary(gdb *gorm.DB, start, end string) (MoodSummary, error) {
	summary := MoodSummary{Distribution: make(map[int]int, MaxMood)}
	for m := MinMood; m <= MaxMood; m++ {
		summary.Distribution[m] = 0
	}

	var moods []int
	if err := gdb.Model(&db.JournalEntry{}).
		Where("date BETWEEN ? AND ?", start, end).
		Pluck("mood", &moods).Error; err != nil {
		return summary, fmt.Errorf("load moods: %w", err)
	}

	total := 0
	for _, m := range moods {
		if m < MinMood || m > MaxMood {
			continue
		}
		summary.Distribution[m]++
		summary.Entries++
		total += m
	}
	if summary.Entries > 0 {
		summary.Average = math.Round(float64(total)/float64(summary.Entries)*100) / 100
	}
	return summary, nil
}
