package service

import (
	"context"
	"testing"

	"github.com/habitlog/internal/db"
)

func TestAnalyticsServiceYear(t *testing.T) {
	gdb := setupServiceTestDB(t)
	habits := NewHabitService(gdb)
	tracking := NewTrackingService(gdb)
	journal := NewJournalService(gdb)
	ctx := context.Background()

	smoking := createSmokingHabit(t, habits)
	exercise := createExerciseHabit(t, habits)

	trackDays(t, tracking, smoking.ID, "Yes", "2025-01-06", "2025-01-08", "2025-01-10", "2025-02-03")
	trackDays(t, tracking, smoking.ID, "No", "2025-01-07")
	trackDays(t, tracking, exercise.ID, "Done", "2025-01-01", "2025-01-02")
	if _, err := tracking.SetValue(ctx, exercise.ID, mustDate(t, "2025-01-03"), nil); err != nil {
		t.Fatalf("SetValue returned error: %v", err)
	}
	if _, err := tracking.SetOutOfControlMiss(ctx, exercise.ID, mustDate(t, "2025-01-04"), true); err != nil {
		t.Fatalf("SetOutOfControlMiss returned error: %v", err)
	}

	if _, err := NewFineService(gdb).Recompute(ctx, 2025, mustDate(t, "2025-03-01")); err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	for d, mood := range map[string]int{"2025-01-01": 5, "2025-01-02": 4, "2025-01-03": 4} {
		if _, err := journal.Upsert(ctx, d, JournalInput{Mood: mood}); err != nil {
			t.Fatalf("journal Upsert returned error: %v", err)
		}
	}

	report, err := NewAnalyticsService(gdb).Year(ctx, 2025)
	if err != nil {
		t.Fatalf("Year returned error: %v", err)
	}
	if len(report.Habits) != 2 {
		t.Fatalf("expected 2 habits, got %d", len(report.Habits))
	}

	s := report.Habits[0]
	if s.ValueCounts["Yes"] != 4 || s.ValueCounts["No"] != 1 {
		t.Fatalf("unexpected smoking counts: %v", s.ValueCounts)
	}
	if s.MonthlyCounts["2025-01"]["Yes"] != 3 || s.MonthlyCounts["2025-02"]["Yes"] != 1 {
		t.Fatalf("unexpected monthly counts: %v", s.MonthlyCounts)
	}
	if s.Fines.Count != 1 || s.Fines.UnpaidAmount != 50 {
		t.Fatalf("unexpected fine totals: %+v", s.Fines)
	}

	e := report.Habits[1]
	if e.ProgressCount != 2 || e.RecountedCount != 2 || e.GoalPercent != 2 {
		t.Fatalf("unexpected exercise progress: %+v", e)
	}
	if e.MissDays != 1 || e.OutOfControlDays != 1 || e.MissesUsed != 1 || e.MissesRemaining != 0 {
		t.Fatalf("unexpected exercise misses: %+v", e)
	}

	if report.Mood.Entries != 3 || report.Mood.Average != 4.33 || report.Mood.Distribution[4] != 2 {
		t.Fatalf("unexpected mood summary: %+v", report.Mood)
	}
}

func TestAnalyticsServiceFreeTextDaysAreNotMisses(t *testing.T) {
	gdb := setupServiceTestDB(t)
	ctx := context.Background()

	notes, err := NewHabitService(gdb).Create(ctx, HabitInput{Name: "感恩", Kind: db.HabitKindFreeText})
	if err != nil {
		t.Fatalf("create free text habit: %v", err)
	}
	tracking := NewTrackingService(gdb)
	for _, d := range []string{"2025-02-01", "2025-02-02"} {
		if _, err := tracking.SetText(ctx, notes.ID, mustDate(t, d), "阳光很好"); err != nil {
			t.Fatalf("SetText returned error: %v", err)
		}
	}

	report, err := NewAnalyticsService(gdb).Year(ctx, 2025)
	if err != nil {
		t.Fatalf("Year returned error: %v", err)
	}
	if len(report.Habits) != 1 {
		t.Fatalf("expected 1 habit, got %d", len(report.Habits))
	}
	item := report.Habits[0]
	if item.TextDays != 2 || item.MissDays != 0 || item.OutOfControlDays != 0 {
		t.Fatalf("unexpected free text analytics: %+v", item)
	}
}
