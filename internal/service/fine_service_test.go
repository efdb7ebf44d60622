package service

import (
	"context"
	"errors"
	"testing"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habitcalc"
	"github.com/habitlog/internal/period"
	"gorm.io/datatypes"
)

func trackDays(t *testing.T, tracking *TrackingService, habitID uint, value string, days ...string) {
	t.Helper()
	for _, d := range days {
		if _, err := tracking.SetValue(context.Background(), habitID, mustDate(t, d), strPtr(value)); err != nil {
			t.Fatalf("SetValue %s returned error: %v", d, err)
		}
	}
}

func TestFineServiceRecomputeSmokingScenario(t *testing.T) {
	gdb := setupServiceTestDB(t)
	habit := createSmokingHabit(t, NewHabitService(gdb))
	tracking := NewTrackingService(gdb)
	fines := NewFineService(gdb)
	ctx := context.Background()

	trackDays(t, tracking, habit.ID, "Yes", "2025-01-06", "2025-01-08", "2025-01-10")
	trackDays(t, tracking, habit.ID, "No", "2025-01-07")

	result, err := fines.Recompute(ctx, 2025, mustDate(t, "2025-03-01"))
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if result.Created != 1 || len(result.Fines) != 1 {
		t.Fatalf("expected exactly one fine, got %+v", result)
	}

	fine := result.Fines[0]
	if fine.PeriodKey != "2025-W02" || fine.ActualCount != 3 || fine.ConditionCount != 2 || fine.FineAmount != 50 {
		t.Fatalf("unexpected fine: %+v", fine)
	}
	if fine.Status != string(habitcalc.FineUnpaid) || fine.Year != 2025 || fine.PeriodStart != "2025-01-06" || fine.PeriodEnd != "2025-01-12" {
		t.Fatalf("unexpected fine metadata: %+v", fine)
	}

	// 同样的数据重复计算结果不变
	again, err := fines.Recompute(ctx, 2025, mustDate(t, "2025-03-01"))
	if err != nil {
		t.Fatalf("second Recompute returned error: %v", err)
	}
	if again.Created != 0 || again.Updated != 1 || again.Removed != 0 {
		t.Fatalf("expected idempotent recompute, got %+v", again)
	}
	if again.Fines[0].ID != fine.ID {
		t.Fatalf("expected fine ID to be preserved, got %s vs %s", again.Fines[0].ID, fine.ID)
	}

	var count int64
	gdb.Model(&db.FineDetail{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 stored fine, got %d", count)
	}
}

func TestFineServicePreservesPaidStatus(t *testing.T) {
	gdb := setupServiceTestDB(t)
	habit := createSmokingHabit(t, NewHabitService(gdb))
	tracking := NewTrackingService(gdb)
	fines := NewFineService(gdb)
	ctx := context.Background()
	today := mustDate(t, "2025-03-01")

	trackDays(t, tracking, habit.ID, "Yes", "2025-01-06", "2025-01-08", "2025-01-10")
	result, err := fines.Recompute(ctx, 2025, today)
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	id := result.Fines[0].ID

	if _, err := fines.SetStatus(ctx, id, "paid"); err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}

	// 再多一次超限，实际次数更新但支付状态保留
	trackDays(t, tracking, habit.ID, "Yes", "2025-01-11")
	result, err = fines.Recompute(ctx, 2025, today)
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if len(result.Fines) != 1 || result.Fines[0].Status != "paid" || result.Fines[0].ActualCount != 4 {
		t.Fatalf("expected paid fine with actual 4, got %+v", result.Fines)
	}

	// 回到阈值以内，已支付的罚款不会被删除
	trackDays(t, tracking, habit.ID, "No", "2025-01-08", "2025-01-10")
	result, err = fines.Recompute(ctx, 2025, today)
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if result.Removed != 0 {
		t.Fatalf("paid fine must not be removed, got %+v", result)
	}
	stored, err := fines.List(ctx, FineFilter{Year: 2025, Status: "paid"})
	if err != nil || len(stored) != 1 || stored[0].ID != id {
		t.Fatalf("expected paid fine to remain, got %+v err=%v", stored, err)
	}
}

func TestFineServiceRemovesStaleUnpaidFine(t *testing.T) {
	gdb := setupServiceTestDB(t)
	habit := createSmokingHabit(t, NewHabitService(gdb))
	tracking := NewTrackingService(gdb)
	fines := NewFineService(gdb)
	ctx := context.Background()
	today := mustDate(t, "2025-03-01")

	trackDays(t, tracking, habit.ID, "Yes", "2025-01-06", "2025-01-08", "2025-01-10")
	if _, err := fines.Recompute(ctx, 2025, today); err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}

	trackDays(t, tracking, habit.ID, "No", "2025-01-10")
	result, err := fines.Recompute(ctx, 2025, today)
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if result.Removed != 1 || len(result.Fines) != 0 {
		t.Fatalf("expected stale unpaid fine to be removed, got %+v", result)
	}
}

func TestFineServiceZeroThreshold(t *testing.T) {
	gdb := setupServiceTestDB(t)
	habit, err := NewHabitService(gdb).Create(context.Background(), HabitInput{
		Name:           "Sugar",
		TrackingValues: []string{"Ate", "Clean"},
		FrequencyConditions: []habitcalc.FrequencyCondition{
			{TrackingValue: "Ate", Frequency: "monthly", Count: 0},
		},
		FineAmount: 10,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	tracking := NewTrackingService(gdb)
	fines := NewFineService(gdb)

	trackDays(t, tracking, habit.ID, "Ate", "2025-02-14")
	result, err := fines.Recompute(context.Background(), 2025, mustDate(t, "2025-02-20"))
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if len(result.Fines) != 1 || result.Fines[0].PeriodKey != "2025-02" || result.Fines[0].ActualCount != 1 {
		t.Fatalf("expected one monthly fine, got %+v", result.Fines)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("zero threshold never warns, got %+v", result.Warnings)
	}
}

func TestFineServiceSkipsFuturePeriods(t *testing.T) {
	gdb := setupServiceTestDB(t)
	createSmokingHabit(t, NewHabitService(gdb))
	fines := NewFineService(gdb)

	result, err := fines.Recompute(context.Background(), 2030, mustDate(t, "2025-03-01"))
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if result.Periods != 0 || len(result.Fines) != 0 {
		t.Fatalf("expected nothing to evaluate, got %+v", result)
	}
}

func TestFineServiceWarnings(t *testing.T) {
	gdb := setupServiceTestDB(t)
	habit := createSmokingHabit(t, NewHabitService(gdb))
	tracking := NewTrackingService(gdb)
	fines := NewFineService(gdb)
	ctx := context.Background()

	trackDays(t, tracking, habit.ID, "Yes", "2025-01-06")
	warnings, err := fines.Warnings(ctx, mustDate(t, "2025-01-08"))
	if err != nil {
		t.Fatalf("Warnings returned error: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Kind != habitcalc.WarningOneLeft {
		t.Fatalf("expected one_left warning, got %+v", warnings)
	}

	trackDays(t, tracking, habit.ID, "Yes", "2025-01-07")
	warnings, err = fines.Warnings(ctx, mustDate(t, "2025-01-08"))
	if err != nil {
		t.Fatalf("Warnings returned error: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Kind != habitcalc.WarningAtLimit || warnings[0].PeriodKey != "2025-W02" {
		t.Fatalf("expected at_limit warning, got %+v", warnings)
	}
}

func TestFineServiceSetStatusErrors(t *testing.T) {
	gdb := setupServiceTestDB(t)
	fines := NewFineService(gdb)
	ctx := context.Background()

	if _, err := fines.SetStatus(ctx, "missing", "paid"); !errors.Is(err, ErrFineNotFound) {
		t.Fatalf("expected ErrFineNotFound, got %v", err)
	}
	if _, err := fines.SetStatus(ctx, "missing", "waived"); !errors.Is(err, ErrInvalidFineStatus) {
		t.Fatalf("expected ErrInvalidFineStatus, got %v", err)
	}
	if _, err := fines.List(ctx, FineFilter{Status: "waived"}); !errors.Is(err, ErrInvalidFineStatus) {
		t.Fatalf("expected ErrInvalidFineStatus from List, got %v", err)
	}
}

func TestFineServiceRecomputeCollapsesRepeatedConditions(t *testing.T) {
	gdb := setupServiceTestDB(t)
	ctx := context.Background()

	// 绕过校验直接写入，模拟历史数据中同一粒度的重复条件
	habit := db.Habit{
		Name:           "Smoking",
		Kind:           db.HabitKindTracking,
		TrackingValues: datatypes.JSONSlice[string]{"Yes", "No"},
		FrequencyConditions: datatypes.JSONSlice[habitcalc.FrequencyCondition]{
			{TrackingValue: "Yes", Frequency: period.Weekly, Count: 1},
			{TrackingValue: "Yes", Frequency: period.Weekly, Count: 2},
		},
		FineAmount: 50,
	}
	if err := gdb.Create(&habit).Error; err != nil {
		t.Fatalf("create habit: %v", err)
	}

	trackDays(t, NewTrackingService(gdb), habit.ID, "Yes", "2025-01-06", "2025-01-08", "2025-01-10")

	fines := NewFineService(gdb)
	result, err := fines.Recompute(ctx, 2025, mustDate(t, "2025-03-01"))
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if len(result.Fines) != 1 || result.Fines[0].ConditionCount != 1 || result.Fines[0].ActualCount != 3 {
		t.Fatalf("expected one fine at the lowest threshold, got %+v", result.Fines)
	}

	listed, err := fines.List(ctx, FineFilter{Year: 2025})
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected 1 stored fine, got %+v err=%v", listed, err)
	}
}

func TestFineServiceKeepsPaidAmount(t *testing.T) {
	gdb := setupServiceTestDB(t)
	habits := NewHabitService(gdb)
	habit := createSmokingHabit(t, habits)
	fines := NewFineService(gdb)
	ctx := context.Background()
	today := mustDate(t, "2025-03-01")

	trackDays(t, NewTrackingService(gdb), habit.ID, "Yes", "2025-01-06", "2025-01-08", "2025-01-10", "2025-01-13", "2025-01-14", "2025-01-15")
	result, err := fines.Recompute(ctx, 2025, today)
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if len(result.Fines) != 2 {
		t.Fatalf("expected 2 fines, got %+v", result.Fines)
	}
	paidID := result.Fines[0].ID
	if _, err := fines.SetStatus(ctx, paidID, "paid"); err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}

	if _, err := habits.Update(ctx, habit.ID, HabitInput{
		Name:           "Smoking",
		TrackingValues: []string{"Yes", "No"},
		FrequencyConditions: []habitcalc.FrequencyCondition{
			{TrackingValue: "Yes", Frequency: period.Weekly, Count: 2},
		},
		FineAmount: 80,
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if _, err := fines.Recompute(ctx, 2025, today); err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}

	stored, err := fines.List(ctx, FineFilter{Year: 2025})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	for _, f := range stored {
		want := 80
		if f.ID == paidID {
			want = 50
		}
		if f.FineAmount != want {
			t.Fatalf("fine %s (%s): expected amount %d, got %d", f.PeriodKey, f.Status, want, f.FineAmount)
		}
	}
}
