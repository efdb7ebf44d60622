package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/habitlog/internal/db"
)

func intPtr(v int) *int { return &v }

func TestSettingsServiceDefaults(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewSettingsService(gdb)

	settings, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if settings.YearlyWeekOffsAllowed != 0 || settings.YearlyNothingsAllowed != 0 || settings.HasPassword() {
		t.Fatalf("expected zero settings, got %+v", settings)
	}

	ok, err := svc.VerifyPassword(context.Background(), "anything")
	if err != nil || !ok {
		t.Fatalf("expected verification to pass without password, got %v err=%v", ok, err)
	}
}

func TestSettingsServiceUpdateMergesAndHashesPassword(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewSettingsService(gdb)
	ctx := context.Background()

	if _, err := svc.Update(ctx, SettingsInput{YearlyWeekOffsAllowed: intPtr(4), AppPassword: strPtr("secret")}); err != nil {
		t.Fatalf("update settings failed: %v", err)
	}
	settings, err := svc.Update(ctx, SettingsInput{YearlyNothingsAllowed: intPtr(2)})
	if err != nil {
		t.Fatalf("update settings failed: %v", err)
	}
	if settings.YearlyWeekOffsAllowed != 4 || settings.YearlyNothingsAllowed != 2 || !settings.HasPassword() {
		t.Fatalf("expected merged settings, got %+v", settings)
	}

	var record db.AppSetting
	if err := gdb.Where("key = ?", db.SettingKeyAppSettings).First(&record).Error; err != nil {
		t.Fatalf("load stored settings: %v", err)
	}
	if strings.Contains(record.Value, "secret") {
		t.Fatalf("password must be stored hashed, got %s", record.Value)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(record.Value), &raw); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	if raw["yearly_week_offs_allowed"] != float64(4) {
		t.Fatalf("unexpected stored JSON: %v", raw)
	}

	if ok, _ := svc.VerifyPassword(ctx, "secret"); !ok {
		t.Fatal("expected correct password to verify")
	}
	if ok, _ := svc.VerifyPassword(ctx, "wrong"); ok {
		t.Fatal("expected wrong password to fail")
	}

	settings, err = svc.Update(ctx, SettingsInput{ClearPassword: true})
	if err != nil || settings.HasPassword() {
		t.Fatalf("expected password to be cleared, got %+v err=%v", settings, err)
	}
}

func TestSettingsServiceRejectsNegative(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewSettingsService(gdb)

	if _, err := svc.Update(context.Background(), SettingsInput{YearlyWeekOffsAllowed: intPtr(-1)}); !errors.Is(err, ErrSettingsInvalid) {
		t.Fatalf("expected ErrSettingsInvalid, got %v", err)
	}
}
