package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/habitlog/internal/db"
	applog "github.com/habitlog/internal/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSettingsInvalid 设置值不合法
var ErrSettingsInvalid = errors.New("invalid settings")

// AppSettings 应用级设置，整体以 JSON 存在 app_settings 键下。
type AppSettings struct {
	YearlyWeekOffsAllowed int    `json:"yearly_week_offs_allowed"`
	YearlyNothingsAllowed int    `json:"yearly_nothings_allowed"`
	AppPasswordHash       string `json:"app_password,omitempty"`
}

// HasPassword 是否设置了应用密码
func (s AppSettings) HasPassword() bool {
	return s.AppPasswordHash != ""
}

// SettingsInput 用于部分更新，nil 字段保持原值
type SettingsInput struct {
	YearlyWeekOffsAllowed *int
	YearlyNothingsAllowed *int
	AppPassword           *string
	ClearPassword         bool
}

// SettingsService 读写应用设置
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService 构造 SettingsService
func NewSettingsService(gdb *gorm.DB) *SettingsService {
	return &SettingsService{db: gdb}
}

// Get 读取设置，不存在时返回零值
func (s *SettingsService) Get(ctx context.Context) (AppSettings, error) {
	return loadSettings(s.db.WithContext(ctx))
}

// Update 合并输入并保存。密码以 bcrypt 哈希保存，空字符串等同于清除。
func (s *SettingsService) Update(ctx context.Context, input SettingsInput) (AppSettings, error) {
	var saved AppSettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadSettings(tx)
		if err != nil {
			return err
		}

		if input.YearlyWeekOffsAllowed != nil {
			if *input.YearlyWeekOffsAllowed < 0 {
				return fmt.Errorf("%w: yearly week offs must not be negative", ErrSettingsInvalid)
			}
			current.YearlyWeekOffsAllowed = *input.YearlyWeekOffsAllowed
		}
		if input.YearlyNothingsAllowed != nil {
			if *input.YearlyNothingsAllowed < 0 {
				return fmt.Errorf("%w: yearly nothings must not be negative", ErrSettingsInvalid)
			}
			current.YearlyNothingsAllowed = *input.YearlyNothingsAllowed
		}

		switch {
		case input.ClearPassword:
			current.AppPasswordHash = ""
		case input.AppPassword != nil:
			password := strings.TrimSpace(*input.AppPassword)
			if password == "" {
				current.AppPasswordHash = ""
				break
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash app password: %w", err)
			}
			current.AppPasswordHash = string(hashed)
		}

		if err := saveSettings(tx, current); err != nil {
			return err
		}
		saved = current
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSettingsInvalid) {
			return AppSettings{}, err
		}
		return AppSettings{}, fmt.Errorf("update settings: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentSettings).Info("settings updated",
		applog.FieldOperation, applog.OpUpdate, "has_password", saved.HasPassword())
	return saved, nil
}

// VerifyPassword 校验应用密码；未设置密码时任何输入都通过
func (s *SettingsService) VerifyPassword(ctx context.Context, password string) (bool, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	if !settings.HasPassword() {
		return true, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(settings.AppPasswordHash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

func loadSettings(tx *gorm.DB) (AppSettings, error) {
	var settings AppSettings

	var record db.AppSetting
	if err := tx.Where("key = ?", db.SettingKeyAppSettings).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return settings, nil
		}
		return settings, fmt.Errorf("load settings: %w", err)
	}

	if strings.TrimSpace(record.Value) == "" {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(record.Value), &settings); err != nil {
		return AppSettings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

func saveSettings(tx *gorm.DB, settings AppSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	record := db.AppSetting{Key: db.SettingKeyAppSettings, Value: string(payload)}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
