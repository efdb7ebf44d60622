package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habitcalc"
	applog "github.com/habitlog/internal/log"
	"github.com/habitlog/internal/period"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitInvalid 当习惯配置不满足约束时返回
	ErrHabitInvalid = errors.New("invalid habit configuration")
)

// HabitService 负责 Habit 数据的增删改查
// 写入前统一校验：频率条件与年度目标只能引用已有的追踪值
type HabitService struct {
	db *gorm.DB
}

// HabitFilter 描述列表过滤条件
type HabitFilter struct {
	Kind   string
	Search string
}

// HabitInput 定义创建/更新习惯时可配置字段
type HabitInput struct {
	Name                      string
	Color                     string
	Kind                      string
	TrackingValues            []string
	FrequencyConditions       []habitcalc.FrequencyCondition
	FineAmount                int
	YearlyGoal                habitcalc.YearlyGoal
	AllowedOutOfControlMisses int
	HintText                  string
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 返回习惯集合，按创建时间正序
func (s *HabitService) List(ctx context.Context, filter HabitFilter) ([]db.Habit, error) {
	var habits []db.Habit

	query := s.db.WithContext(ctx).Model(&db.Habit{})
	if kind := strings.TrimSpace(filter.Kind); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", search)
		query = query.Where("name LIKE ? OR hint_text LIKE ?", like, like)
	}

	if err := query.Order("created_at ASC, id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(ctx context.Context, id uint) (*db.Habit, error) {
	return findHabit(s.db.WithContext(ctx), id)
}

// Create 新建习惯
func (s *HabitService) Create(ctx context.Context, input HabitInput) (*db.Habit, error) {
	normalized, err := normalizeHabitInput(input)
	if err != nil {
		return nil, err
	}

	habit := db.Habit{UserID: db.DefaultUserID}
	applyHabitInput(&habit, normalized)

	if err := s.db.WithContext(ctx).Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentHabit).Info("habit created",
		applog.FieldHabitID, habit.ID, applog.FieldOperation, applog.OpCreate)
	return &habit, nil
}

// Update 更新习惯配置。已有的年度进度不会自动重算，需要时调用 TrackingService.RebuildProgress。
func (s *HabitService) Update(ctx context.Context, id uint, input HabitInput) (*db.Habit, error) {
	normalized, err := normalizeHabitInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := findHabit(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	applyHabitInput(existing, normalized)
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentHabit).Info("habit updated",
		applog.FieldHabitID, id, applog.FieldOperation, applog.OpUpdate)
	return existing, nil
}

// Delete 删除习惯及其追踪记录、年度计数和罚款
func (s *HabitService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findHabit(tx, id); err != nil {
			return err
		}
		for _, model := range []any{&db.DailyTracking{}, &db.YearlyProgress{}, &db.YearlyMissCount{}, &db.FineDetail{}} {
			if err := tx.Where("habit_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("delete habit children: %w", err)
			}
		}
		return tx.Delete(&db.Habit{}, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return err
		}
		return fmt.Errorf("delete habit: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentHabit).Info("habit deleted",
		applog.FieldHabitID, id, applog.FieldOperation, applog.OpDelete)
	return nil
}

func findHabit(tx *gorm.DB, id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := tx.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

func applyHabitInput(habit *db.Habit, input HabitInput) {
	habit.Name = input.Name
	habit.Color = input.Color
	habit.Kind = input.Kind
	habit.TrackingValues = datatypes.JSONSlice[string](input.TrackingValues)
	habit.FrequencyConditions = datatypes.JSONSlice[habitcalc.FrequencyCondition](input.FrequencyConditions)
	habit.FineAmount = input.FineAmount
	habit.YearlyGoal = datatypes.NewJSONType(input.YearlyGoal)
	habit.AllowedOutOfControlMisses = input.AllowedOutOfControlMisses
	habit.HintText = input.HintText
}

// normalizeHabitInput 清理输入并校验不变量，文本类习惯不保留追踪值、条件与目标。
func normalizeHabitInput(input HabitInput) (HabitInput, error) {
	out := HabitInput{
		Name:                      strings.TrimSpace(input.Name),
		Color:                     strings.TrimSpace(input.Color),
		Kind:                      strings.ToLower(strings.TrimSpace(input.Kind)),
		FineAmount:                input.FineAmount,
		AllowedOutOfControlMisses: input.AllowedOutOfControlMisses,
		HintText:                  strings.TrimSpace(input.HintText),
		TrackingValues:            []string{},
		FrequencyConditions:       []habitcalc.FrequencyCondition{},
		YearlyGoal:                habitcalc.YearlyGoal{ContributingValues: []string{}},
	}

	if out.Name == "" {
		return HabitInput{}, fmt.Errorf("%w: name is required", ErrHabitInvalid)
	}
	if out.Kind == "" {
		out.Kind = db.HabitKindTracking
	}
	if out.Kind != db.HabitKindTracking && out.Kind != db.HabitKindFreeText {
		return HabitInput{}, fmt.Errorf("%w: unsupported kind %s", ErrHabitInvalid, input.Kind)
	}
	if out.FineAmount < 0 {
		return HabitInput{}, fmt.Errorf("%w: fine amount must not be negative", ErrHabitInvalid)
	}
	if out.AllowedOutOfControlMisses < 0 {
		return HabitInput{}, fmt.Errorf("%w: allowed misses must not be negative", ErrHabitInvalid)
	}

	if out.Kind == db.HabitKindFreeText {
		return out, nil
	}

	for _, raw := range input.TrackingValues {
		value := strings.TrimSpace(raw)
		if value == "" {
			return HabitInput{}, fmt.Errorf("%w: tracking values must not be empty", ErrHabitInvalid)
		}
		if slices.Contains(out.TrackingValues, value) {
			return HabitInput{}, fmt.Errorf("%w: duplicate tracking value %s", ErrHabitInvalid, value)
		}
		out.TrackingValues = append(out.TrackingValues, value)
	}
	if len(out.TrackingValues) == 0 {
		return HabitInput{}, fmt.Errorf("%w: at least one tracking value is required", ErrHabitInvalid)
	}

	if len(input.FrequencyConditions) > habitcalc.MaxFrequencyConditions {
		return HabitInput{}, fmt.Errorf("%w: at most %d frequency conditions", ErrHabitInvalid, habitcalc.MaxFrequencyConditions)
	}
	for _, cond := range input.FrequencyConditions {
		value := strings.TrimSpace(cond.TrackingValue)
		if !slices.Contains(out.TrackingValues, value) {
			return HabitInput{}, fmt.Errorf("%w: condition references unknown value %s", ErrHabitInvalid, cond.TrackingValue)
		}
		kind, ok := period.ParseKind(string(cond.Frequency))
		if !ok {
			return HabitInput{}, fmt.Errorf("%w: unsupported frequency %s", ErrHabitInvalid, cond.Frequency)
		}
		if cond.Count < 0 {
			return HabitInput{}, fmt.Errorf("%w: condition count must not be negative", ErrHabitInvalid)
		}
		if slices.ContainsFunc(out.FrequencyConditions, func(c habitcalc.FrequencyCondition) bool {
			return c.TrackingValue == value && c.Frequency == kind
		}) {
			return HabitInput{}, fmt.Errorf("%w: duplicate %s condition for %s", ErrHabitInvalid, kind, value)
		}
		out.FrequencyConditions = append(out.FrequencyConditions, habitcalc.FrequencyCondition{
			TrackingValue: value,
			Frequency:     kind,
			Count:         cond.Count,
		})
	}

	if input.YearlyGoal.Count < 0 {
		return HabitInput{}, fmt.Errorf("%w: goal count must not be negative", ErrHabitInvalid)
	}
	out.YearlyGoal.Count = input.YearlyGoal.Count
	for _, raw := range input.YearlyGoal.ContributingValues {
		value := strings.TrimSpace(raw)
		if !slices.Contains(out.TrackingValues, value) {
			return HabitInput{}, fmt.Errorf("%w: goal references unknown value %s", ErrHabitInvalid, raw)
		}
		if !slices.Contains(out.YearlyGoal.ContributingValues, value) {
			out.YearlyGoal.ContributingValues = append(out.YearlyGoal.ContributingValues, value)
		}
	}

	return out, nil
}
