package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/habitlog/internal/db"
	applog "github.com/habitlog/internal/log"
	"github.com/habitlog/internal/period"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinMood = 1
	MaxMood = 5
)

var (
	// ErrJournalNotFound 当天没有日记
	ErrJournalNotFound = errors.New("journal entry not found")
	// ErrJournalInvalid 日期或心情取值不合法
	ErrJournalInvalid = errors.New("invalid journal entry")
)

var defaultMoodEmoji = map[int]string{
	1: "😞",
	2: "🙁",
	3: "😐",
	4: "🙂",
	5: "😄",
}

// JournalInput 写入日记所需字段
type JournalInput struct {
	Content   string
	Mood      int
	MoodEmoji string
}

// JournalService 管理每日日记，每天最多一篇
type JournalService struct {
	db *gorm.DB
}

// NewJournalService 构造 JournalService
func NewJournalService(gdb *gorm.DB) *JournalService {
	return &JournalService{db: gdb}
}

// Upsert 新建或覆盖某天的日记
func (s *JournalService) Upsert(ctx context.Context, date string, input JournalInput) (*db.JournalEntry, error) {
	day, err := period.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJournalInvalid, err)
	}
	if input.Mood < MinMood || input.Mood > MaxMood {
		return nil, fmt.Errorf("%w: mood must be between %d and %d", ErrJournalInvalid, MinMood, MaxMood)
	}

	emoji := strings.TrimSpace(input.MoodEmoji)
	if emoji == "" {
		emoji = defaultMoodEmoji[input.Mood]
	}

	entry := db.JournalEntry{
		Date:      period.FormatDate(day),
		Content:   input.Content,
		Mood:      input.Mood,
		MoodEmoji: emoji,
	}
	gdb := s.db.WithContext(ctx)
	if err := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "mood", "mood_emoji", "updated_at"}),
	}).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("upsert journal entry: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentJournal).Info("journal saved",
		applog.FieldDate, entry.Date, applog.FieldOperation, applog.OpUpdate)
	return s.Get(ctx, entry.Date)
}

// Get 获取某天的日记
func (s *JournalService) Get(ctx context.Context, date string) (*db.JournalEntry, error) {
	day, err := period.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJournalInvalid, err)
	}

	var entry db.JournalEntry
	if err := s.db.WithContext(ctx).Where("date = ?", period.FormatDate(day)).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJournalNotFound
		}
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	return &entry, nil
}

// List 返回区间内的日记，按日期正序；区间为空时返回全部
func (s *JournalService) List(ctx context.Context, start, end string) ([]db.JournalEntry, error) {
	query := s.db.WithContext(ctx).Model(&db.JournalEntry{})
	if start != "" {
		day, err := period.ParseDate(start)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrJournalInvalid, err)
		}
		query = query.Where("date >= ?", period.FormatDate(day))
	}
	if end != "" {
		day, err := period.ParseDate(end)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrJournalInvalid, err)
		}
		query = query.Where("date <= ?", period.FormatDate(day))
	}

	var entries []db.JournalEntry
	if err := query.Order("date ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}

// Delete 删除某天的日记
func (s *JournalService) Delete(ctx context.Context, date string) error {
	entry, err := s.Get(ctx, date)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&db.JournalEntry{}, entry.ID).Error; err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentJournal).Info("journal deleted",
		applog.FieldDate, entry.Date, applog.FieldOperation, applog.OpDelete)
	return nil
}
