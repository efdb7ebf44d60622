package db

import (
	"time"

	"github.com/habitlog/internal/habitcalc"
	"gorm.io/datatypes"
)

// DailyTracking 记录某习惯某天的追踪结果
// Date + HabitID 采用唯一索引；TrackedValues 最多一个值，与 IsOutOfControlMiss 互斥
// 文本类习惯只使用 TextValue
type DailyTracking struct {
	ID                 uint   `gorm:"primaryKey"`
	Date               string `gorm:"size:10;not null;uniqueIndex:idx_daily_tracking_unique"`
	HabitID            uint   `gorm:"not null;index;uniqueIndex:idx_daily_tracking_unique"`
	TrackedValues      datatypes.JSONSlice[string]
	TextValue          string `gorm:"type:text"`
	IsOutOfControlMiss bool   `gorm:"not null;default:false"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// State 还原为标签联合体。只有文本内容的记录视为 NoEntry，而不是缺勤。
func (r DailyTracking) State() habitcalc.DayState {
	if r.IsTextOnly() {
		return habitcalc.Empty()
	}
	return habitcalc.FromRecord([]string(r.TrackedValues), r.IsOutOfControlMiss)
}

// IsTextOnly 判断记录是否只保存了文本类习惯的内容。
func (r DailyTracking) IsTextOnly() bool {
	return r.TextValue != "" && !r.IsOutOfControlMiss && len(r.TrackedValues) == 0
}

// Apply 将状态写回存储字段，保证值与缺勤标记不会同时存在。
func (r *DailyTracking) Apply(state habitcalc.DayState) {
	r.TrackedValues = datatypes.JSONSlice[string](state.TrackedValues())
	r.IsOutOfControlMiss = state.IsOutOfControlMiss()
}

// YearlyProgress 缓存某习惯某年的年度目标进度
type YearlyProgress struct {
	ID            uint `gorm:"primaryKey"`
	Year          int  `gorm:"not null;uniqueIndex:idx_yearly_progress_unique"`
	HabitID       uint `gorm:"not null;index;uniqueIndex:idx_yearly_progress_unique"`
	ProgressCount int  `gorm:"not null;default:0"`
	UpdatedAt     time.Time
}

// YearlyMissCount 记录某习惯某年已使用的失控缺勤次数
type YearlyMissCount struct {
	ID        uint `gorm:"primaryKey"`
	Year      int  `gorm:"not null;uniqueIndex:idx_yearly_miss_unique"`
	HabitID   uint `gorm:"not null;index;uniqueIndex:idx_yearly_miss_unique"`
	UsedCount int  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName 与存储约定保持一致
func (YearlyMissCount) TableName() string {
	return "yearly_miss_counts"
}
