package db

import "time"

// FineDetail 是由追踪记录推导出的罚款
// PeriodKey + HabitID + TrackingValue 唯一；重新计算时保留 ID、Status 与 CreatedAt
type FineDetail struct {
	ID             string `gorm:"primaryKey;size:36"`
	PeriodKey      string `gorm:"size:10;not null;uniqueIndex:idx_fine_tuple"`
	HabitID        uint   `gorm:"not null;index;uniqueIndex:idx_fine_tuple"`
	TrackingValue  string `gorm:"not null;uniqueIndex:idx_fine_tuple"`
	Period         string `gorm:"size:10;not null"`
	Year           int    `gorm:"not null;index"`
	PeriodStart    string `gorm:"size:10"`
	PeriodEnd      string `gorm:"size:10"`
	ConditionCount int
	ActualCount    int
	FineAmount     int
	Status         string `gorm:"size:10;not null;default:unpaid;index"`
	Cause          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
