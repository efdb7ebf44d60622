package db

import "time"

// JournalEntry 每日日记，Content 为 Markdown，Mood 取值 1~5
type JournalEntry struct {
	ID        uint   `gorm:"primaryKey"`
	Date      string `gorm:"size:10;not null;uniqueIndex"`
	Content   string `gorm:"type:text"`
	Mood      int    `gorm:"not null;default:0"`
	MoodEmoji string `gorm:"size:16"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
