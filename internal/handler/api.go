package handler

import (
	"time"

	"github.com/habitlog/internal/period"
	"github.com/habitlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	habits    *service.HabitService
	tracking  *service.TrackingService
	fines     *service.FineService
	journal   *service.JournalService
	analytics *service.AnalyticsService
	settings  *service.SettingsService
	location  *time.Location
	now       func() time.Time
}

// NewAPI constructs a handler set with shared services.
// loc 决定"今天"的日历日，nil 时使用 time.Local。
func NewAPI(db *gorm.DB, loc *time.Location) *API {
	if loc == nil {
		loc = time.Local
	}
	registerValidators()

	return &API{
		db:        db,
		habits:    service.NewHabitService(db),
		tracking:  service.NewTrackingService(db),
		fines:     service.NewFineService(db),
		journal:   service.NewJournalService(db),
		analytics: service.NewAnalyticsService(db),
		settings:  service.NewSettingsService(db),
		location:  loc,
		now:       time.Now,
	}
}

// WithClock 替换时钟，测试中固定"今天"。
func (a *API) WithClock(now func() time.Time) *API {
	if now != nil {
		a.now = now
	}
	return a
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

func (a *API) today() time.Time {
	return period.Day(a.now().In(a.location))
}
