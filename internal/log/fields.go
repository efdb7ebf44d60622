package log

// 结构化日志字段名
const (
	FieldComponent  = "component"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldClientIP   = "client_ip"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldHabitID    = "habit_id"
	FieldDate       = "date"
	FieldYear       = "year"
	FieldPeriodKey  = "period_key"
	FieldFineID     = "fine_id"
	FieldCount      = "count"
)

// 组件名
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentHabit    = "habit"
	ComponentTracking = "tracking"
	ComponentFine     = "fine"
	ComponentJournal  = "journal"
	ComponentSettings = "settings"
	ComponentCLI      = "cli"
)

// 操作名
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpRecompute = "recompute"
	OpTrack     = "track"
	OpToggle    = "toggle_miss"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
