package db

import (
	"github.com/habitlog/internal/habitcalc"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// HabitKindTracking 表示从枚举值中选择的习惯。
	HabitKindTracking = "tracking"
	// HabitKindFreeText 表示每天填写一段文字的习惯。
	HabitKindFreeText = "free_text"

	// DefaultUserID 单用户部署下的默认用户标识。
	DefaultUserID = "local"
)

// Habit 定义了习惯模型
// TrackingValues/FrequencyConditions/YearlyGoal 以 JSON 列存储
// FrequencyConditions 只能引用 TrackingValues 中的值，YearlyGoal 的贡献值同理
type Habit struct {
	gorm.Model
	UserID                    string `gorm:"size:64;index;not null;default:local"`
	Name                      string `gorm:"not null"`
	Color                     string `gorm:"size:32"`
	Kind                      string `gorm:"size:20;not null;default:tracking"`
	TrackingValues            datatypes.JSONSlice[string]
	FrequencyConditions       datatypes.JSONSlice[habitcalc.FrequencyCondition]
	FineAmount                int `gorm:"not null;default:0"`
	YearlyGoal                datatypes.JSONType[habitcalc.YearlyGoal]
	AllowedOutOfControlMisses int `gorm:"column:allowed_out_of_control_misses;not null;default:0"`
	HintText                  string
}

// IsTracking 判断是否为枚举值习惯。
func (h Habit) IsTracking() bool {
	return h.Kind != HabitKindFreeText
}

// Rules 提取计算罚款与目标所需的配置快照。
func (h Habit) Rules() habitcalc.HabitRules {
	return habitcalc.HabitRules{
		HabitID:        h.ID,
		Name:           h.Name,
		TrackingValues: []string(h.TrackingValues),
		Conditions:     []habitcalc.FrequencyCondition(h.FrequencyConditions),
		FineAmount:     h.FineAmount,
		Goal:           h.YearlyGoal.Data(),
		AllowedMisses:  h.AllowedOutOfControlMisses,
	}
}
