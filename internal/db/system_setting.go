package db

import "gorm.io/gorm"

// AppSetting 存储应用级键值对，Value 可以是 JSON。
type AppSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (AppSetting) TableName() string {
	return "app_settings"
}

// SettingKeyAppSettings 对应整体 JSON 配置块。
const SettingKeyAppSettings = "app_settings"
