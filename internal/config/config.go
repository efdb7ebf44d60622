package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr         string
	Port               string
	DatabasePath       string
	GinMode            string
	LogLevel           string
	LogFormat          string
	Timezone           string
	WriteRatePerMinute int
	WriteRateBurst     int
}

// Load 从环境变量读取应用配置，并为缺失项提供默认值。
// 当前目录存在 .env 时先加载它，已存在的环境变量不会被覆盖。
func Load() AppConfig {
	loadDotEnv()

	port := getEnv("PORT", "8080")

	return AppConfig{
		ListenAddr:         getEnv("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		Port:               port,
		DatabasePath:       getEnv("DATABASE_PATH", "data/habitlog.db"),
		GinMode:            getEnv("GIN_MODE", "release"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		Timezone:           getEnv("TIMEZONE", "Local"),
		WriteRatePerMinute: getEnvInt("WRITE_RATE_PER_MINUTE", 120),
		WriteRateBurst:     getEnvInt("WRITE_RATE_BURST", 30),
	}
}

// Validate 检查配置是否合法。
func (c AppConfig) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %q", c.Port))
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("invalid timezone %q", c.Timezone))
	}
	if c.WriteRatePerMinute <= 0 {
		problems = append(problems, "write rate per minute must be positive")
	}
	if c.WriteRateBurst <= 0 {
		problems = append(problems, "write rate burst must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// Location 返回用于判定“今天”的时区。
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func loadDotEnv() {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
