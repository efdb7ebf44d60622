package log

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// GinMiddleware 为每个请求注入 Logger 并在结束时输出访问日志，4xx 记为 warn，5xx 记为 error。
func GinMiddleware(logger *Logger) gin.HandlerFunc {
	httpLogger := logger.WithComponent(ComponentHTTP)

	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(IntoContext(c.Request.Context(), httpLogger))

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		args := []any{
			FieldMethod, c.Request.Method,
			FieldPath, c.FullPath(),
			FieldStatusCode, status,
			FieldDuration, time.Since(start).Milliseconds(),
			FieldClientIP, c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, FieldError, c.Errors.String())
		}

		httpLogger.Log(c.Request.Context(), level, "http request completed", args...)
	}
}
