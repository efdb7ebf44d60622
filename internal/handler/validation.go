package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/habitlog/internal/period"
)

var registerOnce sync.Once

// registerValidators 在 gin 的校验引擎上注册自定义规则：
// datestr 要求 yyyy-MM-dd，frequency 要求 weekly/monthly。
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("datestr", func(fl validator.FieldLevel) bool {
			_, err := period.ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
			_, ok := period.ParseKind(fl.Field().String())
			return ok
		})
	})
}
