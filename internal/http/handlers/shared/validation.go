package shared

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// RegisterValidators 在 gin 的校验引擎上注册自定义规则
func RegisterValidators() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return engine.RegisterValidation("phone", validatePhone)
}

// validatePhone 允许空格与连字符分隔，去除后为 8-15 位数字，可带 + 前缀
func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

// IsValidPhone 校验手机号格式
func IsValidPhone(raw string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	return phonePattern.MatchString(cleaned)
}
