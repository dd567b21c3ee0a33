package i18n

import (
	"fmt"
	"strings"

	"github.com/tokonext/internal/constants"

	"github.com/gin-gonic/gin"
)

const localeQueryKey = "lang"

// ResolveLocale 解析请求语言：?lang= 优先，其次 Accept-Language，最后回退到默认语言
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return constants.LocaleEnUS
	}
	if locale := normalizeLocale(c.Query(localeQueryKey)); locale != "" {
		return locale
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if locale := normalizeLocale(tag); locale != "" {
			return locale
		}
	}
	return constants.LocaleEnUS
}

// T 翻译消息键，缺失时依次回退到默认语言与键本身
func T(locale, key string) string {
	if table, ok := catalog[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[constants.LocaleEnUS][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译带格式参数的消息
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}
	switch {
	case value == "id" || strings.HasPrefix(value, "id-"):
		return constants.LocaleIDID
	case value == "en" || strings.HasPrefix(value, "en-"):
		return constants.LocaleEnUS
	}
	return ""
}
