package shared

import (
	"github.com/tokonext/internal/http/response"
	"github.com/tokonext/internal/i18n"
	"github.com/tokonext/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 与路由的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	kv := make([]interface{}, 0, 4)
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			kv = append(kv, "request_id", id)
		}
	}
	if route := c.FullPath(); route != "" {
		kv = append(kv, "route", route)
	}
	return logger.SW(kv...)
}

// RespondError 返回国际化错误响应；err 非空时记录日志，服务端错误记为 error，其余记为 warn
func RespondError(c *gin.Context, code int, key string, err error) {
	appErr := response.WrapError(code, i18n.T(i18n.ResolveLocale(c), key), err)
	if err != nil {
		log := RequestLog(c)
		if appErr.ServerSide() {
			log.Errorw("handler_error", "code", appErr.Code, "key", key, "error", err)
		} else {
			log.Warnw("handler_rejected", "code", appErr.Code, "key", key, "error", err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}
