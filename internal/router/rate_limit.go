package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tokonext/internal/http/response"
	"github.com/tokonext/internal/i18n"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

// windowCounter 固定窗口计数器，返回窗口内累计次数与剩余秒数
type windowCounter interface {
	Hit(ctx context.Context, key string, windowSeconds int) (count int64, ttlSeconds int64, err error)
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

type redisWindowCounter struct {
	client *redis.Client
}

func (r redisWindowCounter) Hit(ctx context.Context, key string, windowSeconds int) (int64, int64, error) {
	values, err := rateLimitScript.Run(ctx, r.client, []string{key}, windowSeconds).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply: %v", values)
	}
	return values[0], values[1], nil
}

// RateLimitMiddleware Redis 频率限制中间件，未启用 Redis 时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if client == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimit(redisWindowCounter{client: client}, rule, keyFunc)
}

func rateLimit(counter windowCounter, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	msgKey := strings.TrimSpace(rule.MessageKey)
	if msgKey == "" {
		msgKey = "error.rate_limited"
	}
	return func(c *gin.Context) {
		if counter == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = rule.Prefix + ":" + key
		}

		count, ttlSeconds, err := counter.Hit(c.Request.Context(), key, rule.WindowSeconds)
		if err != nil {
			// 计数器不可用时放行，支付回调不能因限流组件故障而丢失
			requestLogger(c).Warnw("rate_limit_unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		wait := time.Duration(ttlSeconds) * time.Second
		if wait < time.Second {
			wait = time.Duration(max(rule.WindowSeconds, 1)) * time.Second
		}
		waitSeconds := int(wait / time.Second)
		c.Header("Retry-After", strconv.Itoa(waitSeconds))
		response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), msgKey, waitSeconds))
		c.Abort()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUser 已登录接口按用户限流，未登录时回退到 IP
func KeyByUser(c *gin.Context) string {
	if value, ok := c.Get("user_id"); ok {
		if uid, ok := value.(uint); ok && uid > 0 {
			return fmt.Sprintf("user:%d", uid)
		}
	}
	return c.ClientIP()
}
