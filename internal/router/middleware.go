package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tokonext/internal/cache"
	"github.com/tokonext/internal/config"
	"github.com/tokonext/internal/http/response"
	"github.com/tokonext/internal/i18n"
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/repository"
	"github.com/tokonext/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

// 默认允许的请求头，包含幂等键与语言协商
var defaultCORSHeaders = []string{
	"Content-Type",
	"Authorization",
	"Accept-Language",
	idempotencyKeyHeader,
	requestIDHeader,
}

// 前端需要读取的响应头
var exposedCORSHeaders = []string{requestIDHeader, idempotencyReplayedHeader, "Retry-After"}

// CORSMiddleware 跨域中间件，预检请求直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = defaultCORSHeaders
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")
	exposeHeader := strings.Join(exposedCORSHeaders, ", ")

	return func(c *gin.Context) {
		header := c.Writer.Header()
		if allowedOrigin := resolveAllowedOrigin(c.GetHeader("Origin"), allowedOrigins, cfg.AllowCredentials); allowedOrigin != "" {
			header.Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Headers", headersHeader)
		header.Set("Access-Control-Allow-Methods", methodsHeader)
		header.Set("Access-Control-Expose-Headers", exposeHeader)
		if cfg.MaxAge > 0 {
			header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// 探针与指标抓取不写访问日志
var quietPaths = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

// LoggerMiddleware 结构化访问日志，5xx 记为 error，4xx 记为 warn
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if _, quiet := quietPaths[c.Request.URL.Path]; quiet {
			return
		}
		status := c.Writer.Status()
		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		switch {
		case len(c.Errors) > 0 || status >= http.StatusInternalServerError:
			log.Errorw("http_request", "errors", c.Errors.String())
		case status >= http.StatusBadRequest:
			log.Warnw("http_request")
		default:
			log.Infow("http_request")
		}
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// UserJWTAuthMiddleware 校验 Bearer Token，并按鉴权快照（缓存优先，回源数据库）检查账号状态与 Token 版本
func UserJWTAuthMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		if userRepo == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			abortUnauthorized(c, "error.auth_header_missing")
			return
		}
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}

		claims, err := service.ParseUserJWT(secretKey, strings.TrimSpace(token))
		if err != nil || claims == nil || claims.UserID == 0 {
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		state, err := loadUserAuthState(c, userRepo, claims.UserID)
		if err != nil || state == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		if !state.Active() {
			abortUnauthorized(c, "error.user_disabled")
			return
		}
		var issuedAt time.Time
		if claims.IssuedAt != nil {
			issuedAt = claims.IssuedAt.Time
		}
		if state.Revoked(claims.TokenVersion, issuedAt) {
			abortUnauthorized(c, "error.token_revoked")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}

// loadUserAuthState 缓存命中直接返回；未命中或缓存异常时查库并回填
func loadUserAuthState(c *gin.Context, userRepo repository.UserRepository, userID uint) (*cache.UserAuthState, error) {
	ctx := c.Request.Context()
	cached, hit, err := cache.GetUserAuthState(ctx, userID)
	if err != nil {
		requestLogger(c).Warnw("user_auth_state_cache_get_failed", "user_id", userID, "error", err)
	} else if hit && cached != nil {
		return cached, nil
	}

	user, err := userRepo.GetByID(userID)
	if err != nil || user == nil {
		return nil, err
	}
	state := cache.BuildUserAuthState(user)
	if err := cache.SetUserAuthState(ctx, state); err != nil {
		requestLogger(c).Warnw("user_auth_state_cache_set_failed", "user_id", userID, "error", err)
	}
	return state, nil
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}

func requestLogger(c *gin.Context) *zap.SugaredLogger {
	if requestID := getRequestID(c); requestID != "" {
		return logger.SW("request_id", requestID)
	}
	return logger.S()
}
