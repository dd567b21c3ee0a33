package router

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tokonext/internal/cache"
	"github.com/tokonext/internal/http/response"
	"github.com/tokonext/internal/i18n"

	"github.com/gin-gonic/gin"
)

const (
	idempotencyKeyHeader      = "Idempotency-Key"
	idempotencyReplayedHeader = "Idempotent-Replayed"
	defaultIdempotencyTTL     = 24 * time.Hour
	maxIdempotencyKeyLength   = 128

	idempotencyStatePending   = "pending"
	idempotencyStateCompleted = "completed"
)

// idempotencyRecord 幂等记录，body 以 base64 保存原始响应
type idempotencyRecord struct {
	State       string `json:"state"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
}

// IdempotencyMiddleware 基于 Idempotency-Key 请求头的重复提交保护。
// 未携带请求头或未启用存储时直接放行；同一 key 的首个请求完成后，后续相同请求重放原响应。
func IdempotencyMiddleware(store cache.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(c *gin.Context) {
		clientKey := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))
		if store == nil || clientKey == "" {
			c.Next()
			return
		}
		if len(clientKey) > maxIdempotencyKeyLength {
			msg := i18n.T(i18n.ResolveLocale(c), "error.bad_request")
			response.Error(c, response.CodeBadRequest, msg)
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			msg := i18n.T(i18n.ResolveLocale(c), "error.bad_request")
			response.Error(c, response.CodeBadRequest, msg)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		log := requestLogger(c)
		key := idempotencyScope(c, clientKey)
		requestHash := hashRequestBody(body)

		placeholder, _ := json.Marshal(idempotencyRecord{State: idempotencyStatePending, RequestHash: requestHash})
		acquired, err := store.SetNX(ctx, key, string(placeholder), ttl)
		if err != nil {
			log.Warnw("idempotency_store_unavailable", "error", err)
			c.Next()
			return
		}
		if !acquired {
			respondExistingRecord(c, store, key, requestHash)
			return
		}

		capture := &responseCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		status := capture.Status()
		if status >= http.StatusInternalServerError {
			// 服务端错误允许客户端使用同一 key 重试
			if err := store.Del(ctx, key); err != nil {
				log.Warnw("idempotency_record_release_failed", "error", err)
			}
			return
		}
		record, _ := json.Marshal(idempotencyRecord{
			State:       idempotencyStateCompleted,
			RequestHash: requestHash,
			Status:      status,
			ContentType: capture.Header().Get("Content-Type"),
			Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		})
		if err := store.Set(ctx, key, string(record), ttl); err != nil {
			log.Warnw("idempotency_record_save_failed", "error", err)
		}
	}
}

func respondExistingRecord(c *gin.Context, store cache.IdempotencyStore, key, requestHash string) {
	stored, found, err := store.Get(c.Request.Context(), key)
	if err != nil || !found {
		msg := i18n.T(i18n.ResolveLocale(c), "error.idempotency_in_progress")
		response.Error(c, response.CodeConflict, msg)
		c.Abort()
		return
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		requestLogger(c).Warnw("idempotency_record_decode_failed", "error", err)
		msg := i18n.T(i18n.ResolveLocale(c), "error.internal")
		response.Error(c, response.CodeInternal, msg)
		c.Abort()
		return
	}
	if record.RequestHash != requestHash {
		msg := i18n.T(i18n.ResolveLocale(c), "error.idempotency_conflict")
		response.Error(c, response.CodeConflict, msg)
		c.Abort()
		return
	}
	if record.State != idempotencyStateCompleted {
		msg := i18n.T(i18n.ResolveLocale(c), "error.idempotency_in_progress")
		response.Error(c, response.CodeConflict, msg)
		c.Abort()
		return
	}
	payload, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		payload = nil
	}
	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Header(idempotencyReplayedHeader, "true")
	c.Data(record.Status, contentType, payload)
	c.Abort()
}

// idempotencyScope 同一 key 只在同一用户同一接口内生效
func idempotencyScope(c *gin.Context, clientKey string) string {
	userPart := "anonymous"
	if value, ok := c.Get("user_id"); ok {
		userPart = fmt.Sprintf("%v", value)
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return fmt.Sprintf("idempotency:%s:%s:%s:%s", userPart, c.Request.Method, route, clientKey)
}

func hashRequestBody(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// responseCapture 在写出响应的同时保留一份副本
type responseCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
