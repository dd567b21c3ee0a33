package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	c.Request.RemoteAddr = "1.2.3.4:5678"

	if key := KeyByUser(c); key != "1.2.3.4" {
		t.Fatalf("anonymous key want 1.2.3.4 got %s", key)
	}
	c.Set("user_id", uint(42))
	if key := KeyByUser(c); key != "user:42" {
		t.Fatalf("user key want user:42 got %s", key)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

type fakeWindowCounter struct {
	counts map[string]int64
	err    error
}

func (f *fakeWindowCounter) Hit(_ context.Context, key string, _ int) (int64, int64, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.counts[key]++
	return f.counts[key], 42, nil
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	counter := &fakeWindowCounter{counts: map[string]int64{}}
	r := gin.New()
	r.Use(rateLimit(counter, RateLimitRule{Prefix: "toko:rate:checkout", WindowSeconds: 60, MaxRequests: 2}, KeyByIP))
	r.POST("/checkout", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(last, req)
		if i < 2 && last.Code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i, last.Code)
		}
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request want 429 got %d", last.Code)
	}
	if last.Header().Get("Retry-After") != "42" {
		t.Fatalf("retry-after want 42 got %q", last.Header().Get("Retry-After"))
	}
	if counter.counts["toko:rate:checkout:10.0.0.1"] != 3 {
		t.Fatalf("unexpected counter keys %v", counter.counts)
	}
}

func TestRateLimitFailsOpenOnCounterError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(rateLimit(&fakeWindowCounter{err: errors.New("redis down")}, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.POST("/midtrans-webhook", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/midtrans-webhook", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("counter failure must not block, got %d", w.Code)
		}
	}
}
