package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tokonext/internal/cache"
	"github.com/tokonext/internal/config"
	publichandlers "github.com/tokonext/internal/http/handlers/public"
	handlershared "github.com/tokonext/internal/http/handlers/shared"
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/provider"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// SetupRouter 初始化路由；metricsHandler 为空时不暴露 /metrics
func SetupRouter(cfg *config.Config, c *provider.Container, metricsHandler http.Handler) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	if err := handlershared.RegisterValidators(); err != nil {
		logger.Warnw("router_register_validators_failed", "error", err)
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "toko"
	}
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
	}
	idempotencyTTL := time.Duration(cfg.Security.IdempotencyTTLHours) * time.Hour
	idempotency := IdempotencyMiddleware(cache.NewIdempotencyStore(), idempotencyTTL)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", healthz)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	registerWebhookRoutes(r, publicHandler.MidtransWebhook)

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.GET("/products", publicHandler.ListProducts)
		apiV1.GET("/products/:id", publicHandler.GetProduct)
		apiV1.GET("/categories", publicHandler.ListCategories)
		apiV1.GET("/variants/:id/stock", publicHandler.GetVariantStock)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			checkoutLimit := RateLimitMiddleware(redisClient, checkoutRule, KeyByUser)

			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/add", publicHandler.AddCartItem)
			user.PUT("/cart/update", publicHandler.UpdateCartItem)
			user.DELETE("/cart/remove", publicHandler.RemoveCartItem)

			user.GET("/checkout", publicHandler.PreviewCheckout)
			user.POST("/checkout", checkoutLimit, idempotency, publicHandler.PlaceOrder)
			user.POST("/checkout/direct", publicHandler.DirectCheckout)

			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/continue-payment", checkoutLimit, idempotency, publicHandler.ContinuePayment)

			user.GET("/addresses", publicHandler.ListAddresses)
			user.POST("/addresses", publicHandler.CreateAddress)
			user.GET("/addresses/:id", publicHandler.GetAddress)
			user.PUT("/addresses/:id", publicHandler.UpdateAddress)
			user.DELETE("/addresses/:id", publicHandler.DeleteAddress)
		}
	}

	return r
}

// healthz 存活检查：数据库必须可用，Redis 仅在启用时检查
// registerWebhookRoutes 网关回调（签名鉴权），网关从少量出口 IP 突发推送，不做限流
func registerWebhookRoutes(r *gin.Engine, handler gin.HandlerFunc) {
	r.POST("/api/midtrans-webhook", handler)
	r.POST("/api/v1/midtrans-webhook", handler)
}

func healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := gin.H{"database": "ok"}
	healthy := true
	if err := pingDatabase(ctx); err != nil {
		logger.Warnw("healthz_database_unavailable", "error", err)
		status["database"] = "unavailable"
		healthy = false
	}
	if cache.Enabled() {
		status["redis"] = "ok"
		if err := cache.Ping(ctx); err != nil {
			logger.Warnw("healthz_redis_unavailable", "error", err)
			status["redis"] = "unavailable"
			healthy = false
		}
	}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

func pingDatabase(ctx context.Context) error {
	if models.DB == nil {
		return errors.New("database not initialized")
	}
	sqlDB, err := models.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
