package provider

import (
	"strings"
	"time"

	"github.com/tokonext/internal/cache"
	"github.com/tokonext/internal/config"
	"github.com/tokonext/internal/events"
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/payment/midtrans"
	"github.com/tokonext/internal/queue"
	"github.com/tokonext/internal/repository"
	"github.com/tokonext/internal/service"
	"github.com/tokonext/internal/telemetry"
)

// Container 依赖注入容器
type Container struct {
	Config         *config.Config
	QueueClient    *queue.Client
	MidtransClient *midtrans.Client
	Publisher      events.Publisher
	Instruments    *telemetry.Instruments

	// Repositories
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	ProductRepo  repository.ProductRepository
	CartRepo     repository.CartRepository
	AddressRepo  repository.AddressRepository
	OrderRepo    repository.OrderRepository
	PaymentRepo  repository.PaymentRepository

	// Services
	UserAuthService *service.UserAuthService
	CatalogService  *service.CatalogService
	CartService     *service.CartService
	AddressService  *service.AddressService
	CheckoutService *service.CheckoutService
	OrderService    *service.OrderService
	PaymentService  *service.PaymentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		MidtransClient: midtrans.NewClient(midtrans.Config{
			ServerKey:    cfg.Midtrans.ServerKey,
			ClientKey:    cfg.Midtrans.ClientKey,
			IsProduction: cfg.Midtrans.IsProduction,
			BaseURL:      cfg.Midtrans.SnapBaseURL,
			Timeout:      time.Duration(cfg.Midtrans.TimeoutSeconds) * time.Second,
		}),
		Publisher:   events.NewPublisher(cfg.Kafka),
		Instruments: telemetry.DefaultInstruments(),
	}
	if strings.TrimSpace(cfg.Midtrans.ServerKey) == "" {
		logger.Warnw("provider_midtrans_server_key_missing")
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
}

// paymentGateway 未配置服务端密钥时返回 nil，下单直接报网关未配置
func (c *Container) paymentGateway() service.PaymentGateway {
	if c.MidtransClient == nil || strings.TrimSpace(c.MidtransClient.ServerKey()) == "" {
		return nil
	}
	return c.MidtransClient
}

func (c *Container) initServices() {
	pricing := service.NewPricingPolicy(c.Config.Checkout)
	c.UserAuthService = service.NewUserAuthService(c.Config.UserJWT, c.UserRepo)
	c.CatalogService = service.NewCatalogService(c.ProductRepo, c.CategoryRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, pricing)
	c.AddressService = service.NewAddressService(c.AddressRepo, c.OrderRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo)
	c.CheckoutService = service.NewCheckoutService(service.CheckoutDeps{
		CartRepo:    c.CartRepo,
		ProductRepo: c.ProductRepo,
		OrderRepo:   c.OrderRepo,
		PaymentRepo: c.PaymentRepo,
		AddressRepo: c.AddressRepo,
		UserRepo:    c.UserRepo,
		Gateway:     c.paymentGateway(),
		QueueClient: c.QueueClient,
		Publisher:   c.Publisher,
		Instruments: c.Instruments,
		Pricing:     pricing,
		BaseURL:     c.Config.App.BaseURL,
		ExpireHours: c.Config.Checkout.PaymentExpireHours,
	})
	c.PaymentService = service.NewPaymentService(service.PaymentDeps{
		OrderRepo:       c.OrderRepo,
		PaymentRepo:     c.PaymentRepo,
		ProductRepo:     c.ProductRepo,
		QueueClient:     c.QueueClient,
		Publisher:       c.Publisher,
		Instruments:     c.Instruments,
		ServerKey:       c.Config.Midtrans.ServerKey,
		TestOrderPrefix: c.Config.Midtrans.TestOrderPrefix,
	})
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logger.Warnw("provider_close_publisher_failed", "error", err)
		}
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
