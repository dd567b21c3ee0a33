package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/payment/midtrans"
	"github.com/tokonext/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testServerKey = "SB-Mid-server-test"

type fakeGateway struct {
	mu       sync.Mutex
	requests []midtrans.SnapRequest
	err      error
}

func (g *fakeGateway) CreateTransaction(_ context.Context, req midtrans.SnapRequest) (*midtrans.SnapResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	if err := midtrans.ValidateRequest(req); err != nil {
		return nil, err
	}
	g.requests = append(g.requests, req)
	token := fmt.Sprintf("snap-token-%d", len(g.requests))
	return &midtrans.SnapResponse{
		Token:       token,
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + token,
	}, nil
}

func (g *fakeGateway) last() midtrans.SnapRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type storefrontFixture struct {
	db        *gorm.DB
	gateway   *fakeGateway
	cart      *CartService
	checkout  *CheckoutService
	payments  *PaymentService
	orders    *OrderService
	addresses *AddressService
	catalog   *CatalogService
	user      *models.User
	variant   *models.ProductVariant
	address   *models.ShippingAddress
	clock     time.Time
}

func setupStorefrontFixture(t *testing.T) *storefrontFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:service_storefront_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	pricing := DefaultPricingPolicy()
	gateway := &fakeGateway{}

	f := &storefrontFixture{
		db:      db,
		gateway: gateway,
		cart:    NewCartService(cartRepo, productRepo, pricing),
		checkout: NewCheckoutService(CheckoutDeps{
			CartRepo:    cartRepo,
			ProductRepo: productRepo,
			OrderRepo:   orderRepo,
			PaymentRepo: paymentRepo,
			AddressRepo: addressRepo,
			UserRepo:    userRepo,
			Gateway:     gateway,
			Pricing:     pricing,
			BaseURL:     "http://localhost:3000/",
		}),
		payments: NewPaymentService(PaymentDeps{
			OrderRepo:   orderRepo,
			PaymentRepo: paymentRepo,
			ProductRepo: productRepo,
			ServerKey:   testServerKey,
		}),
		orders:    NewOrderService(orderRepo),
		addresses: NewAddressService(addressRepo, orderRepo),
		catalog:   NewCatalogService(productRepo, categoryRepo),
		clock:     time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	f.checkout.now = f.tick
	f.payments.now = f.tick

	f.user = &models.User{Email: "budi@example.com", Name: "Budi", Phone: "081234567890", Status: constants.UserStatusActive}
	if err := db.Create(f.user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	category := &models.Category{Name: "Kaos", Slug: "kaos"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product := &models.Product{CategoryID: category.ID, Name: "Kaos Polos", Slug: "kaos-polos", IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	f.variant = &models.ProductVariant{ProductID: product.ID, SKU: "KP-M-BLK", Name: "M / Hitam", Price: models.NewMoney(50000), Stock: 5}
	if err := db.Create(f.variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	f.address = &models.ShippingAddress{
		UserID:     f.user.ID,
		Recipient:  "Budi Santoso",
		Phone:      "081234567890",
		Address:    "Jl. Merdeka No. 1",
		Province:   "DKI Jakarta",
		City:       "Jakarta Pusat",
		PostalCode: "10110",
	}
	if err := db.Create(f.address).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	return f
}

// tick 每次调用前进 1 毫秒，保证订单号唯一
func (f *storefrontFixture) tick() time.Time {
	f.clock = f.clock.Add(time.Millisecond)
	return f.clock
}

func (f *storefrontFixture) addVariant(t *testing.T, sku string, price int64, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{ProductID: f.variant.ProductID, SKU: sku, Name: sku, Price: models.NewMoney(price), Stock: stock}
	if err := f.db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func (f *storefrontFixture) placeOrder(t *testing.T, quantity int) *PaymentSession {
	t.Helper()
	if _, err := f.cart.AddItem(f.user.ID, f.variant.ID, quantity); err != nil {
		t.Fatalf("add cart item failed: %v", err)
	}
	session, err := f.checkout.PlaceOrder(context.Background(), f.user.ID, PlaceOrderInput{
		ShippingAddressID: f.address.ID,
		PaymentMethod:     constants.PaymentMethodMidtrans,
	})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	return session
}

func (f *storefrontFixture) stock(t *testing.T, variantID uint) int {
	t.Helper()
	var variant models.ProductVariant
	if err := f.db.First(&variant, variantID).Error; err != nil {
		t.Fatalf("load variant failed: %v", err)
	}
	return variant.Stock
}

func (f *storefrontFixture) loadOrder(t *testing.T, orderID uint) *models.Order {
	t.Helper()
	order, err := f.orders.GetOrder(f.user.ID, orderID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	return order
}

func notificationBody(orderID, transactionStatus, fraudStatus, grossAmount, serverKey string) []byte {
	signature := midtrans.SignatureKey(orderID, "200", grossAmount, serverKey)
	return []byte(fmt.Sprintf(`{"order_id":%q,"status_code":"200","gross_amount":%q,"transaction_status":%q,"fraud_status":%q,"payment_type":"bank_transfer","signature_key":%q}`,
		orderID, grossAmount, transactionStatus, fraudStatus, signature))
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error %v, got %v", target, err)
	}
}
