package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestPricingPolicyComputeRoundsTax(t *testing.T) {
	pricing := DefaultPricingPolicy()
	totals := pricing.Compute(decimal.NewFromInt(100000))
	if totals.Subtotal.Int64() != 100000 || totals.TaxAmount.Int64() != 11000 || totals.ShippingCost.Int64() != 14000 || totals.TotalAmount.Int64() != 125000 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	// 12345 * 0.11 = 1357.95
	totals = pricing.Compute(decimal.NewFromInt(12345))
	if totals.TaxAmount.Int64() != 1358 {
		t.Fatalf("expected tax 1358, got %s", totals.TaxAmount.String())
	}
	if totals.TotalAmount.Int64() != 12345+14000+1358 {
		t.Fatalf("unexpected total %s", totals.TotalAmount.String())
	}
}

func TestCheckoutPreviewScenario(t *testing.T) {
	f := setupStorefrontFixture(t)
	if _, err := f.cart.AddItem(f.user.ID, f.variant.ID, 2); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	preview, err := f.checkout.Preview(f.user.ID, nil)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Totals.Subtotal.Int64() != 100000 || preview.Totals.TaxAmount.Int64() != 11000 || preview.Totals.TotalAmount.Int64() != 125000 {
		t.Fatalf("unexpected preview totals: %+v", preview.Totals)
	}
	if len(preview.Addresses) != 1 || preview.Addresses[0].ID != f.address.ID {
		t.Fatalf("preview should include saved addresses: %+v", preview.Addresses)
	}
	if f.stock(t, f.variant.ID) != 5 {
		t.Fatalf("preview must not touch stock")
	}

	if _, err := f.checkout.Preview(f.user.ID, []uint{9999}); !errors.Is(err, ErrNoItemsSelected) {
		t.Fatalf("expected ErrNoItemsSelected, got %v", err)
	}
}

func TestCheckoutPreviewEmptyCart(t *testing.T) {
	f := setupStorefrontFixture(t)
	if _, err := f.checkout.Preview(f.user.ID, nil); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestPlaceOrderScenario(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 2)

	if session.Token != "snap-token-1" || !strings.Contains(session.RedirectURL, "snap-token-1") {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !strings.HasPrefix(session.OrderNo, constants.OrderNoPrefix) {
		t.Fatalf("unexpected order number %s", session.OrderNo)
	}

	order := f.loadOrder(t, session.OrderID)
	if order.TotalAmount.Int64() != 125000 || order.Subtotal.Int64() != 100000 || order.TaxAmount.Int64() != 11000 || order.ShippingCost.Int64() != 14000 {
		t.Fatalf("unexpected order amounts: %+v", order)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected order pending, got %s", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 || order.Items[0].Price.Int64() != 50000 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if order.Payment == nil || order.Payment.Status != constants.PaymentStatusPending || order.Payment.SnapToken != "snap-token-1" {
		t.Fatalf("unexpected payment: %+v", order.Payment)
	}
	if order.Payment.Amount.Int64() != 125000 || order.Payment.GatewayOrderID != order.OrderNo || order.Payment.ExpiryAt == nil {
		t.Fatalf("unexpected payment details: %+v", order.Payment)
	}
	if f.stock(t, f.variant.ID) != 5 {
		t.Fatalf("checkout must not decrement stock")
	}

	cart, err := f.cart.GetCart(f.user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("checked-out lines should be removed, got %d", len(cart.Items))
	}

	req := f.gateway.last()
	if req.TransactionDetails.OrderID != order.OrderNo || req.TransactionDetails.GrossAmount != 125000 {
		t.Fatalf("unexpected gateway transaction details: %+v", req.TransactionDetails)
	}
	if len(req.ItemDetails) != 3 || req.ItemDetails[1].ID != constants.MidtransShippingItemID || req.ItemDetails[2].ID != constants.MidtransTaxItemID {
		t.Fatalf("unexpected gateway items: %+v", req.ItemDetails)
	}
	if req.CustomerDetails.FirstName != "Budi" || req.CustomerDetails.ShippingAddress == nil || req.CustomerDetails.ShippingAddress.CountryCode != "IDN" {
		t.Fatalf("unexpected customer details: %+v", req.CustomerDetails)
	}
	if req.Callbacks.Finish != "http://localhost:3000/account/orders/"+itoa(order.ID) {
		t.Fatalf("unexpected finish callback %s", req.Callbacks.Finish)
	}
}

func TestPlaceOrderSelectedSubsetKeepsOtherLines(t *testing.T) {
	f := setupStorefrontFixture(t)
	other := f.addVariant(t, "KP-L-WHT", 30000, 3)
	if _, err := f.cart.AddItem(f.user.ID, f.variant.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	view, err := f.cart.AddItem(f.user.ID, other.ID, 1)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	var selected uint
	for _, line := range view.Items {
		if line.VariantID == f.variant.ID {
			selected = line.ID
		}
	}

	session, err := f.checkout.PlaceOrder(context.Background(), f.user.ID, PlaceOrderInput{
		ShippingAddressID: f.address.ID,
		PaymentMethod:     "bank_transfer",
		SelectedItems:     []uint{selected},
	})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	order := f.loadOrder(t, session.OrderID)
	if len(order.Items) != 1 || order.Items[0].VariantID != f.variant.ID {
		t.Fatalf("only the selected line should be ordered: %+v", order.Items)
	}
	cart, _ := f.cart.GetCart(f.user.ID)
	if len(cart.Items) != 1 || cart.Items[0].VariantID != other.ID {
		t.Fatalf("unselected line should stay in cart: %+v", cart.Items)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	f := setupStorefrontFixture(t)
	if _, err := f.cart.AddItem(f.user.ID, f.variant.ID, 6); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	_, err := f.checkout.PlaceOrder(context.Background(), f.user.ID, PlaceOrderInput{
		ShippingAddressID: f.address.ID,
		PaymentMethod:     constants.PaymentMethodMidtrans,
	})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.ProductName != "Kaos Polos" || stockErr.Available != 5 {
		t.Fatalf("unexpected stock error: %+v", stockErr)
	}
	assertErrorIs(t, err, ErrInsufficientStock)

	var count int64
	f.db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("no order should be created, got %d", count)
	}
	cart, _ := f.cart.GetCart(f.user.ID)
	if len(cart.Items) != 1 {
		t.Fatalf("cart should be untouched")
	}
	if len(f.gateway.requests) != 0 {
		t.Fatalf("gateway must not be called")
	}
}

// cartConsumingProductRepo 在锁定规格前删除用户购物车，模拟另一标签页已先完成结算
type cartConsumingProductRepo struct {
	repository.ProductRepository
	tx     *gorm.DB
	userID uint
}

func (r *cartConsumingProductRepo) WithTx(tx *gorm.DB) repository.ProductRepository {
	return &cartConsumingProductRepo{ProductRepository: r.ProductRepository.WithTx(tx), tx: tx, userID: r.userID}
}

func (r *cartConsumingProductRepo) LockVariantsByIDs(ids []uint) ([]models.ProductVariant, error) {
	if r.tx != nil {
		if err := r.tx.Where("user_id = ?", r.userID).Delete(&models.CartItem{}).Error; err != nil {
			return nil, err
		}
	}
	return r.ProductRepository.LockVariantsByIDs(ids)
}

func TestPlaceOrderRollsBackWhenCartConsumedConcurrently(t *testing.T) {
	f := setupStorefrontFixture(t)
	if _, err := f.cart.AddItem(f.user.ID, f.variant.ID, 2); err != nil {
		t.Fatalf("add cart item failed: %v", err)
	}
	f.checkout.productRepo = &cartConsumingProductRepo{ProductRepository: f.checkout.productRepo, userID: f.user.ID}

	session, err := f.checkout.PlaceOrder(context.Background(), f.user.ID, PlaceOrderInput{
		ShippingAddressID: f.address.ID,
		PaymentMethod:     constants.PaymentMethodMidtrans,
	})
	assertErrorIs(t, err, ErrEmptyCart)
	if session != nil {
		t.Fatalf("no session expected, got %+v", session)
	}

	var orders, payments int64
	f.db.Model(&models.Order{}).Count(&orders)
	f.db.Model(&models.Payment{}).Count(&payments)
	if orders != 0 || payments != 0 {
		t.Fatalf("consumed cart must not produce an order: orders=%d payments=%d", orders, payments)
	}
	if len(f.gateway.requests) != 0 {
		t.Fatalf("gateway must not be called, got %d requests", len(f.gateway.requests))
	}
	if f.stock(t, f.variant.ID) != 5 {
		t.Fatalf("stock must be untouched")
	}
}

func TestPlaceOrderSameCartTwiceCreatesOneOrder(t *testing.T) {
	f := setupStorefrontFixture(t)
	f.placeOrder(t, 1)

	_, err := f.checkout.PlaceOrder(context.Background(), f.user.ID, PlaceOrderInput{
		ShippingAddressID: f.address.ID,
		PaymentMethod:     constants.PaymentMethodMidtrans,
	})
	assertErrorIs(t, err, ErrEmptyCart)

	var orders int64
	f.db.Model(&models.Order{}).Count(&orders)
	if orders != 1 || len(f.gateway.requests) != 1 {
		t.Fatalf("want exactly one order and one gateway call, got orders=%d calls=%d", orders, len(f.gateway.requests))
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	f := setupStorefrontFixture(t)
	ctx := context.Background()

	_, err := f.checkout.PlaceOrder(ctx, f.user.ID, PlaceOrderInput{ShippingAddressID: f.address.ID})
	assertErrorIs(t, err, ErrPaymentMethodRequired)

	_, err = f.checkout.PlaceOrder(ctx, f.user.ID, PlaceOrderInput{ShippingAddressID: 9999, PaymentMethod: "midtrans"})
	assertErrorIs(t, err, ErrAddressNotFound)

	_, err = f.checkout.PlaceOrder(ctx, f.user.ID, PlaceOrderInput{ShippingAddressID: f.address.ID, PaymentMethod: "midtrans"})
	assertErrorIs(t, err, ErrEmptyCart)

	stranger := &models.User{Email: "other@example.com", Status: constants.UserStatusActive}
	if err := f.db.Create(stranger).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if _, err := f.cart.AddItem(stranger.ID, f.variant.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	_, err = f.checkout.PlaceOrder(ctx, stranger.ID, PlaceOrderInput{ShippingAddressID: f.address.ID, PaymentMethod: "midtrans"})
	assertErrorIs(t, err, ErrAddressNotFound)
}

func TestPlaceOrderGatewayFailureLeavesResumableOrder(t *testing.T) {
	f := setupStorefrontFixture(t)
	f.gateway.err = errors.New("connection reset")
	if _, err := f.cart.AddItem(f.user.ID, f.variant.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	pending, err := f.checkout.PlaceOrder(context.Background(), f.user.ID, PlaceOrderInput{
		ShippingAddressID: f.address.ID,
		PaymentMethod:     constants.PaymentMethodMidtrans,
	})
	assertErrorIs(t, err, ErrGatewayRequestFailed)
	if pending == nil || pending.OrderID == 0 || pending.Token != "" {
		t.Fatalf("failed checkout should still identify the order: %+v", pending)
	}

	var order models.Order
	if err := f.db.Preload("Payment").First(&order).Error; err != nil {
		t.Fatalf("order should exist after commit: %v", err)
	}
	if order.Payment == nil || order.Payment.Status != constants.PaymentStatusPending || order.Payment.SnapToken != "" {
		t.Fatalf("payment should be pending without token: %+v", order.Payment)
	}

	f.gateway.err = nil
	session, err := f.checkout.ContinuePayment(context.Background(), f.user.ID, order.ID)
	if err != nil {
		t.Fatalf("continue payment failed: %v", err)
	}
	if session.Token == "" {
		t.Fatalf("expected a token after resuming")
	}
}

func TestContinuePaymentAfterFailedPayment(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 2)
	ctx := context.Background()

	if _, err := f.payments.HandleNotification(ctx, notificationBody(session.OrderNo, "deny", "", "125000.00", testServerKey)); err != nil {
		t.Fatalf("deny notification failed: %v", err)
	}
	order := f.loadOrder(t, session.OrderID)
	if order.Payment.Status != constants.PaymentStatusFailed || order.Status != constants.OrderStatusCancelled || order.CancelledAt == nil {
		t.Fatalf("expected failed/cancelled, got %s/%s", order.Payment.Status, order.Status)
	}

	retry, err := f.checkout.ContinuePayment(ctx, f.user.ID, session.OrderID)
	if err != nil {
		t.Fatalf("continue payment failed: %v", err)
	}
	if retry.Token == session.Token {
		t.Fatalf("retry should yield a new token")
	}
	order = f.loadOrder(t, session.OrderID)
	if order.Payment.Status != constants.PaymentStatusPending || order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending/pending after retry, got %s/%s", order.Payment.Status, order.Status)
	}
	if order.Payment.SnapToken != retry.Token || order.Payment.Attempts != 2 {
		t.Fatalf("unexpected payment after retry: %+v", order.Payment)
	}
	wantGatewayID := session.OrderNo + constants.RetryOrderMarker + "2"
	if order.Payment.GatewayOrderID != wantGatewayID {
		t.Fatalf("expected gateway order id %s, got %s", wantGatewayID, order.Payment.GatewayOrderID)
	}
	req := f.gateway.last()
	if req.TransactionDetails.OrderID != wantGatewayID || req.ItemDetails[0].Price != 50000 {
		t.Fatalf("retry payload should come from the persisted order: %+v", req)
	}
	if !strings.HasSuffix(req.Callbacks.Error, "?payment=failed") || req.CustomerDetails.FirstName != "Budi Santoso" {
		t.Fatalf("unexpected retry callbacks/customer: %+v", req)
	}

	result, err := f.payments.HandleNotification(ctx, notificationBody(wantGatewayID, "settlement", "", "125000.00", testServerKey))
	if err != nil {
		t.Fatalf("settlement for retried attempt failed: %v", err)
	}
	if !result.Changed || result.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("retried attempt should settle: %+v", result)
	}
	if f.stock(t, f.variant.ID) != 3 {
		t.Fatalf("expected stock 3 after settlement")
	}

	_, err = f.checkout.ContinuePayment(ctx, f.user.ID, session.OrderID)
	assertErrorIs(t, err, ErrPaymentNotContinuable)
}

func TestContinuePaymentOwnership(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 1)
	_, err := f.checkout.ContinuePayment(context.Background(), f.user.ID+100, session.OrderID)
	assertErrorIs(t, err, ErrOrderNotFound)
}

func TestPriceChangeDoesNotAffectPlacedOrder(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 2)
	if err := f.db.Model(&models.ProductVariant{}).Where("id = ?", f.variant.ID).Update("price", models.NewMoney(99000)).Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}
	order := f.loadOrder(t, session.OrderID)
	if order.Items[0].Price.Int64() != 50000 || order.TotalAmount.Int64() != 125000 {
		t.Fatalf("order should keep price at purchase: item=%s total=%s", order.Items[0].Price.String(), order.TotalAmount.String())
	}
	if order.Items[0].Variant == nil || order.Items[0].Variant.Price.Int64() != 99000 {
		t.Fatalf("variant relation should reflect live price")
	}
}

func TestRetryGatewayOrderID(t *testing.T) {
	if got := retryGatewayOrderID("ORD-1", 1); got != "ORD-1" {
		t.Fatalf("first attempt should use order number, got %s", got)
	}
	if got := retryGatewayOrderID("ORD-1", 3); got != "ORD-1-R3" {
		t.Fatalf("unexpected retry id %s", got)
	}
	if base, ok := stripRetrySuffix("ORD-1-R3"); !ok || base != "ORD-1" {
		t.Fatalf("unexpected strip result %s %v", base, ok)
	}
	if _, ok := stripRetrySuffix("ORD-1"); ok {
		t.Fatalf("order number without suffix should not strip")
	}
}

func itoa(id uint) string {
	return decimal.NewFromInt(int64(id)).String()
}
