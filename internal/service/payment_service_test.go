package service

import (
	"context"
	"testing"
	"time"

	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/models"
)

func TestMapTransactionStatus(t *testing.T) {
	cases := []struct {
		status  string
		fraud   string
		payment string
		order   string
		known   bool
	}{
		{status: "capture", fraud: "accept", payment: constants.PaymentStatusPaid, order: constants.OrderStatusProcessing, known: true},
		{status: "capture", fraud: "challenge", payment: constants.PaymentStatusFailed, order: constants.OrderStatusCancelled, known: true},
		{status: "settlement", payment: constants.PaymentStatusPaid, order: constants.OrderStatusProcessing, known: true},
		{status: "cancel", payment: constants.PaymentStatusFailed, order: constants.OrderStatusCancelled, known: true},
		{status: "deny", payment: constants.PaymentStatusFailed, order: constants.OrderStatusCancelled, known: true},
		{status: "expire", payment: constants.PaymentStatusExpired, order: constants.OrderStatusCancelled, known: true},
		{status: "pending", payment: constants.PaymentStatusPending, order: constants.OrderStatusPending, known: true},
		{status: "refund", known: false},
	}
	for _, tc := range cases {
		got, known := mapTransactionStatus(tc.status, tc.fraud)
		if known != tc.known {
			t.Fatalf("%s/%s known want %v got %v", tc.status, tc.fraud, tc.known, known)
		}
		if got.Payment != tc.payment || got.Order != tc.order {
			t.Fatalf("%s/%s want %s/%s got %s/%s", tc.status, tc.fraud, tc.payment, tc.order, got.Payment, got.Order)
		}
	}
}

func TestCanTransitionPayment(t *testing.T) {
	if !canTransitionPayment(constants.PaymentStatusPending, constants.PaymentStatusPaid) {
		t.Fatalf("pending -> paid should be allowed")
	}
	if canTransitionPayment(constants.PaymentStatusPaid, constants.PaymentStatusFailed) {
		t.Fatalf("paid is terminal")
	}
	if canTransitionPayment(constants.PaymentStatusPending, constants.PaymentStatusPending) {
		t.Fatalf("same status is a no-op")
	}
	if canTransitionPayment(constants.PaymentStatusFailed, constants.PaymentStatusPaid) {
		t.Fatalf("failed payments only return through continue payment")
	}
}

func TestSettlementNotificationIsIdempotent(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 2)
	ctx := context.Background()
	body := notificationBody(session.OrderNo, "settlement", "", "125000.00", testServerKey)

	result, err := f.payments.HandleNotification(ctx, body)
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}
	if !result.Changed || result.PaymentStatus != constants.PaymentStatusPaid || result.OrderStatus != constants.OrderStatusProcessing {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := f.stock(t, f.variant.ID); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}
	order := f.loadOrder(t, session.OrderID)
	if order.Payment.PaidAt == nil || order.PaidAt == nil || order.Payment.GatewayStatus != "settlement" || order.Payment.NotifiedAt == nil {
		t.Fatalf("payment metadata not recorded: %+v", order.Payment)
	}

	for i := 0; i < 3; i++ {
		replay, err := f.payments.HandleNotification(ctx, body)
		if err != nil {
			t.Fatalf("replay failed: %v", err)
		}
		if replay.Changed {
			t.Fatalf("replay must not change state")
		}
	}
	if got := f.stock(t, f.variant.ID); got != 3 {
		t.Fatalf("replay must not decrement again, stock %d", got)
	}

	late, err := f.payments.HandleNotification(ctx, notificationBody(session.OrderNo, "expire", "", "125000.00", testServerKey))
	if err != nil {
		t.Fatalf("late expire failed: %v", err)
	}
	if late.Changed || late.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("paid payment must stay paid: %+v", late)
	}
}

func TestCaptureWithFraudChallengeFailsPayment(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 1)
	result, err := f.payments.HandleNotification(context.Background(), notificationBody(session.OrderNo, "capture", "challenge", "125000.00", testServerKey))
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if result.PaymentStatus != constants.PaymentStatusFailed || result.OrderStatus != constants.OrderStatusCancelled {
		t.Fatalf("unexpected result: %+v", result)
	}
	if f.stock(t, f.variant.ID) != 5 {
		t.Fatalf("failed payment must not touch stock")
	}
}

func TestTamperedSignatureChangesNothing(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 2)
	before := f.loadOrder(t, session.OrderID)

	body := notificationBody(session.OrderNo, "settlement", "", "125000.00", "attacker-key")
	_, err := f.payments.HandleNotification(context.Background(), body)
	assertErrorIs(t, err, ErrInvalidSignature)

	after := f.loadOrder(t, session.OrderID)
	if after.Status != before.Status || after.Payment.Status != before.Payment.Status || after.Payment.NotifiedAt != nil {
		t.Fatalf("state changed after invalid signature")
	}
	if f.stock(t, f.variant.ID) != 5 {
		t.Fatalf("stock changed after invalid signature")
	}
}

func TestNotificationEdgeCases(t *testing.T) {
	f := setupStorefrontFixture(t)
	ctx := context.Background()

	result, err := f.payments.HandleNotification(ctx, []byte(`{"order_id":"payment_notif_test_G123","transaction_status":"settlement"}`))
	if err != nil || result == nil || !result.Test {
		t.Fatalf("test notification should be acknowledged: %+v %v", result, err)
	}

	_, err = f.payments.HandleNotification(ctx, []byte(`{"order_id":`))
	assertErrorIs(t, err, ErrNotificationInvalid)

	_, err = f.payments.HandleNotification(ctx, notificationBody("ORD-404", "settlement", "", "1.00", testServerKey))
	assertErrorIs(t, err, ErrOrderNotFound)

	session := f.placeOrder(t, 1)
	unknown, err := f.payments.HandleNotification(ctx, notificationBody(session.OrderNo, "refund", "", "125000.00", testServerKey))
	if err != nil {
		t.Fatalf("unknown status should be acknowledged: %v", err)
	}
	if unknown.Changed || unknown.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("unknown status must leave state unchanged: %+v", unknown)
	}
}

func TestStaleAttemptNotificationIgnoredUnlessPaid(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 1)
	ctx := context.Background()

	if _, err := f.payments.HandleNotification(ctx, notificationBody(session.OrderNo, "cancel", "", "125000.00", testServerKey)); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := f.checkout.ContinuePayment(ctx, f.user.ID, session.OrderID); err != nil {
		t.Fatalf("continue payment failed: %v", err)
	}

	stale, err := f.payments.HandleNotification(ctx, notificationBody(session.OrderNo+"-R9", "expire", "", "125000.00", testServerKey))
	if err != nil {
		t.Fatalf("stale expire should be acknowledged: %v", err)
	}
	if stale.Changed {
		t.Fatalf("stale attempt must not cancel the active attempt")
	}
	order := f.loadOrder(t, session.OrderID)
	if order.Payment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", order.Payment.Status)
	}

	paid, err := f.payments.HandleNotification(ctx, notificationBody(session.OrderNo, "settlement", "", "125000.00", testServerKey))
	if err != nil {
		t.Fatalf("stale settlement failed: %v", err)
	}
	if !paid.Changed || paid.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("settlement from an earlier attempt must still be honoured: %+v", paid)
	}
}

func TestSettlementSkipsLineWithoutStock(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 2)
	if err := f.db.Model(&models.ProductVariant{}).Where("id = ?", f.variant.ID).Update("stock", 1).Error; err != nil {
		t.Fatalf("update stock failed: %v", err)
	}
	result, err := f.payments.HandleNotification(context.Background(), notificationBody(session.OrderNo, "settlement", "", "125000.00", testServerKey))
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}
	if result.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("payment should still be paid: %+v", result)
	}
	if got := f.stock(t, f.variant.ID); got != 1 {
		t.Fatalf("stock must never go negative, got %d", got)
	}
}

func TestExpirePayment(t *testing.T) {
	f := setupStorefrontFixture(t)
	session := f.placeOrder(t, 1)
	ctx := context.Background()

	expired, err := f.payments.ExpirePayment(ctx, session.OrderID, 1)
	if err != nil || expired {
		t.Fatalf("payment within expiry must not expire: %v %v", expired, err)
	}

	f.clock = f.clock.Add(25 * time.Hour)
	expired, err = f.payments.ExpirePayment(ctx, session.OrderID, 2)
	if err != nil || expired {
		t.Fatalf("stale attempt must be ignored: %v %v", expired, err)
	}
	expired, err = f.payments.ExpirePayment(ctx, session.OrderID, 1)
	if err != nil || !expired {
		t.Fatalf("expected payment to expire: %v %v", expired, err)
	}
	order := f.loadOrder(t, session.OrderID)
	if order.Payment.Status != constants.PaymentStatusExpired || order.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected expired/cancelled, got %s/%s", order.Payment.Status, order.Status)
	}
	if f.stock(t, f.variant.ID) != 5 {
		t.Fatalf("expiry must not touch stock")
	}

	expired, err = f.payments.ExpirePayment(ctx, session.OrderID, 0)
	if err != nil || expired {
		t.Fatalf("already expired payment should be a no-op")
	}
}

func TestExpireOverdueSweepsOnlyPastDue(t *testing.T) {
	f := setupStorefrontFixture(t)
	first := f.placeOrder(t, 1)
	f.clock = f.clock.Add(2 * time.Hour)
	second := f.placeOrder(t, 1)
	ctx := context.Background()

	f.clock = f.clock.Add(23 * time.Hour)
	expired, err := f.payments.ExpireOverdue(ctx, 10)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(expired) != 1 || expired[0] != first.OrderID {
		t.Fatalf("only the first order is past due, got %v", expired)
	}
	if f.loadOrder(t, second.OrderID).Payment.Status != constants.PaymentStatusPending {
		t.Fatalf("second payment should still be pending")
	}

	again, err := f.payments.ExpireOverdue(ctx, 10)
	if err != nil || len(again) != 0 {
		t.Fatalf("second sweep should be empty: %v %v", again, err)
	}
}
