package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/events"
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/payment/midtrans"
	"github.com/tokonext/internal/queue"
	"github.com/tokonext/internal/repository"
	"github.com/tokonext/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 回调处理结果标签
const (
	notificationOutcomeApplied = "applied"
	notificationOutcomeIgnored = "ignored"
	notificationOutcomeUnknown = "unknown_status"
	notificationOutcomeStale   = "stale_attempt"
)

// PaymentDeps 支付服务依赖
type PaymentDeps struct {
	OrderRepo       repository.OrderRepository
	PaymentRepo     repository.PaymentRepository
	ProductRepo     repository.ProductRepository
	QueueClient     *queue.Client
	Publisher       events.Publisher
	Instruments     *telemetry.Instruments
	ServerKey       string
	TestOrderPrefix string
}

// PaymentService 网关回调对账与支付过期
type PaymentService struct {
	orderRepo       repository.OrderRepository
	paymentRepo     repository.PaymentRepository
	productRepo     repository.ProductRepository
	queueClient     *queue.Client
	publisher       events.Publisher
	instruments     *telemetry.Instruments
	serverKey       string
	testOrderPrefix string
	now             func() time.Time
}

// NewPaymentService 创建支付服务
func NewPaymentService(deps PaymentDeps) *PaymentService {
	prefix := strings.TrimSpace(deps.TestOrderPrefix)
	if prefix == "" {
		prefix = constants.MidtransTestOrderPrefix
	}
	return &PaymentService{
		orderRepo:       deps.OrderRepo,
		paymentRepo:     deps.PaymentRepo,
		productRepo:     deps.ProductRepo,
		queueClient:     deps.QueueClient,
		publisher:       deps.Publisher,
		instruments:     deps.Instruments,
		serverKey:       strings.TrimSpace(deps.ServerKey),
		testOrderPrefix: prefix,
		now:             time.Now,
	}
}

// NotificationResult 回调处理结果
type NotificationResult struct {
	Test          bool   `json:"test,omitempty"`
	OrderID       uint   `json:"order_id,omitempty"`
	OrderNo       string `json:"order_number,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
	OrderStatus   string `json:"order_status,omitempty"`
	Changed       bool   `json:"changed"`
}

// statusTransition 网关状态映射结果
type statusTransition struct {
	Payment string
	Order   string
}

// mapTransactionStatus 网关交易状态映射到支付/订单状态，未知状态返回 false
func mapTransactionStatus(transactionStatus, fraudStatus string) (statusTransition, bool) {
	switch strings.ToLower(strings.TrimSpace(transactionStatus)) {
	case constants.MidtransStatusCapture:
		if strings.ToLower(strings.TrimSpace(fraudStatus)) == constants.MidtransFraudAccept {
			return statusTransition{constants.PaymentStatusPaid, constants.OrderStatusProcessing}, true
		}
		return statusTransition{constants.PaymentStatusFailed, constants.OrderStatusCancelled}, true
	case constants.MidtransStatusSettlement:
		return statusTransition{constants.PaymentStatusPaid, constants.OrderStatusProcessing}, true
	case constants.MidtransStatusCancel, constants.MidtransStatusDeny:
		return statusTransition{constants.PaymentStatusFailed, constants.OrderStatusCancelled}, true
	case constants.MidtransStatusExpire:
		return statusTransition{constants.PaymentStatusExpired, constants.OrderStatusCancelled}, true
	case constants.MidtransStatusPending:
		return statusTransition{constants.PaymentStatusPending, constants.OrderStatusPending}, true
	default:
		return statusTransition{}, false
	}
}

// canTransitionPayment 支付状态只能从 PENDING 迁出，PAID 为终态
func canTransitionPayment(from, to string) bool {
	if from == to || from == constants.PaymentStatusPaid {
		return false
	}
	return from == constants.PaymentStatusPending
}

// HandleNotification 处理网关异步通知
// 签名有效的通知即使没有产生状态变化也返回成功，网关会重复投递
func (s *PaymentService) HandleNotification(ctx context.Context, body []byte) (*NotificationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := serviceTracer.Start(ctx, "payment.handle_notification")
	defer span.End()

	notification, raw, err := midtrans.ParseNotification(body)
	if err != nil {
		logger.Warnw("payment_notification_payload_invalid", "body_size", len(body), "error", err)
		return nil, ErrNotificationInvalid
	}
	log := logger.SW(
		"gateway_order_id", notification.OrderID,
		"transaction_status", notification.TransactionStatus,
		"fraud_status", notification.FraudStatus,
	)
	span.SetAttributes(
		attribute.String("payment.gateway_order_id", notification.OrderID),
		attribute.String("payment.transaction_status", notification.TransactionStatus),
	)
	log.Infow("payment_notification_received")

	if strings.HasPrefix(notification.OrderID, s.testOrderPrefix) {
		log.Infow("payment_notification_test_acknowledged")
		s.instruments.WebhookNotification(ctx, notification.TransactionStatus, "test")
		return &NotificationResult{Test: true}, nil
	}
	if s.serverKey == "" {
		log.Errorw("payment_notification_server_key_missing")
		return nil, ErrGatewayNotConfigured
	}
	if err := midtrans.VerifyNotification(notification, s.serverKey); err != nil {
		log.Warnw("payment_notification_signature_invalid", "error", err)
		s.instruments.WebhookNotification(ctx, notification.TransactionStatus, "invalid_signature")
		span.SetStatus(codes.Error, "invalid signature")
		return nil, ErrInvalidSignature
	}

	order, payment, err := s.resolveNotificationTarget(notification.OrderID)
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) && !errors.Is(err, ErrPaymentNotFound) {
			log.Errorw("payment_notification_resolve_failed", "error", err)
			return nil, ErrPaymentUpdateFailed
		}
		log.Warnw("payment_notification_target_not_found", "error", err)
		return nil, err
	}
	log = log.With("order_id", order.ID, "order_no", order.OrderNo)

	target, known := mapTransactionStatus(notification.TransactionStatus, notification.FraudStatus)
	result := &NotificationResult{OrderID: order.ID, OrderNo: order.OrderNo}
	outcome := notificationOutcomeIgnored
	var from string

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		locked, err := paymentRepo.LockByID(payment.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrPaymentNotFound
		}
		now := s.now()
		from = locked.Status
		locked.GatewayStatus = notification.TransactionStatus
		locked.FraudStatus = notification.FraudStatus
		locked.GatewayPayload = models.JSON(raw)
		locked.NotifiedAt = &now
		locked.UpdatedAt = now

		apply := known && canTransitionPayment(locked.Status, target.Payment)
		switch {
		case !known:
			outcome = notificationOutcomeUnknown
		case apply && notification.OrderID != locked.GatewayOrderID && target.Payment != constants.PaymentStatusPaid:
			// 旧尝试的失败/过期通知不影响当前尝试，旧尝试的扣款成功仍需入账
			apply = false
			outcome = notificationOutcomeStale
		}
		if !apply {
			result.PaymentStatus = locked.Status
			return paymentRepo.Update(locked)
		}

		locked.Status = target.Payment
		if target.Payment == constants.PaymentStatusPaid {
			locked.PaidAt = &now
		}
		if err := paymentRepo.Update(locked); err != nil {
			return err
		}
		orderUpdates := map[string]interface{}{"updated_at": now}
		switch target.Order {
		case constants.OrderStatusProcessing:
			orderUpdates["paid_at"] = now
		case constants.OrderStatusCancelled:
			orderUpdates["cancelled_at"] = now
		}
		if err := orderRepo.UpdateStatus(order.ID, target.Order, orderUpdates); err != nil {
			return err
		}
		if target.Payment == constants.PaymentStatusPaid {
			if err := s.decrementStock(ctx, productRepo, order, log); err != nil {
				return err
			}
		}
		outcome = notificationOutcomeApplied
		result.Changed = true
		result.PaymentStatus = target.Payment
		result.OrderStatus = target.Order
		order.Status = target.Order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile failed")
		log.Errorw("payment_notification_apply_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}
	if result.OrderStatus == "" {
		result.OrderStatus = order.Status
	}
	s.instruments.WebhookNotification(ctx, notification.TransactionStatus, outcome)
	if !result.Changed {
		log.Infow("payment_notification_no_change", "payment_status", from, "outcome", outcome)
		return result, nil
	}

	s.instruments.PaymentTransition(ctx, from, result.PaymentStatus)
	log.Infow("payment_status_transitioned",
		"from", from,
		"to", result.PaymentStatus,
		"order_status", result.OrderStatus,
	)
	switch result.PaymentStatus {
	case constants.PaymentStatusPaid:
		s.dispatchOrderPaid(ctx, order)
	case constants.PaymentStatusFailed, constants.PaymentStatusExpired:
		s.publish(ctx, order, constants.EventOrderCancelled)
	}
	return result, nil
}

// ExpirePayment 支付超时：仍为 PENDING 且已过期时置为 EXPIRED，订单取消，不触碰库存
// attempt 为 0 时不校验尝试次数
func (s *PaymentService) ExpirePayment(ctx context.Context, orderID uint, attempt int) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	payment, err := s.paymentRepo.GetByOrderID(orderID)
	if err != nil {
		return false, err
	}
	if payment == nil {
		return false, ErrPaymentNotFound
	}
	log := logger.SW("order_id", orderID, "payment_id", payment.ID, "attempt", attempt)

	expired := false
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		locked, err := paymentRepo.LockByID(payment.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.Status != constants.PaymentStatusPending {
			return nil
		}
		if attempt > 0 && attempt != locked.Attempts {
			return nil
		}
		now := s.now()
		if locked.ExpiryAt == nil || now.Before(*locked.ExpiryAt) {
			return nil
		}
		locked.Status = constants.PaymentStatusExpired
		locked.UpdatedAt = now
		if err := paymentRepo.Update(locked); err != nil {
			return err
		}
		if err := orderRepo.UpdateStatus(orderID, constants.OrderStatusCancelled, map[string]interface{}{
			"cancelled_at": now,
			"updated_at":   now,
		}); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		log.Errorw("payment_expire_failed", "error", err)
		return false, err
	}
	if !expired {
		log.Debugw("payment_expire_skipped")
		return false, nil
	}
	s.instruments.PaymentTransition(ctx, constants.PaymentStatusPending, constants.PaymentStatusExpired)
	log.Infow("payment_expired")
	return true, nil
}

// ExpireOverdue 兜底扫描已过期仍为 PENDING 的支付，补偿丢失的 payment:expire 任务，返回本次被置为过期的订单 ID
func (s *PaymentService) ExpireOverdue(ctx context.Context, limit int) ([]uint, error) {
	orderIDs, err := s.paymentRepo.ListOverduePendingOrderIDs(s.now(), limit)
	if err != nil {
		return nil, err
	}
	expiredIDs := make([]uint, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		expired, err := s.ExpirePayment(ctx, orderID, 0)
		if err != nil {
			logger.Warnw("payment_expire_sweep_item_failed", "order_id", orderID, "error", err)
			continue
		}
		if expired {
			expiredIDs = append(expiredIDs, orderID)
		}
	}
	return expiredIDs, nil
}

// resolveNotificationTarget 依次按网关 order_id、订单号、去掉重试后缀的订单号查找
func (s *PaymentService) resolveNotificationTarget(gatewayOrderID string) (*models.Order, *models.Payment, error) {
	payment, err := s.paymentRepo.GetByGatewayOrderID(gatewayOrderID)
	if err != nil {
		return nil, nil, err
	}
	var order *models.Order
	if payment != nil {
		order, err = s.orderRepo.GetByID(payment.OrderID)
	} else {
		order, err = s.orderRepo.GetByOrderNo(gatewayOrderID)
		if err == nil && order == nil {
			if base, ok := stripRetrySuffix(gatewayOrderID); ok {
				order, err = s.orderRepo.GetByOrderNo(base)
			}
		}
	}
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}
	if payment == nil {
		payment = order.Payment
	}
	if payment == nil {
		return nil, nil, ErrPaymentNotFound
	}
	return order, payment, nil
}

// decrementStock 逐行条件扣减库存，库存不足的行跳过并记录
func (s *PaymentService) decrementStock(ctx context.Context, productRepo repository.ProductRepository, order *models.Order, log *zap.SugaredLogger) error {
	for _, item := range order.Items {
		affected, err := productRepo.DecrementStock(item.VariantID, item.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			s.instruments.StockDecrementSkipped(ctx)
			log.Warnw("payment_stock_decrement_skipped",
				"variant_id", item.VariantID,
				"quantity", item.Quantity,
			)
		}
	}
	return nil
}

// dispatchOrderPaid 支付成功事件优先走队列，队列不可用时直接发布
func (s *PaymentService) dispatchOrderPaid(ctx context.Context, order *models.Order) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderPaid(queue.OrderPaidPayload{OrderID: order.ID, OrderNo: order.OrderNo}); err != nil {
			logger.Warnw("payment_order_paid_enqueue_failed", "order_id", order.ID, "error", err)
		} else {
			return
		}
	}
	s.publish(ctx, order, constants.EventOrderPaid)
}

func (s *PaymentService) publish(ctx context.Context, order *models.Order, eventType string) {
	if s.publisher == nil || order == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.FromOrder(order, eventType, s.now())); err != nil {
		logger.Warnw("order_event_publish_failed", "order_id", order.ID, "event", eventType, "error", err)
	}
}

func stripRetrySuffix(gatewayOrderID string) (string, bool) {
	idx := strings.LastIndex(gatewayOrderID, constants.RetryOrderMarker)
	if idx <= 0 {
		return "", false
	}
	return gatewayOrderID[:idx], true
}
