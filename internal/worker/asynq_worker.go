package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/events"
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/provider"
	"github.com/tokonext/internal/queue"
	"github.com/tokonext/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	now func() time.Time
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
		now:       time.Now,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderPaid, c.handleOrderPaid)
	mux.HandleFunc(queue.TaskPaymentExpire, c.handlePaymentExpire)
}

func (c *Consumer) handleOrderPaid(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_paid_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPaidPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_paid_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_paid_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_paid_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_paid_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	if order.Payment == nil || order.Payment.Status != constants.PaymentStatusPaid {
		logger.Debugw("worker_order_paid_skip_not_paid", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	return c.publishOrderEvent(ctx, order, constants.EventOrderPaid)
}

func (c *Consumer) handlePaymentExpire(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_payment_expire_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.PaymentService == nil {
		logger.Warnw("worker_payment_expire_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	expired, err := c.PaymentService.ExpirePayment(ctx, payload.OrderID, payload.Attempt)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			logger.Debugw("worker_payment_expire_skip_payment_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_payment_expire_failed", "order_id", payload.OrderID, "attempt", payload.Attempt, "error", err)
		return err
	}
	if !expired {
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_payment_expire_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return nil
	}
	if order == nil {
		return nil
	}
	// 订单已取消，事件投递失败不重试过期任务
	_ = c.publishOrderEvent(ctx, order, constants.EventOrderCancelled)
	return nil
}

func (c *Consumer) publishOrderEvent(ctx context.Context, order *models.Order, eventType string) error {
	if c.Publisher == nil {
		logger.Debugw("worker_order_event_skip_publisher_nil", "order_id", order.ID, "event", eventType)
		return nil
	}
	if err := c.Publisher.Publish(ctx, events.FromOrder(order, eventType, c.now())); err != nil {
		logger.Warnw("worker_order_event_publish_failed", "order_id", order.ID, "order_no", order.OrderNo, "event", eventType, "error", err)
		return err
	}
	logger.Infow("worker_order_event_published", "order_id", order.ID, "order_no", order.OrderNo, "event", eventType)
	return nil
}

const overdueSweepBatch = 100

// SweepOverduePayments 补偿扫描：过期支付置为 EXPIRED 并发布订单取消事件
func (c *Consumer) SweepOverduePayments(ctx context.Context) {
	if c == nil || c.Container == nil || c.PaymentService == nil {
		return
	}
	expiredIDs, err := c.PaymentService.ExpireOverdue(ctx, overdueSweepBatch)
	if err != nil {
		logger.Warnw("worker_payment_sweep_failed", "error", err)
		return
	}
	for _, orderID := range expiredIDs {
		order, err := c.OrderRepo.GetByID(orderID)
		if err != nil || order == nil {
			logger.Warnw("worker_payment_sweep_fetch_order_failed", "order_id", orderID, "error", err)
			continue
		}
		_ = c.publishOrderEvent(ctx, order, constants.EventOrderCancelled)
	}
	if len(expiredIDs) > 0 {
		logger.Infow("worker_payment_sweep_expired", "count", len(expiredIDs))
	}
}
