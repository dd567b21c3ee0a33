package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tokonext"

// Instruments 业务指标，nil 接收者上的调用均为空操作
type Instruments struct {
	ordersPlaced          metric.Int64Counter
	webhookNotifications  metric.Int64Counter
	paymentTransitions    metric.Int64Counter
	stockDecrementSkipped metric.Int64Counter
	gatewayDuration       metric.Float64Histogram
}

// NewInstruments 在指定 meter 上注册业务指标
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	var (
		inst Instruments
		err  error
	)
	if inst.ordersPlaced, err = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders committed by checkout")); err != nil {
		return nil, err
	}
	if inst.webhookNotifications, err = meter.Int64Counter("storefront.webhook.notifications",
		metric.WithDescription("Gateway notifications by transaction status and outcome")); err != nil {
		return nil, err
	}
	if inst.paymentTransitions, err = meter.Int64Counter("storefront.payment.transitions",
		metric.WithDescription("Applied payment status transitions")); err != nil {
		return nil, err
	}
	if inst.stockDecrementSkipped, err = meter.Int64Counter("storefront.stock.decrement_skipped",
		metric.WithDescription("Paid order lines whose stock decrement found insufficient stock")); err != nil {
		return nil, err
	}
	if inst.gatewayDuration, err = meter.Float64Histogram("storefront.gateway.duration",
		metric.WithDescription("Payment gateway call latency"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return &inst, nil
}

// DefaultInstruments 基于全局 MeterProvider 创建指标
func DefaultInstruments() *Instruments {
	inst, err := NewInstruments(otel.GetMeterProvider().Meter(instrumentationName))
	if err != nil {
		return nil
	}
	return inst
}

// OrderPlaced 记录下单
func (i *Instruments) OrderPlaced(ctx context.Context, method string) {
	if i == nil {
		return
	}
	i.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", method)))
}

// WebhookNotification 记录回调处理结果
func (i *Instruments) WebhookNotification(ctx context.Context, transactionStatus, outcome string) {
	if i == nil {
		return
	}
	i.webhookNotifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transaction_status", transactionStatus),
		attribute.String("outcome", outcome),
	))
}

// PaymentTransition 记录支付状态迁移
func (i *Instruments) PaymentTransition(ctx context.Context, from, to string) {
	if i == nil {
		return
	}
	i.paymentTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// StockDecrementSkipped 记录被跳过的库存扣减
func (i *Instruments) StockDecrementSkipped(ctx context.Context) {
	if i == nil {
		return
	}
	i.stockDecrementSkipped.Add(ctx, 1)
}

// GatewayCall 记录网关调用耗时
func (i *Instruments) GatewayCall(ctx context.Context, operation string, elapsed time.Duration, err error) {
	if i == nil {
		return
	}
	i.gatewayDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("error", err != nil),
	))
}
