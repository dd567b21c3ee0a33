package events

import (
	"context"
	"time"
)

// OrderEvent 订单领域事件（外发到消息总线）
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     uint      `json:"order_id"`
	OrderNo     string    `json:"order_no"`
	UserID      uint      `json:"user_id"`
	Status      string    `json:"status"`
	TotalAmount int64     `json:"total_amount"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher 订单事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NoopPublisher 未启用消息总线时使用
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// Close 无操作
func (NoopPublisher) Close() error { return nil }
