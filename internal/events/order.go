package events

import (
	"time"

	"github.com/tokonext/internal/models"
)

// FromOrder 由订单模型构建事件
func FromOrder(order *models.Order, eventType string, occurredAt time.Time) OrderEvent {
	if order == nil {
		return OrderEvent{Type: eventType, OccurredAt: occurredAt}
	}
	return OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount.Int64(),
		Currency:    order.Currency,
		OccurredAt:  occurredAt,
	}
}
