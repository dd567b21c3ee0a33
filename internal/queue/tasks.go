package queue

import (
	"encoding/json"
	"fmt"

	"github.com/tokonext/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderPaid 订单支付成功事件投递任务
	TaskOrderPaid = constants.TaskOrderPaid
	// TaskPaymentExpire 支付超时过期任务
	TaskPaymentExpire = constants.TaskPaymentExpire
)

// OrderPaidPayload 订单支付成功任务载荷
type OrderPaidPayload struct {
	OrderID uint   `json:"order_id"`
	OrderNo string `json:"order_no"`
}

// PaymentExpirePayload 支付过期任务载荷
type PaymentExpirePayload struct {
	OrderID uint `json:"order_id"`
	Attempt int  `json:"attempt"`
}

// NewOrderPaidTask 创建订单支付成功任务
func NewOrderPaidTask(payload OrderPaidPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPaid, body), nil
}

// NewPaymentExpireTask 创建支付过期任务
func NewPaymentExpireTask(payload PaymentExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentExpire, body), nil
}

// orderPaidTaskID 同一订单只投递一次支付成功事件
func orderPaidTaskID(orderID uint) string {
	return fmt.Sprintf("order-paid-%d", orderID)
}

// paymentExpireTaskID 每次发起支付各自对应一个过期任务
func paymentExpireTaskID(orderID uint, attempt int) string {
	return fmt.Sprintf("payment-expire-%d-%d", orderID, attempt)
}
