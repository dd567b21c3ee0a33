package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/tokonext/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderPaid(OrderPaidPayload{OrderID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.EnqueuePaymentExpire(PaymentExpirePayload{OrderID: 1, Attempt: 1}, time.Hour); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should be disabled")
	}
}

func TestTaskPayloads(t *testing.T) {
	task, err := NewPaymentExpireTask(PaymentExpirePayload{OrderID: 9, Attempt: 2})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskPaymentExpire {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	var payload PaymentExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.OrderID != 9 || payload.Attempt != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if paymentExpireTaskID(9, 2) == paymentExpireTaskID(9, 3) {
		t.Fatalf("each payment attempt needs its own expire task id")
	}
	if orderPaidTaskID(9) != "order-paid-9" {
		t.Fatalf("unexpected order paid task id %s", orderPaidTaskID(9))
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380})
	if opt.Addr != "redis:6380" {
		t.Fatalf("unexpected redis addr %s", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("default concurrency want 10 got %d", cfg.Concurrency)
	}
	if cfg.Queues[CriticalQueue] != 6 || cfg.Queues[DefaultQueue] != 3 {
		t.Fatalf("unexpected queue weights %+v", cfg.Queues)
	}
}
