package public

import (
	"errors"
	"io"
	"net/http"

	"github.com/tokonext/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

// MidtransWebhook 处理 Midtrans 支付状态异步通知。
// 网关只关心是否收到：验签通过的通知一律应答成功，即使状态未变化。
func (h *Handler) MidtransWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Warnw("midtrans_webhook_body_read_failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payload"})
		return
	}
	log.Infow("midtrans_webhook_received", "client_ip", c.ClientIP(), "body_size", len(body))

	result, err := h.PaymentService.HandleNotification(c.Request.Context(), body)
	if err != nil {
		status, message := webhookErrorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Errorw("midtrans_webhook_handle_failed", "status", status, "error", err)
		} else {
			log.Warnw("midtrans_webhook_rejected", "status", status, "error", err)
		}
		c.JSON(status, gin.H{"success": false, "message": message})
		return
	}
	if result != nil && result.Test {
		c.JSON(http.StatusOK, gin.H{"success": true, "test": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func webhookErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest, "Invalid signature"
	case errors.Is(err, service.ErrNotificationInvalid):
		return http.StatusBadRequest, "Invalid payload"
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, service.ErrPaymentNotFound):
		return http.StatusNotFound, "Payment not found"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
