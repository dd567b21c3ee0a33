package public

import (
	"errors"
	"strconv"

	"github.com/tokonext/internal/http/response"
	"github.com/tokonext/internal/i18n"
	"github.com/tokonext/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 用户订单列表（按创建时间倒序）
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrders(uid, page, pageSize)
	if err != nil {
		respondWithMappedError(c, err, orderQueryErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(uid, orderID)
	if err != nil {
		respondWithMappedError(c, err, orderQueryErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// ContinuePayment 为待支付或支付失败的订单重新申请网关令牌
func (h *Handler) ContinuePayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	session, err := h.CheckoutService.ContinuePayment(c.Request.Context(), uid, orderID)
	if err != nil {
		if errors.Is(err, service.ErrGatewayRequestFailed) {
			requestLog(c).Warnw("order_continue_payment_gateway_failed", "order_id", orderID, "error", err)
			response.Error(c, response.CodeBadGateway, i18n.T(i18n.ResolveLocale(c), "error.payment_gateway_failed"))
			return
		}
		respondWithMappedError(c, err, continuePaymentErrorRules, response.CodeInternal, "error.payment_continue_failed")
		return
	}
	response.Success(c, session)
}
