package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tokonext/internal/http/response"
	"github.com/tokonext/internal/i18n"
	"github.com/tokonext/internal/service"

	"github.com/gin-gonic/gin"
)

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	ShippingAddressID uint   `json:"shipping_address_id" binding:"required"`
	PaymentMethod     string `json:"payment_method"`
	SelectedItems     []uint `json:"selected_items"`
}

// DirectCheckoutRequest 立即购买请求
type DirectCheckoutRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// PreviewCheckout 结算预览，items 为逗号分隔的购物车行 ID
func (h *Handler) PreviewCheckout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	selected, ok := parseSelectedItems(c.Query("items"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	preview, err := h.CheckoutService.Preview(uid, selected)
	if err != nil {
		respondWithMappedError(c, err, checkoutCommonErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, preview)
}

// PlaceOrder 提交订单并创建网关交易
func (h *Handler) PlaceOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	session, err := h.CheckoutService.PlaceOrder(c.Request.Context(), uid, service.PlaceOrderInput{
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     strings.TrimSpace(req.PaymentMethod),
		SelectedItems:     req.SelectedItems,
	})
	if err != nil {
		if errors.Is(err, service.ErrGatewayRequestFailed) && session != nil {
			requestLog(c).Warnw("checkout_place_order_gateway_failed", "order_id", session.OrderID, "error", err)
			locale := i18n.ResolveLocale(c)
			response.ErrorWithData(c, response.CodeBadGateway, i18n.T(locale, "error.payment_gateway_failed"), gin.H{
				"order_id":     session.OrderID,
				"order_number": session.OrderNo,
			})
			return
		}
		rules := concatMappedHandlerErrors(checkoutCommonErrorRules, placeOrderExtraErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.order_create_failed")
		return
	}
	response.Success(c, session)
}

// DirectCheckout 立即购买：校验库存后以单个商品替换购物车
func (h *Handler) DirectCheckout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req DirectCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	view, err := h.CartService.DirectCheckout(uid, req.VariantID, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}

func parseSelectedItems(raw string) ([]uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return nil, false
		}
		ids = append(ids, uint(id))
	}
	return ids, true
}
