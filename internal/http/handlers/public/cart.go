package public

import (
	"strconv"
	"strings"

	"github.com/tokonext/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemRequest 修改购物车数量请求，数量小于等于 0 时删除
type UpdateCartItemRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.CartService.GetCart(uid)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	view, err := h.CartService.AddItem(uid, req.VariantID, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}

// UpdateCartItem 修改购物车数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	view, err := h.CartService.UpdateItem(uid, req.ItemID, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}

// RemoveCartItem 删除购物车行
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	raw := strings.TrimSpace(c.Query("itemId"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("item_id"))
	}
	itemID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	view, err := h.CartService.RemoveItem(uid, uint(itemID))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}
