package public

import (
	"github.com/tokonext/internal/http/response"
	"github.com/tokonext/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateAddressRequest 新建收货地址请求
type CreateAddressRequest struct {
	Recipient  string `json:"recipient" binding:"required,max=120"`
	Phone      string `json:"phone" binding:"required,phone"`
	Address    string `json:"address" binding:"required,max=500"`
	Province   string `json:"province" binding:"required,max=120"`
	City       string `json:"city" binding:"required,max=120"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
}

// UpdateAddressRequest 修改收货地址请求，未传字段保持不变
type UpdateAddressRequest struct {
	Recipient  *string `json:"recipient" binding:"omitempty,min=1,max=120"`
	Phone      *string `json:"phone" binding:"omitempty,phone"`
	Address    *string `json:"address" binding:"omitempty,min=1,max=500"`
	Province   *string `json:"province" binding:"omitempty,min=1,max=120"`
	City       *string `json:"city" binding:"omitempty,min=1,max=120"`
	PostalCode *string `json:"postal_code" binding:"omitempty,min=1,max=20"`
}

// ListAddresses 收货地址列表
func (h *Handler) ListAddresses(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addresses, err := h.AddressService.List(uid)
	if err != nil {
		respondWithMappedError(c, err, addressErrorRules, response.CodeInternal, "error.address_fetch_failed")
		return
	}
	response.Success(c, addresses)
}

// GetAddress 收货地址详情
func (h *Handler) GetAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	address, err := h.AddressService.Get(uid, id)
	if err != nil {
		respondWithMappedError(c, err, addressErrorRules, response.CodeInternal, "error.address_fetch_failed")
		return
	}
	response.Success(c, address)
}

// CreateAddress 新建收货地址
func (h *Handler) CreateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	address, err := h.AddressService.Create(uid, service.AddressInput{
		Recipient:  req.Recipient,
		Phone:      req.Phone,
		Address:    req.Address,
		Province:   req.Province,
		City:       req.City,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		respondWithMappedError(c, err, addressErrorRules, response.CodeInternal, "error.address_save_failed")
		return
	}
	response.Success(c, address)
}

// UpdateAddress 修改收货地址
func (h *Handler) UpdateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	address, err := h.AddressService.Update(uid, id, service.AddressPatch{
		Recipient:  req.Recipient,
		Phone:      req.Phone,
		Address:    req.Address,
		Province:   req.Province,
		City:       req.City,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		respondWithMappedError(c, err, addressErrorRules, response.CodeInternal, "error.address_save_failed")
		return
	}
	response.Success(c, address)
}

// DeleteAddress 删除收货地址
func (h *Handler) DeleteAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.AddressService.Delete(uid, id); err != nil {
		respondWithMappedError(c, err, addressErrorRules, response.CodeInternal, "error.address_save_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
