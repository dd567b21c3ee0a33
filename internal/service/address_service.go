package service

import (
	"strings"

	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/repository"
)

// AddressInput 新建地址输入
type AddressInput struct {
	Recipient  string
	Phone      string
	Address    string
	Province   string
	City       string
	PostalCode string
}

// AddressPatch 地址部分更新，nil 字段保持不变
type AddressPatch struct {
	Recipient  *string
	Phone      *string
	Address    *string
	Province   *string
	City       *string
	PostalCode *string
}

// AddressService 收货地址服务
type AddressService struct {
	addressRepo repository.AddressRepository
	orderRepo   repository.OrderRepository
}

// NewAddressService 创建收货地址服务
func NewAddressService(addressRepo repository.AddressRepository, orderRepo repository.OrderRepository) *AddressService {
	return &AddressService{addressRepo: addressRepo, orderRepo: orderRepo}
}

// List 用户地址列表
func (s *AddressService) List(userID uint) ([]models.ShippingAddress, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	return s.addressRepo.ListByUser(userID)
}

// Get 获取用户地址
func (s *AddressService) Get(userID, id uint) (*models.ShippingAddress, error) {
	address, err := s.addressRepo.GetByUserAndID(userID, id)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}
	return address, nil
}

// Create 新建地址
func (s *AddressService) Create(userID uint, input AddressInput) (*models.ShippingAddress, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	address := &models.ShippingAddress{
		UserID:     userID,
		Recipient:  strings.TrimSpace(input.Recipient),
		Phone:      strings.TrimSpace(input.Phone),
		Address:    strings.TrimSpace(input.Address),
		Province:   strings.TrimSpace(input.Province),
		City:       strings.TrimSpace(input.City),
		PostalCode: strings.TrimSpace(input.PostalCode),
	}
	if err := s.addressRepo.Create(address); err != nil {
		return nil, err
	}
	return address, nil
}

// Update 部分更新地址
func (s *AddressService) Update(userID, id uint, patch AddressPatch) (*models.ShippingAddress, error) {
	address, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	applyAddressField(&address.Recipient, patch.Recipient)
	applyAddressField(&address.Phone, patch.Phone)
	applyAddressField(&address.Address, patch.Address)
	applyAddressField(&address.Province, patch.Province)
	applyAddressField(&address.City, patch.City)
	applyAddressField(&address.PostalCode, patch.PostalCode)
	if err := s.addressRepo.Update(address); err != nil {
		return nil, err
	}
	return address, nil
}

// Delete 删除地址；仍被支付待完成的订单引用时拒绝
func (s *AddressService) Delete(userID, id uint) error {
	address, err := s.Get(userID, id)
	if err != nil {
		return err
	}
	inUse, err := s.orderRepo.CountByAddressWithPaymentStatus(address.ID, constants.PaymentStatusPending)
	if err != nil {
		return err
	}
	if inUse > 0 {
		logger.Warnw("address_delete_refused", "user_id", userID, "address_id", id, "pending_orders", inUse)
		return ErrAddressInUse
	}
	return s.addressRepo.Delete(address)
}

func applyAddressField(dst *string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return
	}
	*dst = trimmed
}
