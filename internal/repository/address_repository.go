package repository

import (
	"errors"

	"github.com/tokonext/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 收货地址数据访问接口
type AddressRepository interface {
	ListByUser(userID uint) ([]models.ShippingAddress, error)
	GetByUserAndID(userID, id uint) (*models.ShippingAddress, error)
	Create(address *models.ShippingAddress) error
	Update(address *models.ShippingAddress) error
	Delete(address *models.ShippingAddress) error
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建收货地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// ListByUser 获取用户地址（新建在前）
func (r *GormAddressRepository) ListByUser(userID uint) ([]models.ShippingAddress, error) {
	var addresses []models.ShippingAddress
	if err := r.db.Where("user_id = ?", userID).Order("id desc").Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// GetByUserAndID 获取用户的单个地址
func (r *GormAddressRepository) GetByUserAndID(userID, id uint) (*models.ShippingAddress, error) {
	var address models.ShippingAddress
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// Create 创建地址
func (r *GormAddressRepository) Create(address *models.ShippingAddress) error {
	return r.db.Create(address).Error
}

// Update 更新地址
func (r *GormAddressRepository) Update(address *models.ShippingAddress) error {
	return r.db.Save(address).Error
}

// Delete 软删除地址，历史订单仍可通过 Unscoped 读取
func (r *GormAddressRepository) Delete(address *models.ShippingAddress) error {
	if address == nil {
		return nil
	}
	return r.db.Delete(address).Error
}
