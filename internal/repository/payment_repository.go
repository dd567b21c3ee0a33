package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository 支付数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	GetByOrderID(orderID uint) (*models.Payment, error)
	GetByGatewayOrderID(gatewayOrderID string) (*models.Payment, error)
	LockByID(id uint) (*models.Payment, error)
	ListOverduePendingOrderIDs(now time.Time, limit int) ([]uint, error)
	WithTx(tx *gorm.DB) PaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) PaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// Update 更新支付记录
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// GetByOrderID 根据订单 ID 获取支付记录
func (r *GormPaymentRepository) GetByOrderID(orderID uint) (*models.Payment, error) {
	var payment models.Payment
	result := r.db.Where("order_id = ?", orderID).Limit(1).Find(&payment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

// GetByGatewayOrderID 根据网关 order_id 获取支付记录
func (r *GormPaymentRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.Payment, error) {
	gatewayOrderID = strings.TrimSpace(gatewayOrderID)
	if gatewayOrderID == "" {
		return nil, nil
	}
	var payment models.Payment
	result := r.db.Where("gateway_order_id = ?", gatewayOrderID).Limit(1).Find(&payment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

// LockByID 在事务内锁定支付记录
func (r *GormPaymentRepository) LockByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// ListOverduePendingOrderIDs 返回已过支付有效期但仍为 PENDING 的订单 ID，按过期时间升序
func (r *GormPaymentRepository) ListOverduePendingOrderIDs(now time.Time, limit int) ([]uint, error) {
	var orderIDs []uint
	query := r.db.Model(&models.Payment{}).
		Where("status = ? AND expiry_at IS NOT NULL AND expiry_at <= ?", constants.PaymentStatusPending, now).
		Order("expiry_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("order_id", &orderIDs).Error; err != nil {
		return nil, err
	}
	return orderIDs, nil
}
