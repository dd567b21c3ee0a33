package repository

import (
	"errors"
	"time"

	"github.com/tokonext/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	ListByUserAndIDs(userID uint, ids []uint) ([]models.CartItem, error)
	LockByUser(userID uint, ids []uint) ([]models.CartItem, error)
	GetByUserAndID(userID, itemID uint) (*models.CartItem, error)
	AddQuantity(userID, variantID uint, quantity int) error
	UpdateQuantity(item *models.CartItem, quantity int) error
	DeleteByUserAndID(userID, itemID uint) (int64, error)
	DeleteByUserAndIDs(userID uint, ids []uint) (int64, error)
	ReplaceWith(userID uint, item *models.CartItem) error
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

func (r *GormCartRepository) withVariant() *gorm.DB {
	return r.db.Preload("Variant").Preload("Variant.Product")
}

// ListByUser 获取用户购物车项
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.withVariant().Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByUserAndIDs 获取用户指定的购物车项，不属于该用户的 ID 会被忽略
func (r *GormCartRepository) ListByUserAndIDs(userID uint, ids []uint) ([]models.CartItem, error) {
	if len(ids) == 0 {
		return []models.CartItem{}, nil
	}
	var items []models.CartItem
	if err := r.withVariant().Where("user_id = ? AND id IN ?", userID, ids).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LockByUser 在事务内锁定用户购物车行，ids 为空时锁定全部
func (r *GormCartRepository) LockByUser(userID uint, ids []uint) ([]models.CartItem, error) {
	query := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	var items []models.CartItem
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByUserAndID 获取单个购物车项
func (r *GormCartRepository) GetByUserAndID(userID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.withVariant().Where("user_id = ? AND id = ?", userID, itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// AddQuantity 加入购物车，已存在时累加数量
func (r *GormCartRepository) AddQuantity(userID, variantID uint, quantity int) error {
	now := time.Now()
	item := models.CartItem{
		UserID:    userID,
		VariantID: variantID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "variant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
			"updated_at": now,
		}),
	}).Create(&item).Error
}

// UpdateQuantity 更新数量
func (r *GormCartRepository) UpdateQuantity(item *models.CartItem, quantity int) error {
	if item == nil {
		return nil
	}
	item.Quantity = quantity
	return r.db.Model(item).Updates(map[string]interface{}{
		"quantity":   quantity,
		"updated_at": time.Now(),
	}).Error
}

// DeleteByUserAndID 删除购物车项
func (r *GormCartRepository) DeleteByUserAndID(userID, itemID uint) (int64, error) {
	result := r.db.Where("user_id = ? AND id = ?", userID, itemID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// DeleteByUserAndIDs 删除已结算的购物车项，返回实际删除行数
func (r *GormCartRepository) DeleteByUserAndIDs(userID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("user_id = ? AND id IN ?", userID, ids).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// ReplaceWith 清空购物车后仅保留一项（立即购买）
func (r *GormCartRepository) ReplaceWith(userID uint, item *models.CartItem) error {
	if item == nil {
		return errors.New("cart item is nil")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		item.UserID = userID
		return tx.Create(item).Error
	})
}
