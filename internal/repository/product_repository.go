package repository

import (
	"errors"

	"github.com/tokonext/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository 商品与规格数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetByID(id uint, onlyActive bool) (*models.Product, error)
	Create(product *models.Product) error
	GetVariantByID(id uint) (*models.ProductVariant, error)
	LockVariantsByIDs(ids []uint) ([]models.ProductVariant, error)
	CreateVariant(variant *models.ProductVariant) error
	DecrementStock(variantID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// List 商品列表（新品优先）
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var products []models.Product
	if err := query.Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Order("created_at desc, id desc").
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID 获取商品详情（含规格）
func (r *GormProductRepository) GetByID(id uint, onlyActive bool) (*models.Product, error) {
	query := r.db.Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var product models.Product
	if err := query.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// GetVariantByID 获取规格（含所属商品）
func (r *GormProductRepository) GetVariantByID(id uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.Preload("Product").First(&variant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// LockVariantsByIDs 在事务内按 ID 顺序锁定规格行
func (r *GormProductRepository) LockVariantsByIDs(ids []uint) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return []models.ProductVariant{}, nil
	}
	var variants []models.ProductVariant
	// 固定加锁顺序，避免两个结算请求交叉持锁
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Product").
		Where("id IN ?", ids).
		Order("id asc").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// CreateVariant 创建规格
func (r *GormProductRepository) CreateVariant(variant *models.ProductVariant) error {
	return r.db.Create(variant).Error
}

// DecrementStock 条件扣减库存，库存不足时影响行数为 0
func (r *GormProductRepository) DecrementStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock decrement params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
