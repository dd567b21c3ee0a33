package service

import (
	"context"
	"time"

	"github.com/tokonext/internal/cache"
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/repository"
)

const categoryCacheKey = "catalog:categories"
const categoryCacheTTL = 5 * time.Minute

// VariantStock 规格库存查询结果
type VariantStock struct {
	VariantID   uint   `json:"variant_id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
	InStock     bool   `json:"in_stock"`
}

// CatalogService 只读商品目录
type CatalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewCatalogService 创建商品目录服务
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo, categoryRepo: categoryRepo}
}

// ListProducts 上架商品列表
func (s *CatalogService) ListProducts(categoryID uint, page, pageSize int) ([]models.Product, int64, error) {
	return s.productRepo.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: categoryID,
		OnlyActive: true,
	})
}

// GetProduct 商品详情
func (s *CatalogService) GetProduct(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListCategories 分类列表，启用 Redis 时短暂缓存
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cached []models.Category
	if hit, err := cache.GetJSON(ctx, categoryCacheKey, &cached); err != nil {
		logger.Warnw("catalog_category_cache_get_failed", "error", err)
	} else if hit {
		return cached, nil
	}
	categories, err := s.categoryRepo.List()
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, categoryCacheKey, categories, categoryCacheTTL); err != nil {
		logger.Warnw("catalog_category_cache_set_failed", "error", err)
	}
	return categories, nil
}

// GetVariantStock 查询规格库存
func (s *CatalogService) GetVariantStock(variantID uint) (*VariantStock, error) {
	variant, err := s.productRepo.GetVariantByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	result := &VariantStock{
		VariantID: variant.ID,
		SKU:       variant.SKU,
		Stock:     variant.Stock,
		InStock:   variant.Stock > 0,
	}
	if variant.Product != nil {
		result.ProductName = variant.Product.Name
	}
	return result, nil
}
