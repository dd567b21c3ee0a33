package repository

import (
	"github.com/tokonext/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 分类只读访问
type CategoryRepository interface {
	List() ([]models.Category, error)
}

// GormCategoryRepository GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// List 按排序权重升序返回全部分类，权重相同按名称
func (r *GormCategoryRepository) List() ([]models.Category, error) {
	categories := make([]models.Category, 0)
	err := r.db.Order("sort_order asc").Order("name asc").Find(&categories).Error
	return categories, err
}
