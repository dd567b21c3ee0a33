package repository

import (
	"errors"

	"github.com/tokonext/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户读取接口，账号资料由外部身份服务维护
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByID 不存在（含已软删除）时返回 nil
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	err := r.db.Take(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
