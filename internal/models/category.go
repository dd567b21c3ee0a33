package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 商品分类表
type Category struct {
	ID        uint           `gorm:"primarykey" json:"id"`                            // 主键
	Name      string         `gorm:"type:varchar(120);not null" json:"name"`          // 名称
	Slug      string         `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"` // 唯一标识
	SortOrder int            `gorm:"default:0;index" json:"sort_order"`               // 排序权重
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                      // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
