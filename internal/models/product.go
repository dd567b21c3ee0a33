package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                               // 主键
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`                  // 分类ID
	Name        string         `gorm:"type:varchar(200);not null" json:"name"`             // 商品名称
	Slug        string         `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"` // 唯一标识
	Description string         `gorm:"type:text" json:"description"`                       // 描述
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                // 是否上架
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                         // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间

	// 关联
	Category *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`  // 规格列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// ProductVariant 商品规格（可售 SKU），库存只在支付确认后扣减
type ProductVariant struct {
	ID        uint      `gorm:"primarykey" json:"id"`                              // 主键
	ProductID uint      `gorm:"not null;index" json:"product_id"`                  // 商品ID
	SKU       string    `gorm:"column:sku;type:varchar(64);uniqueIndex;not null" json:"sku"` // SKU 编码
	Name      string    `gorm:"type:varchar(120)" json:"name"`                     // 规格名称（尺码/颜色）
	Price     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 单价
	Stock     int       `gorm:"not null;default:0" json:"stock"`                   // 库存（不小于 0）
	CreatedAt time.Time `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                        // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// DisplayName 返回带规格的展示名称
func (v *ProductVariant) DisplayName() string {
	if v == nil {
		return ""
	}
	name := ""
	if v.Product != nil {
		name = v.Product.Name
	}
	switch {
	case name == "":
		return v.Name
	case v.Name == "":
		return name
	default:
		return name + " - " + v.Name
	}
}
