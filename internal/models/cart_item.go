package models

import "time"

// CartItem 购物车项（每个用户一个购物车，按规格去重）
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                      // 主键
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_variant" json:"user_id"` // 用户ID
	VariantID uint      `gorm:"not null;uniqueIndex:idx_cart_user_variant" json:"variant_id"` // 规格ID
	Quantity  int       `gorm:"not null" json:"quantity"`                                  // 数量
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                   // 更新时间

	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // 关联规格
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
