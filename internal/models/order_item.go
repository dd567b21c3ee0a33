package models

import "time"

// OrderItem 订单项表（价格为下单时快照，后续改价不影响历史订单）
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                      // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`                            // 订单ID
	VariantID   uint      `gorm:"index;not null" json:"variant_id"`                          // 规格ID
	ProductName string    `gorm:"type:varchar(200);not null" json:"product_name"`            // 商品名称快照
	VariantName string    `gorm:"type:varchar(120)" json:"variant_name"`                     // 规格名称快照
	SKU         string    `gorm:"column:sku;type:varchar(64)" json:"sku"`                    // SKU 快照
	Price       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`        // 成交单价
	Quantity    int       `gorm:"not null" json:"quantity"`                                  // 数量
	TotalPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`  // 小计
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                   // 创建时间

	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // 关联规格（当前数据）
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
