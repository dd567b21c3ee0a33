package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表（结算时生成，金额字段创建后不再变化）
type Order struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo           string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_number"`    // 订单编号（对外标识，与网关对账）
	UserID            uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID
	ShippingAddressID uint           `gorm:"index;not null" json:"shipping_address_id"`                    // 收货地址ID
	Status            string         `gorm:"type:varchar(20);index;not null" json:"status"`                // 订单状态
	Currency          string         `gorm:"type:varchar(8);not null" json:"currency"`                     // 币种
	Subtotal          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	TaxAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`      // 税费
	ShippingCost      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`   // 运费
	TotalAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 应付总额
	PaidAt            *time.Time     `gorm:"index" json:"paid_at"`                                         // 支付时间
	CancelledAt       *time.Time     `gorm:"index" json:"cancelled_at"`                                    // 取消时间
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	// 关联
	Items           []OrderItem      `gorm:"foreignKey:OrderID" json:"items,omitempty"`                   // 订单项
	Payment         *Payment         `gorm:"foreignKey:OrderID" json:"payment,omitempty"`                 // 支付记录
	ShippingAddress *ShippingAddress `gorm:"foreignKey:ShippingAddressID" json:"shipping_address,omitempty"` // 收货地址
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
