package models

import (
	"time"

	"gorm.io/gorm"
)

// ShippingAddress 收货地址
// 软删除：历史订单仍可读取下单时引用的地址
type ShippingAddress struct {
	ID         uint           `gorm:"primarykey" json:"id"`                          // 主键
	UserID     uint           `gorm:"not null;index" json:"user_id"`                 // 用户ID
	Recipient  string         `gorm:"type:varchar(120);not null" json:"recipient"`   // 收件人
	Phone      string         `gorm:"type:varchar(32);not null" json:"phone"`        // 电话
	Address    string         `gorm:"type:text;not null" json:"address"`             // 详细地址
	Province   string         `gorm:"type:varchar(120);not null" json:"province"`    // 省
	City       string         `gorm:"type:varchar(120);not null" json:"city"`        // 市
	PostalCode string         `gorm:"type:varchar(16);not null" json:"postal_code"`  // 邮编
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                                    // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (ShippingAddress) TableName() string {
	return "shipping_addresses"
}
