package models

import "time"

// Payment 支付记录（与订单一对一，重试支付复用同一行）
type Payment struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                              // 主键
	OrderID        uint       `gorm:"uniqueIndex;not null" json:"order_id"`                              // 订单ID
	Method         string     `gorm:"type:varchar(40);not null" json:"method"`                           // 支付方式
	Amount         Money      `gorm:"type:decimal(20,2);not null" json:"amount"`                         // 支付金额（等于订单总额）
	Currency       string     `gorm:"type:varchar(8);not null" json:"currency"`                          // 币种
	Status         string     `gorm:"type:varchar(20);index;not null" json:"status"`                     // 支付状态
	SnapToken      string     `gorm:"type:varchar(255)" json:"snap_token"`                               // 网关交易令牌
	RedirectURL    string     `gorm:"type:text" json:"redirect_url"`                                     // 网关托管支付页
	GatewayOrderID string     `gorm:"type:varchar(80);uniqueIndex;not null" json:"gateway_order_id"`     // 提交给网关的 order_id（重试带后缀）
	Attempts       int        `gorm:"not null;default:1" json:"attempts"`                                // 发起次数
	GatewayStatus  string     `gorm:"type:varchar(40)" json:"gateway_status"`                            // 最近一次网关交易状态
	FraudStatus    string     `gorm:"type:varchar(40)" json:"fraud_status"`                              // 最近一次风控状态
	GatewayPayload JSON       `gorm:"type:json" json:"-"`                                                // 最近一次回调原文
	PaidAt         *time.Time `gorm:"index" json:"paid_at"`                                              // 支付时间
	ExpiryAt       *time.Time `gorm:"index" json:"expiry_at"`                                            // 过期时间
	NotifiedAt     *time.Time `json:"notified_at"`                                                       // 最近回调时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`                                           // 更新时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
