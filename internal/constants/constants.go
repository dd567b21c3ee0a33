package constants

// 订单状态常量
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// 支付状态常量
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
	PaymentStatusFailed  = "FAILED"
	PaymentStatusExpired = "EXPIRED"
)

// 支付方式常量（Snap 托管页内由用户最终选择，这里记录下单时的偏好）
const (
	PaymentMethodMidtrans     = "midtrans"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodEWallet      = "e_wallet"
	PaymentMethodCreditCard   = "credit_card"
)

// Midtrans 交易状态常量
const (
	MidtransStatusCapture    = "capture"
	MidtransStatusSettlement = "settlement"
	MidtransStatusPending    = "pending"
	MidtransStatusCancel     = "cancel"
	MidtransStatusDeny       = "deny"
	MidtransStatusExpire     = "expire"
	MidtransFraudAccept      = "accept"
)

// Midtrans 其它常量
const (
	MidtransTestOrderPrefix = "payment_notif_test_"
	MidtransShippingItemID  = "SHIPPING"
	MidtransShippingName    = "Shipping Cost"
	MidtransTaxItemID       = "TAX"
	MidtransTaxName         = "Tax"
	MidtransCountryCode     = "IDN"
	MidtransDefaultName     = "Customer"
)

// 订单号常量
const (
	OrderNoPrefix    = "ORD-"
	RetryOrderMarker = "-R"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault      = "default"
	QueueCritical     = "critical"
	TaskOrderPaid     = "order:paid"
	TaskPaymentExpire = "payment:expire"
)

// 订单事件类型常量
const (
	EventOrderPlaced    = "order.placed"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "toko"
)

// 币种常量
const (
	CurrencyIDR = "IDR"
)

// 站点语言常量
const (
	LocaleIDID = "id-ID"
	LocaleEnUS = "en-US"
)

// SupportedLocales 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleIDID}
