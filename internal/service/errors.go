package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserDisabled          = errors.New("user disabled")
	ErrInvalidToken          = errors.New("invalid token")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrNoItemsSelected       = errors.New("no items selected")
	ErrCartItemNotFound      = errors.New("cart item not found")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrVariantNotFound       = errors.New("variant not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrAddressNotFound       = errors.New("address not found")
	ErrAddressInUse          = errors.New("address in use")
	ErrPaymentMethodRequired = errors.New("payment method required")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNumberConflict   = errors.New("order number conflict")
	ErrOrderCreateFailed     = errors.New("order create failed")
	ErrOrderFetchFailed      = errors.New("order fetch failed")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentNotContinuable = errors.New("payment not continuable")
	ErrPaymentUpdateFailed   = errors.New("payment update failed")
	ErrGatewayRequestFailed  = errors.New("payment gateway request failed")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrNotificationInvalid   = errors.New("notification payload invalid")
	ErrGatewayNotConfigured  = errors.New("payment gateway not configured")
)

// InsufficientStockError 库存不足，携带商品名与当前可用数量
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s, available: %d", e.ProductName, e.Available)
}

// Unwrap 便于 errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
