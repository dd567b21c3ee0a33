package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Notification HTTP 异步通知中使用的字段
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	TransactionTime   string `json:"transaction_time"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	SignatureKey      string `json:"signature_key"`
}

// ParseNotification 解析通知报文，同时返回原始字段用于留档
func ParseNotification(body []byte) (*Notification, map[string]interface{}, error) {
	if len(body) == 0 {
		return nil, nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, nil, fmt.Errorf("%w: decode notification failed", ErrResponseInvalid)
	}
	raw := map[string]interface{}{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: decode notification failed", ErrResponseInvalid)
	}
	n.OrderID = strings.TrimSpace(n.OrderID)
	n.TransactionStatus = strings.ToLower(strings.TrimSpace(n.TransactionStatus))
	n.FraudStatus = strings.ToLower(strings.TrimSpace(n.FraudStatus))
	if n.OrderID == "" {
		return nil, nil, fmt.Errorf("%w: order_id is required", ErrResponseInvalid)
	}
	return &n, raw, nil
}

// SignatureKey 计算通知签名：SHA512(order_id + status_code + gross_amount + server_key)
func SignatureKey(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifyNotification 校验通知签名，缺失签名视为无效
func VerifyNotification(n *Notification, serverKey string) error {
	if n == nil {
		return fmt.Errorf("%w: notification is nil", ErrSignatureInvalid)
	}
	if strings.TrimSpace(serverKey) == "" {
		return fmt.Errorf("%w: server_key is required", ErrConfigInvalid)
	}
	provided := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if provided == "" {
		return fmt.Errorf("%w: signature_key is required", ErrSignatureInvalid)
	}
	expected := SignatureKey(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		return fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}
	return nil
}
