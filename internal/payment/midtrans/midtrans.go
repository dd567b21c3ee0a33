package midtrans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	sandboxSnapBaseURL    = "https://app.sandbox.midtrans.com"
	productionSnapBaseURL = "https://app.midtrans.com"
	snapTransactionsPath  = "/snap/v1/transactions"
	defaultTimeout        = 60 * time.Second
)

var (
	ErrConfigInvalid    = errors.New("midtrans config invalid")
	ErrRequestFailed    = errors.New("midtrans request failed")
	ErrResponseInvalid  = errors.New("midtrans response invalid")
	ErrSignatureInvalid = errors.New("midtrans signature invalid")
)

// Config Midtrans Snap 配置
type Config struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	BaseURL      string // 为空时按 IsProduction 选择
	Timeout      time.Duration
}

// TransactionDetails 交易主体
type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

// ItemDetail 交易明细行，所有行 price×quantity 之和必须等于 gross_amount
type ItemDetail struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// Address 收货地址
type Address struct {
	FirstName   string `json:"first_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// CustomerDetails 付款人信息
type CustomerDetails struct {
	FirstName       string   `json:"first_name"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	ShippingAddress *Address `json:"shipping_address,omitempty"`
}

// Callbacks 支付完成后的跳转地址
type Callbacks struct {
	Finish  string `json:"finish,omitempty"`
	Error   string `json:"error,omitempty"`
	Pending string `json:"pending,omitempty"`
}

// SnapRequest 创建 Snap 交易请求
type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	ItemDetails        []ItemDetail       `json:"item_details"`
	CustomerDetails    CustomerDetails    `json:"customer_details"`
	Callbacks          Callbacks          `json:"callbacks"`
}

// SnapResponse 创建 Snap 交易结果
type SnapResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type errorResponse struct {
	ErrorMessages []string `json:"error_messages"`
}

// Client Snap API 客户端
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		baseURL:    resolveBaseURL(cfg),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func resolveBaseURL(cfg Config) string {
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		return strings.TrimRight(base, "/")
	}
	if cfg.IsProduction {
		return productionSnapBaseURL
	}
	return sandboxSnapBaseURL
}

// ServerKey 返回签名使用的服务端密钥
func (c *Client) ServerKey() string {
	return c.cfg.ServerKey
}

// ValidateRequest 校验交易请求金额与明细一致
func ValidateRequest(req SnapRequest) error {
	if strings.TrimSpace(req.TransactionDetails.OrderID) == "" {
		return fmt.Errorf("%w: order_id is required", ErrConfigInvalid)
	}
	if req.TransactionDetails.GrossAmount <= 0 {
		return fmt.Errorf("%w: gross_amount must be positive", ErrConfigInvalid)
	}
	if len(req.ItemDetails) > 0 {
		var sum int64
		for _, item := range req.ItemDetails {
			sum += item.Price * int64(item.Quantity)
		}
		if sum != req.TransactionDetails.GrossAmount {
			return fmt.Errorf("%w: item total %d does not match gross_amount %d", ErrConfigInvalid, sum, req.TransactionDetails.GrossAmount)
		}
	}
	return nil
}

// CreateTransaction 创建 Snap 交易，返回 token 与托管支付页地址
func (c *Client) CreateTransaction(ctx context.Context, req SnapRequest) (*SnapResponse, error) {
	if strings.TrimSpace(c.cfg.ServerKey) == "" {
		return nil, fmt.Errorf("%w: server_key is required", ErrConfigInvalid)
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request failed", ErrRequestFailed)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+snapTransactionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	httpReq.SetBasicAuth(c.cfg.ServerKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		_ = json.Unmarshal(respBody, &errResp)
		if len(errResp.ErrorMessages) > 0 {
			return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, strings.Join(errResp.ErrorMessages, "; "))
		}
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var result SnapResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	result.Token = strings.TrimSpace(result.Token)
	result.RedirectURL = strings.TrimSpace(result.RedirectURL)
	if result.Token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrResponseInvalid)
	}
	return &result, nil
}
