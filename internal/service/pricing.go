package service

import (
	"strings"

	"github.com/tokonext/internal/config"
	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/models"

	"github.com/shopspring/decimal"
)

const defaultShippingCost int64 = 14000

// CheckoutTotals 结算金额汇总
type CheckoutTotals struct {
	Subtotal     models.Money `json:"subtotal"`
	ShippingCost models.Money `json:"shipping"`
	TaxAmount    models.Money `json:"taxes"`
	TotalAmount  models.Money `json:"total"`
}

// PricingPolicy 运费与税率策略，预览与下单共用
type PricingPolicy struct {
	ShippingCost decimal.Decimal
	TaxRate      decimal.Decimal
	Currency     string
}

// NewPricingPolicy 从结算配置构建策略
func NewPricingPolicy(cfg config.CheckoutConfig) PricingPolicy {
	shipping := cfg.ShippingCost
	if shipping < 0 {
		shipping = defaultShippingCost
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = constants.CurrencyIDR
	}
	return PricingPolicy{
		ShippingCost: decimal.NewFromInt(shipping),
		TaxRate:      cfg.TaxRateDecimal(),
		Currency:     currency,
	}
}

// DefaultPricingPolicy 运费 14000，税率 11%
func DefaultPricingPolicy() PricingPolicy {
	return NewPricingPolicy(config.CheckoutConfig{ShippingCost: defaultShippingCost})
}

// Compute 计算汇总：税费按小计乘税率后四舍五入到整数
func (p PricingPolicy) Compute(subtotal decimal.Decimal) CheckoutTotals {
	subtotal = subtotal.Round(models.MoneyScale)
	tax := subtotal.Mul(p.TaxRate).Round(models.MoneyScale)
	shipping := p.ShippingCost.Round(models.MoneyScale)
	return CheckoutTotals{
		Subtotal:     models.NewMoneyFromDecimal(subtotal),
		ShippingCost: models.NewMoneyFromDecimal(shipping),
		TaxAmount:    models.NewMoneyFromDecimal(tax),
		TotalAmount:  models.NewMoneyFromDecimal(subtotal.Add(shipping).Add(tax)),
	}
}

// lineTotal 单行金额
func lineTotal(price models.Money, quantity int) decimal.Decimal {
	return price.Decimal.Mul(decimal.NewFromInt(int64(quantity)))
}
