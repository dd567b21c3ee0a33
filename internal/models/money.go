package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MoneyScale 金额精度；IDR 无辅币，网关要求整数金额
const MoneyScale int32 = 0

// Money 统一金额类型（按 MoneyScale 四舍五入）
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(MoneyScale)}
}

// NewMoney 从整数创建金额
func NewMoney(amount int64) Money {
	return Money{Decimal: decimal.NewFromInt(amount)}
}

// Int64 返回整数金额（网关报文使用）
func (m Money) Int64() int64 {
	return m.Decimal.Round(MoneyScale).IntPart()
}

// MarshalJSON 输出 JSON 数字
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.Round(MoneyScale).StringFixed(MoneyScale)), nil
}

// UnmarshalJSON 解析金额（字符串或数字）
func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	m.Decimal = d.Round(MoneyScale)
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(MoneyScale).Value()
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(MoneyScale)
	return nil
}

// String 返回整数格式
func (m Money) String() string {
	return m.Decimal.Round(MoneyScale).StringFixed(MoneyScale)
}
