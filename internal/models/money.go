package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MoneyStoragePlaces 持久化保留的小数位
	MoneyStoragePlaces = 4
	// MoneyDisplayPlaces 对外展示保留的小数位
	MoneyDisplayPlaces = 2
)

// Money 统一金额类型（内部保留 4 位小数，展示 2 位）
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(MoneyStoragePlaces)}
}

// NewMoneyFromString 从字符串创建金额，非法输入返回零值
func NewMoneyFromString(raw string) Money {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Money{}
	}
	return NewMoneyFromDecimal(d)
}

// MarshalJSON 统一输出 2 位小数的字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Decimal.StringFixed(MoneyDisplayPlaces))
}

// UnmarshalJSON 解析金额，字符串与数字均可
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*m = NewMoneyFromDecimal(d)
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(MoneyStoragePlaces).String(), nil
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	var d decimal.NullDecimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = NewMoneyFromDecimal(d.Decimal)
	return nil
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.StringFixed(MoneyDisplayPlaces)
}
