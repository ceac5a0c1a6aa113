package model

import "github.com/shopspring/decimal"

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Discount is either a percentage of the list price (Value 1-100 by convention)
// or a fixed currency amount taken off the list price.
type Discount struct {
	BaseModel
	Name     string          `gorm:"type:varchar(255);not null" json:"name"`
	Type     DiscountType    `gorm:"type:varchar(10);not null" json:"type"`
	Value    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	IsActive bool            `gorm:"not null" json:"is_active"`
}
