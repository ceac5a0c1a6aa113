package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Stock      int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	CategoryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	DiscountID *uuid.UUID      `gorm:"type:uuid;index" json:"discount_id"`
	IsActive   bool            `gorm:"not null" json:"is_active"`

	// Relasi
	Category *Category `gorm:"constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	Discount *Discount `gorm:"constraint:OnDelete:SET NULL" json:"discount,omitempty"`
}

// SaleDiscount returns the discount that prices the product at the register. Any
// attached discount applies; is_active is only shown on the discounts page.
func (p *Product) SaleDiscount() *Discount {
	return p.Discount
}
