package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is the header of one checkout. Rows are append-only; UserID goes
// null when the cashier's profile is deleted.
type Transaction struct {
	BaseModel
	UserID         *uuid.UUID      `gorm:"type:uuid;index;uniqueIndex:idx_transactions_user_key,priority:1" json:"user_id"`
	User           *User           `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_price"`
	Payment        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"payment"`
	ChangeAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"change_amount"`
	IdempotencyKey *string         `gorm:"type:varchar(100);uniqueIndex:idx_transactions_user_key,priority:2" json:"-"`

	Items []TransactionItem `json:"transaction_items,omitempty"`
}

// TransactionItem is one cart line frozen at sale time. Price is the post-discount unit price.
type TransactionItem struct {
	BaseModel
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Price         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
}

// ItemsTotal sums the item subtotals; for a committed transaction it equals TotalPrice.
func (t *Transaction) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range t.Items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}
