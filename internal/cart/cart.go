// Package cart holds the checkout cart of one cashier: lines with discounted unit
// prices, stock limits captured when a product is first added, and the payment.
package cart

import (
	"errors"

	"frendo-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrLineNotFound        = errors.New("product is not in the cart")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInsufficientPayment = errors.New("payment is less than the total")
	ErrNegativePayment     = errors.New("payment cannot be negative")
	ErrInvalidLine         = errors.New("cart line is inconsistent")
)

var hundred = decimal.NewFromInt(100)

// Line is one product in the cart. AvailableStock is the stock snapshot taken when the
// line was created; later quantity changes are checked against it, not the live stock.
type Line struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	AvailableStock int             `json:"available_stock"`
}

type Cart struct {
	Lines   []Line          `json:"lines"`
	Payment decimal.Decimal `json:"payment"`
}

// UnitPrice applies a discount to a list price, rounded to the two decimals the
// ledger stores. A fixed discount larger than the price yields a negative unit price;
// that is not clamped.
func UnitPrice(listPrice decimal.Decimal, d *model.Discount) decimal.Decimal {
	if d == nil {
		return listPrice
	}
	if d.Type == model.DiscountPercent {
		return listPrice.Sub(listPrice.Mul(d.Value).Div(hundred)).Round(2)
	}
	return listPrice.Sub(d.Value).Round(2)
}

// Add puts one unit of the product in the cart, at the price resolved with discount d.
// A repeated add increments the existing line when the stock snapshot allows it.
func (c *Cart) Add(p *model.Product, d *model.Discount) error {
	if i := c.index(p.ID); i >= 0 {
		line := &c.Lines[i]
		if line.Quantity+1 > line.AvailableStock {
			return ErrInsufficientStock
		}
		line.Quantity++
		line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		return nil
	}

	if p.Stock < 1 {
		return ErrInsufficientStock
	}
	price := UnitPrice(p.Price, d)
	c.Lines = append(c.Lines, Line{
		ProductID:      p.ID,
		ProductName:    p.Name,
		Quantity:       1,
		UnitPrice:      price,
		Subtotal:       price,
		AvailableStock: p.Stock,
	})
	return nil
}

// Adjust applies a signed delta to a line's quantity. A result above the stock snapshot
// is rejected; a result of zero or less is ignored and the line stays (use Remove).
func (c *Cart) Adjust(productID uuid.UUID, delta int) error {
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	line := &c.Lines[i]
	next := line.Quantity + delta
	if next <= 0 {
		return nil
	}
	if next > line.AvailableStock {
		return ErrInsufficientStock
	}
	line.Quantity = next
	line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(next)))
	return nil
}

// Remove drops the line for productID, if any.
func (c *Cart) Remove(productID uuid.UUID) {
	if i := c.index(productID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

func (c *Cart) SetPayment(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativePayment
	}
	c.Payment = amount
	return nil
}

func (c *Cart) Clear() {
	c.Lines = nil
	c.Payment = decimal.Zero
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal)
	}
	return total
}

// Change is payment minus total, floored at zero for display.
func (c *Cart) Change() decimal.Decimal {
	change := c.Payment.Sub(c.Total())
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

// Validate checks the checkout preconditions and the per-line arithmetic. It is run
// again at commit time, so a cart decoded from a client or a store cannot bypass it.
func (c *Cart) Validate() error {
	if len(c.Lines) == 0 {
		return ErrEmptyCart
	}
	for _, l := range c.Lines {
		if l.Quantity < 1 || l.Quantity > l.AvailableStock {
			return ErrInvalidLine
		}
		if !l.Subtotal.Equal(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))) {
			return ErrInvalidLine
		}
	}
	if c.Payment.LessThan(c.Total()) {
		return ErrInsufficientPayment
	}
	return nil
}

func (c *Cart) index(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
