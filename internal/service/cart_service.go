package service

import (
	"context"
	"errors"

	"frendo-pos/internal/cart"
	"frendo-pos/internal/model"
	"frendo-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrProductUnavailable = errors.New("product is not available for sale")

// CartView is the cart with its computed totals, as returned to the register.
type CartView struct {
	Lines   []cart.Line     `json:"lines"`
	Total   decimal.Decimal `json:"total"`
	Payment decimal.Decimal `json:"payment"`
	Change  decimal.Decimal `json:"change"`
}

func viewOf(c *cart.Cart) *CartView {
	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return &CartView{
		Lines:   lines,
		Total:   c.Total(),
		Payment: c.Payment,
		Change:  c.Change(),
	}
}

type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
	AdjustItem(ctx context.Context, userID, productID uuid.UUID, delta int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
	SetPayment(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	store       cart.Store
	productRepo repository.ProductRepository
}

func NewCartService(store cart.Store, productRepo repository.ProductRepository) CartService {
	return &cartService{store: store, productRepo: productRepo}
}

// loadSellable returns an active product with its discount, or ErrProductUnavailable.
func loadSellable(productRepo repository.ProductRepository, id uuid.UUID) (*model.Product, error) {
	product, err := productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}
	return product, nil
}

func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// mutate loads the cart, applies fn and saves it only when fn succeeded.
func (s *cartService) mutate(ctx context.Context, userID uuid.UUID, fn func(c *cart.Cart) error) (*CartView, error) {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, userID, c); err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		product, err := loadSellable(s.productRepo, productID)
		if err != nil {
			return err
		}
		return c.Add(product, product.SaleDiscount())
	})
}

func (s *cartService) AdjustItem(ctx context.Context, userID, productID uuid.UUID, delta int) (*CartView, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		return c.Adjust(productID, delta)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *cartService) SetPayment(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*CartView, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		return c.SetPayment(amount)
	})
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.store.Delete(ctx, userID)
}
