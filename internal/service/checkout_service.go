package service

import (
	"context"
	"errors"
	"fmt"

	"frendo-pos/internal/cart"
	"frendo-pos/internal/event"
	"frendo-pos/internal/model"
	"frendo-pos/internal/repository"
	"frendo-pos/internal/ws"
	"frendo-pos/pkg/config"
	"frendo-pos/pkg/database"
	"frendo-pos/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrCheckoutFailed = errors.New("failed to save transaction")

type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// CheckoutRequest commits the stored cart of the caller, or, when Items is set,
// a cart built from the live products.
type CheckoutRequest struct {
	Items          []CheckoutItem   `json:"items" validate:"omitempty,dive"`
	Payment        *decimal.Decimal `json:"payment"`
	IdempotencyKey string           `json:"-" validate:"max=100"`
}

type CheckoutResult struct {
	Transaction *model.Transaction `json:"transaction"`
	Replayed    bool               `json:"replayed"`
}

// CheckoutProduct is one sellable product on the register screen.
type CheckoutProduct struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Discount   *model.Discount `json:"discount"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

type CheckoutService interface {
	Products(query string) ([]CheckoutProduct, error)
	Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*CheckoutResult, error)
}

type checkoutService struct {
	mode        string
	store       repository.CheckoutStore
	productRepo repository.ProductRepository
	carts       cart.Store
	hub         Broadcaster
	publisher   event.Publisher
	notify      notifier
	log         *zap.Logger
}

func NewCheckoutService(
	mode string,
	store repository.CheckoutStore,
	productRepo repository.ProductRepository,
	carts cart.Store,
	hub Broadcaster,
	publisher event.Publisher,
	log *zap.Logger,
) CheckoutService {
	return &checkoutService{
		mode:        mode,
		store:       store,
		productRepo: productRepo,
		carts:       carts,
		hub:         hub,
		publisher:   publisher,
		notify:      notifier{hub: hub, publisher: publisher, log: log},
		log:         log,
	}
}

func (s *checkoutService) Products(query string) ([]CheckoutProduct, error) {
	products, err := s.productRepo.FindForCheckout(query)
	if err != nil {
		return nil, err
	}
	out := make([]CheckoutProduct, 0, len(products))
	for i := range products {
		p := &products[i]
		d := p.SaleDiscount()
		out = append(out, CheckoutProduct{
			ID:         p.ID,
			Name:       p.Name,
			Price:      p.Price,
			Stock:      p.Stock,
			Discount:   d,
			FinalPrice: cart.UnitPrice(p.Price, d),
		})
	}
	return out, nil
}

func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*CheckoutResult, error) {
	// 1. Validasi request
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Replay a committed checkout with the same key
	atomic := s.mode != config.CheckoutLegacy
	if atomic && req.IdempotencyKey != "" {
		existing, err := s.store.FindByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err == nil {
			return &CheckoutResult{Transaction: existing, Replayed: true}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	// 3. Build the cart and re-check it here, whatever the client computed
	c, stored, err := s.buildCart(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// 4. Header + items
	total := c.Total()
	header := &model.Transaction{
		UserID:       &userID,
		TotalPrice:   total,
		Payment:      c.Payment,
		ChangeAmount: c.Payment.Sub(total),
	}
	if atomic && req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		header.IdempotencyKey = &key
	}
	items := make([]model.TransactionItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, model.TransactionItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}

	// 5. Commit
	if atomic {
		if err := s.store.CommitAtomic(ctx, header, items); err != nil {
			return s.atomicFailure(ctx, userID, req.IdempotencyKey, err)
		}
	} else if err := s.commitLegacy(ctx, c, header, items); err != nil {
		return nil, err
	}
	header.Items = items

	// 6. Cart is done
	if stored {
		if err := s.carts.Delete(ctx, userID); err != nil {
			s.log.Warn("failed to clear cart after checkout", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	s.log.Info("transaction created",
		zap.String("transaction_id", header.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("total", total.String()),
		zap.Int("lines", len(items)),
		zap.String("mode", s.mode),
	)

	// 7. Broadcast ke WebSocket + event bus
	s.announce(header)
	return &CheckoutResult{Transaction: header}, nil
}

// buildCart returns the cart to commit and whether it came from the cart store.
func (s *checkoutService) buildCart(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*cart.Cart, bool, error) {
	if len(req.Items) > 0 {
		c := &cart.Cart{}
		for _, it := range req.Items {
			product, err := loadSellable(s.productRepo, uuid.MustParse(it.ProductID))
			if err != nil {
				return nil, false, err
			}
			if err := c.Add(product, product.SaleDiscount()); err != nil {
				return nil, false, err
			}
			if err := c.Adjust(product.ID, it.Quantity-1); err != nil {
				return nil, false, err
			}
		}
		if req.Payment != nil {
			if err := c.SetPayment(*req.Payment); err != nil {
				return nil, false, err
			}
		}
		return c, false, nil
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if req.Payment != nil {
		if err := c.SetPayment(*req.Payment); err != nil {
			return nil, false, err
		}
	}
	// Products must still exist and be on sale
	for _, l := range c.Lines {
		if _, err := loadSellable(s.productRepo, l.ProductID); err != nil {
			return nil, false, err
		}
	}
	return c, true, nil
}

func (s *checkoutService) atomicFailure(ctx context.Context, userID uuid.UUID, key string, err error) (*CheckoutResult, error) {
	switch {
	case errors.Is(err, repository.ErrStockConflict):
		return nil, cart.ErrInsufficientStock
	case key != "" && database.IsUniqueViolation(err):
		// Lost the race against a retry carrying the same key
		existing, findErr := s.store.FindByIdempotencyKey(ctx, userID, key)
		if findErr == nil {
			return &CheckoutResult{Transaction: existing, Replayed: true}, nil
		}
	case database.IsForeignKeyViolation(err):
		return nil, ErrProductUnavailable
	}
	s.log.Error("atomic checkout failed", zap.Error(err))
	return nil, ErrCheckoutFailed
}

// commitLegacy writes header, items and stock as three independent steps. Stock is
// overwritten with snapshot minus quantity, and a failed step leaves the earlier ones.
func (s *checkoutService) commitLegacy(ctx context.Context, c *cart.Cart, header *model.Transaction, items []model.TransactionItem) error {
	if err := s.store.InsertTransaction(ctx, header); err != nil {
		s.log.Error("insert transaction failed", zap.Error(err))
		return ErrCheckoutFailed
	}

	for i := range items {
		items[i].TransactionID = header.ID
	}
	if err := s.store.InsertItems(ctx, items); err != nil {
		s.log.Error("insert transaction items failed", zap.String("transaction_id", header.ID.String()), zap.Error(err))
		return ErrCheckoutFailed
	}

	for _, l := range c.Lines {
		if err := s.store.SetStock(ctx, l.ProductID, l.AvailableStock-l.Quantity); err != nil {
			s.log.Error("stock update failed",
				zap.String("transaction_id", header.ID.String()),
				zap.String("product_id", l.ProductID.String()),
				zap.Error(err))
			return ErrCheckoutFailed
		}
	}
	return nil
}

func (s *checkoutService) announce(t *model.Transaction) {
	s.hub.Send(ws.TypeTransactionCreated, map[string]interface{}{
		"id":          t.ID,
		"total_price": t.TotalPrice,
		"items_count": len(t.Items),
	})

	sold := make([]event.ItemSold, 0, len(t.Items))
	for _, it := range t.Items {
		sold = append(sold, event.ItemSold{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price, Subtotal: it.Subtotal})
		if p, err := s.productRepo.FindByID(it.ProductID); err == nil {
			s.notify.stockChanged(p, "stock_sold", "checkout")
		}
	}

	err := s.publisher.TransactionCreated(event.TransactionCreated{
		TransactionID: t.ID,
		UserID:        t.UserID,
		TotalPrice:    t.TotalPrice,
		Payment:       t.Payment,
		ChangeAmount:  t.ChangeAmount,
		Items:         sold,
		CreatedAt:     t.CreatedAt,
	})
	if err != nil {
		s.log.Warn("publish transaction failed", zap.String("transaction_id", t.ID.String()), zap.Error(err))
	}
}
