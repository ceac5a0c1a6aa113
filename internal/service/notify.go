package service

import (
	"errors"
	"fmt"

	"frendo-pos/internal/event"
	"frendo-pos/internal/model"
	"frendo-pos/internal/ws"
	"frendo-pos/pkg/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrInUse            = errors.New("record is still in use")
	ErrInvalidReference = errors.New("referenced category or discount does not exist")
)

// Broadcaster pushes live messages to connected dashboards (*ws.Hub).
type Broadcaster interface {
	Send(msgType string, data interface{})
}

// notifier fans a stock change out to the hub and the event bus.
type notifier struct {
	hub       Broadcaster
	publisher event.Publisher
	log       *zap.Logger
}

func (n notifier) stockChanged(p *model.Product, action, source string) {
	n.hub.Send(ws.TypeStockUpdate, map[string]interface{}{
		"action": action,
		"product": map[string]interface{}{
			"id":    p.ID,
			"name":  p.Name,
			"stock": p.Stock,
			"price": p.Price,
		},
	})
	if err := n.publisher.StockChanged(event.StockChanged{ProductID: p.ID, Stock: p.Stock, Source: source}); err != nil {
		n.log.Warn("publish stock change failed", zap.String("product_id", p.ID.String()), zap.Error(err))
	}
}

// writeError maps store errors of insert/update/delete onto service errors.
func writeError(op string, err error, onForeignKey error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case database.IsForeignKeyViolation(err):
		return onForeignKey
	}
	return fmt.Errorf("%s: %w", op, err)
}
