// Package event publishes domain events to Kafka for downstream consumers
// (stock sync, accounting). Delivery is best effort: callers log failures.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	TopicTransactionCreated = "transaction.created"
	TopicStockChanged       = "product.stock_changed"
)

type ItemSold struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type TransactionCreated struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        *uuid.UUID      `json:"user_id"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Payment       decimal.Decimal `json:"payment"`
	ChangeAmount  decimal.Decimal `json:"change_amount"`
	Items         []ItemSold      `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StockChanged is emitted per product after a checkout or a product edit.
type StockChanged struct {
	ProductID uuid.UUID `json:"product_id"`
	Stock     int       `json:"stock"`
	Source    string    `json:"source"`
}

type Publisher interface {
	TransactionCreated(e TransactionCreated) error
	StockChanged(e StockChanged) error
	Close() error
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

// NewKafkaPublisher dials the brokers with a few retries.
func NewKafkaPublisher(brokers []string, log *zap.Logger) (Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	var producer sarama.SyncProducer
	var err error
	for i := 1; i <= 5; i++ {
		producer, err = sarama.NewSyncProducer(brokers, config)
		if err == nil {
			log.Info("kafka producer initialized", zap.Strings("brokers", brokers))
			return NewPublisher(producer, log), nil
		}
		log.Warn("waiting for kafka", zap.Int("attempt", i), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("kafka producer: %w", err)
}

// NewPublisher wraps an existing producer.
func NewPublisher(producer sarama.SyncProducer, log *zap.Logger) Publisher {
	return &kafkaPublisher{producer: producer, log: log}
}

func (p *kafkaPublisher) TransactionCreated(e TransactionCreated) error {
	return p.publish(TopicTransactionCreated, e.TransactionID.String(), e)
}

func (p *kafkaPublisher) StockChanged(e StockChanged) error {
	return p.publish(TopicStockChanged, e.ProductID.String(), e)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

func (p *kafkaPublisher) publish(topic, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s: %w", topic, err)
	}

	p.log.Debug("event published",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

type noopPublisher struct{}

// Noop is used when no brokers are configured.
func Noop() Publisher { return noopPublisher{} }

func (noopPublisher) TransactionCreated(TransactionCreated) error { return nil }
func (noopPublisher) StockChanged(StockChanged) error             { return nil }
func (noopPublisher) Close() error                               { return nil }
