package repository

import (
	"context"
	"errors"
	"time"

	"frendo-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrStockConflict is returned by CommitAtomic when a conditional decrement matched no
// row, i.e. live stock is lower than the quantity being sold.
var ErrStockConflict = errors.New("stock changed or is insufficient")

// CheckoutStore is the write side used by checkout. The legacy methods are three
// independent writes; CommitAtomic does all of it in one database transaction.
type CheckoutStore interface {
	InsertTransaction(ctx context.Context, header *model.Transaction) error
	InsertItems(ctx context.Context, items []model.TransactionItem) error
	SetStock(ctx context.Context, productID uuid.UUID, stock int) error
	CommitAtomic(ctx context.Context, header *model.Transaction, items []model.TransactionItem) error
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Transaction, error)
}

type TransactionRepository interface {
	CheckoutStore

	FindAll(day *time.Time) ([]model.Transaction, error)
	FindByID(id uuid.UUID) (*model.Transaction, error)
	FindSince(since time.Time) ([]model.Transaction, error)
	RecentSince(since time.Time, limit int) ([]RecentTransaction, error)
	Summary(since *time.Time) (*LedgerSummary, error)

	TopProducts(limit int) ([]TopProduct, error)
	CategoryRevenue() ([]CategoryRevenue, error)
	TotalUnitsSold(start, end time.Time) (int64, error)
}

// RecentTransaction untuk daftar transaksi terakhir di dashboard kasir
type RecentTransaction struct {
	ID         uuid.UUID       `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemsCount int             `json:"items_count"`
}

type LedgerSummary struct {
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type TopProduct struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	TotalSold    int64           `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type CategoryRevenue struct {
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) InsertTransaction(ctx context.Context, header *model.Transaction) error {
	return r.db.WithContext(ctx).Omit("User", "Items").Create(header).Error
}

func (r *transactionRepo) InsertItems(ctx context.Context, items []model.TransactionItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(&items).Error
}

// SetStock overwrites the stock column with a precomputed value
func (r *transactionRepo) SetStock(ctx context.Context, productID uuid.UUID, stock int) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", stock).Error
}

func (r *transactionRepo) CommitAtomic(ctx context.Context, header *model.Transaction, items []model.TransactionItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Items").Create(header).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].TransactionID = header.ID
		}
		if err := tx.Omit("Product").Create(&items).Error; err != nil {
			return err
		}

		// Conditional decrement guarded by the live stock
		for _, it := range items {
			res := tx.Model(&model.Product{}).
				Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
				Update("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrStockConflict
			}
		}
		return nil
	})
}

// FindByIdempotencyKey looks the key up among the cashier's own transactions
func (r *transactionRepo) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// FindAll returns the ledger newest first with cashier and items; day limits it to one calendar day
func (r *transactionRepo) FindAll(day *time.Time) ([]model.Transaction, error) {
	var transactions []model.Transaction
	q := r.db.Preload("User").Preload("Items.Product")
	if day != nil {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		q = q.Where("created_at >= ? AND created_at < ?", start, start.AddDate(0, 0, 1))
	}
	err := q.Order("created_at DESC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.Preload("User").Preload("Items.Product").First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// FindSince only loads the columns the charts need
func (r *transactionRepo) FindSince(since time.Time) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.Select("id", "created_at", "total_price").
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) RecentSince(since time.Time, limit int) ([]RecentTransaction, error) {
	var results []RecentTransaction
	err := r.db.Model(&model.Transaction{}).
		Select(`
			transactions.id,
			transactions.created_at,
			transactions.total_price,
			COUNT(transaction_items.id) AS items_count
		`).
		Joins("LEFT JOIN transaction_items ON transaction_items.transaction_id = transactions.id").
		Where("transactions.created_at >= ?", since).
		Group("transactions.id").
		Order("transactions.created_at DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}

// Summary counts transactions and sums revenue, over all time when since is nil
func (r *transactionRepo) Summary(since *time.Time) (*LedgerSummary, error) {
	var summary LedgerSummary
	q := r.db.Model(&model.Transaction{}).Select("COUNT(*) AS count, COALESCE(SUM(total_price), 0) AS revenue")
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	if err := q.Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// TopProducts ranks products by quantity sold
func (r *transactionRepo) TopProducts(limit int) ([]TopProduct, error) {
	var results []TopProduct
	err := r.db.Table("transaction_items").
		Select(`
			transaction_items.product_id,
			products.name AS product_name,
			COALESCE(SUM(transaction_items.quantity), 0) AS total_sold,
			COALESCE(SUM(transaction_items.subtotal), 0) AS total_revenue
		`).
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Group("transaction_items.product_id, products.name").
		Order("total_sold DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}

// CategoryRevenue groups item subtotals by product category
func (r *transactionRepo) CategoryRevenue() ([]CategoryRevenue, error) {
	var results []CategoryRevenue
	err := r.db.Table("transaction_items").
		Select(`
			categories.id AS category_id,
			categories.name AS category_name,
			COALESCE(SUM(transaction_items.subtotal), 0) AS revenue
		`).
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Group("categories.id, categories.name").
		Order("revenue DESC").
		Scan(&results).Error
	return results, err
}

// TotalUnitsSold sums item quantities of transactions created in [start, end]
func (r *transactionRepo) TotalUnitsSold(start, end time.Time) (int64, error) {
	var total int64
	err := r.db.Table("transaction_items").
		Select("COALESCE(SUM(transaction_items.quantity), 0)").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.created_at BETWEEN ? AND ?", start, end).
		Scan(&total).Error
	return total, err
}
