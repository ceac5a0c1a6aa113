package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"frendo-pos/internal/model"
	"frendo-pos/internal/receipt"
	"frendo-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionsPage is the ledger listing with totals of the listed rows.
type TransactionsPage struct {
	Date         string              `json:"date,omitempty"`
	Transactions []model.Transaction `json:"transactions"`
	Count        int                 `json:"count"`
	Revenue      decimal.Decimal     `json:"revenue"`
}

type TransactionService interface {
	// List returns all transactions, or those of one day when date (YYYY-MM-DD) is set.
	List(date string) (*TransactionsPage, error)
	GetByID(id uuid.UUID) (*model.Transaction, error)
	Receipt(id uuid.UUID) (string, error)
}

type transactionService struct {
	txRepo repository.TransactionRepository
	store  receipt.Store
	loc    *time.Location
}

func NewTransactionService(txRepo repository.TransactionRepository, store receipt.Store) TransactionService {
	return &transactionService{txRepo: txRepo, store: store, loc: time.Local}
}

func (s *transactionService) List(date string) (*TransactionsPage, error) {
	var day *time.Time
	if date = strings.TrimSpace(date); date != "" {
		t, err := time.ParseInLocation(dateLayout, date, s.loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = &t
	}

	transactions, err := s.txRepo.FindAll(day)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}

	page := &TransactionsPage{Date: date, Transactions: transactions, Count: len(transactions), Revenue: decimal.Zero}
	for _, t := range transactions {
		page.Revenue = page.Revenue.Add(t.TotalPrice)
	}
	return page, nil
}

func (s *transactionService) GetByID(id uuid.UUID) (*model.Transaction, error) {
	t, err := s.txRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *transactionService) Receipt(id uuid.UUID) (string, error) {
	t, err := s.GetByID(id)
	if err != nil {
		return "", err
	}
	t.CreatedAt = t.CreatedAt.In(s.loc)
	return receipt.Render(s.store, t), nil
}
