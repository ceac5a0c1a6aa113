package repository

import (
	"strings"

	"frendo-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindForCheckout(query string) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	Update(product *model.Product) error
	Delete(id uuid.UUID) error
	Count() (int64, error)
	CountLowStock(threshold int) (int64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Omit("Category", "Discount").Create(product).Error
}

// FindAll joins category and discount, newest first
func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Preload("Category").Preload("Discount").Order("created_at DESC").Find(&products).Error
	return products, err
}

// FindForCheckout lists sellable products: active, in stock, optionally filtered by name
func (r *productRepo) FindForCheckout(query string) ([]model.Product, error) {
	var products []model.Product
	q := r.db.Preload("Discount").Where("is_active = ? AND stock > 0", true)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("name ILIKE ?", "%"+query+"%")
	}
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Category").Preload("Discount").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Omit("Category", "Discount").Save(product).Error
}

func (r *productRepo) Delete(id uuid.UUID) error {
	return deleteByID(r.db, &model.Product{}, id)
}

func (r *productRepo) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.Product{}).Count(&n).Error
	return n, err
}

// CountLowStock counts products with stock at or below threshold
func (r *productRepo) CountLowStock(threshold int) (int64, error) {
	var n int64
	err := r.db.Model(&model.Product{}).Where("stock <= ?", threshold).Count(&n).Error
	return n, err
}
