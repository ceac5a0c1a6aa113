package repository

import (
	"frendo-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiscountRepository interface {
	Create(discount *model.Discount) error
	FindAll() ([]model.Discount, error)
	FindAllByName() ([]model.Discount, error)
	FindByID(id uuid.UUID) (*model.Discount, error)
	Update(discount *model.Discount) error
	Delete(id uuid.UUID) error
}

type discountRepo struct {
	db *gorm.DB
}

func NewDiscountRepo(db *gorm.DB) DiscountRepository {
	return &discountRepo{db}
}

func (r *discountRepo) Create(discount *model.Discount) error {
	return r.db.Create(discount).Error
}

func (r *discountRepo) FindAll() ([]model.Discount, error) {
	var discounts []model.Discount
	err := r.db.Order("created_at DESC").Find(&discounts).Error
	return discounts, err
}

func (r *discountRepo) FindAllByName() ([]model.Discount, error) {
	var discounts []model.Discount
	err := r.db.Order("name ASC").Find(&discounts).Error
	return discounts, err
}

func (r *discountRepo) FindByID(id uuid.UUID) (*model.Discount, error) {
	var discount model.Discount
	if err := r.db.First(&discount, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *discountRepo) Update(discount *model.Discount) error {
	return r.db.Save(discount).Error
}

func (r *discountRepo) Delete(id uuid.UUID) error {
	return deleteByID(r.db, &model.Discount{}, id)
}
