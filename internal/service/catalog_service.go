package service

import (
	"frendo-pos/internal/event"
	"frendo-pos/internal/model"
	"frendo-pos/internal/repository"
	"frendo-pos/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=3"`
}

type DiscountRequest struct {
	Name     string             `json:"name" validate:"required"`
	Type     model.DiscountType `json:"type" validate:"required,oneof=percent fixed"`
	Value    decimal.Decimal    `json:"value" validate:"gte=1"`
	IsActive *bool              `json:"is_active"`
}

type ProductRequest struct {
	Name       string          `json:"name" validate:"required"`
	Price      decimal.Decimal `json:"price" validate:"gte=1"`
	Stock      int             `json:"stock" validate:"gte=0"`
	CategoryID string          `json:"category_id" validate:"required,uuid"`
	DiscountID string          `json:"discount_id" validate:"omitempty,uuid"`
	IsActive   *bool           `json:"is_active"`
}

// ProductsPage is what the products screen needs: the list plus the pick lists of the form.
type ProductsPage struct {
	Products   []model.Product  `json:"products"`
	Categories []model.Category `json:"categories"`
	Discounts  []model.Discount `json:"discounts"`
}

type CatalogService interface {
	ListCategories() ([]model.Category, error)
	CreateCategory(req *CategoryRequest) (*model.Category, error)
	UpdateCategory(id uuid.UUID, req *CategoryRequest) (*model.Category, error)
	DeleteCategory(id uuid.UUID) error

	ListDiscounts() ([]model.Discount, error)
	CreateDiscount(req *DiscountRequest) (*model.Discount, error)
	UpdateDiscount(id uuid.UUID, req *DiscountRequest) (*model.Discount, error)
	DeleteDiscount(id uuid.UUID) error

	ProductsPage() (*ProductsPage, error)
	CreateProduct(req *ProductRequest) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *ProductRequest) (*model.Product, error)
	DeleteProduct(id uuid.UUID) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	discountRepo repository.DiscountRepository
	productRepo  repository.ProductRepository
	notify       notifier
	log          *zap.Logger
}

func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	discountRepo repository.DiscountRepository,
	productRepo repository.ProductRepository,
	hub Broadcaster,
	publisher event.Publisher,
	log *zap.Logger,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		discountRepo: discountRepo,
		productRepo:  productRepo,
		notify:       notifier{hub: hub, publisher: publisher, log: log},
		log:          log,
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// ---- categories ----

func (s *catalogService) ListCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *catalogService) CreateCategory(req *CategoryRequest) (*model.Category, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	category := &model.Category{Name: req.Name}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, writeError("create category", err, ErrInvalidReference)
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(id uuid.UUID, req *CategoryRequest) (*model.Category, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		return nil, writeError("find category", err, ErrNotFound)
	}
	category.Name = req.Name
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, writeError("update category", err, ErrInvalidReference)
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(id uuid.UUID) error {
	if err := s.categoryRepo.Delete(id); err != nil {
		return writeError("delete category", err, ErrInUse)
	}
	return nil
}

// ---- discounts ----

func (s *catalogService) ListDiscounts() ([]model.Discount, error) {
	return s.discountRepo.FindAll()
}

func (s *catalogService) CreateDiscount(req *DiscountRequest) (*model.Discount, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	discount := &model.Discount{
		Name:     req.Name,
		Type:     req.Type,
		Value:    req.Value,
		IsActive: boolOr(req.IsActive, true),
	}
	if err := s.discountRepo.Create(discount); err != nil {
		return nil, writeError("create discount", err, ErrInvalidReference)
	}
	return discount, nil
}

func (s *catalogService) UpdateDiscount(id uuid.UUID, req *DiscountRequest) (*model.Discount, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	discount, err := s.discountRepo.FindByID(id)
	if err != nil {
		return nil, writeError("find discount", err, ErrNotFound)
	}
	discount.Name = req.Name
	discount.Type = req.Type
	discount.Value = req.Value
	discount.IsActive = boolOr(req.IsActive, discount.IsActive)
	if err := s.discountRepo.Update(discount); err != nil {
		return nil, writeError("update discount", err, ErrInvalidReference)
	}
	return discount, nil
}

// DeleteDiscount detaches the discount from its products (ON DELETE SET NULL).
func (s *catalogService) DeleteDiscount(id uuid.UUID) error {
	if err := s.discountRepo.Delete(id); err != nil {
		return writeError("delete discount", err, ErrInUse)
	}
	return nil
}

// ---- products ----

func (s *catalogService) ProductsPage() (*ProductsPage, error) {
	products, err := s.productRepo.FindAll()
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.FindAllByName()
	if err != nil {
		return nil, err
	}
	discounts, err := s.discountRepo.FindAllByName()
	if err != nil {
		return nil, err
	}
	return &ProductsPage{Products: products, Categories: categories, Discounts: discounts}, nil
}

// apply copies a validated request onto p. An empty discount_id clears the discount.
func (req *ProductRequest) apply(p *model.Product) {
	p.Name = req.Name
	p.Price = req.Price
	p.Stock = req.Stock
	p.CategoryID = uuid.MustParse(req.CategoryID)
	p.DiscountID = nil
	if req.DiscountID != "" {
		id := uuid.MustParse(req.DiscountID)
		p.DiscountID = &id
	}
	p.IsActive = boolOr(req.IsActive, p.IsActive)
}

func (s *catalogService) CreateProduct(req *ProductRequest) (*model.Product, error) {
	// 1. Validasi Struct Dasar
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Simpan ke Database
	product := &model.Product{IsActive: true}
	req.apply(product)
	if err := s.productRepo.Create(product); err != nil {
		return nil, writeError("create product", err, ErrInvalidReference)
	}

	// 3. Broadcast ke WebSocket
	s.notify.stockChanged(product, "product_created", "product")
	return product, nil
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *ProductRequest) (*model.Product, error) {
	// 1. Validasi Struct Dasar
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Cari product
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, writeError("find product", err, ErrNotFound)
	}
	oldStock := product.Stock

	// 3. Update fields
	req.apply(product)
	product.Category = nil
	product.Discount = nil
	if err := s.productRepo.Update(product); err != nil {
		return nil, writeError("update product", err, ErrInvalidReference)
	}

	// 4. Broadcast hanya jika stock berubah
	if product.Stock != oldStock {
		s.notify.stockChanged(product, "product_updated", "product")
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(id uuid.UUID) error {
	// Products already sold are kept by the ledger (ON DELETE RESTRICT)
	if err := s.productRepo.Delete(id); err != nil {
		return writeError("delete product", err, ErrInUse)
	}
	return nil
}
