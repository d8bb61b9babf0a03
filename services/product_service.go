package services

import (
	"context"
	"strings"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductFilter narrows the catalog listing
type ProductFilter struct {
	Category           string
	Search             string
	IncludeUnavailable bool
}

// ProductInput is a full product definition
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	IsAvailable bool
}

// ProductUpdate changes only the fields that are set
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	IsAvailable *bool
}

// ProductService manages the catalog
type ProductService struct {
	db *gorm.DB
}

// NewProductService creates a product service
func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// List returns products ordered by category then name
func (s *ProductService) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if !filter.IncludeUnavailable {
		query = query.Where("is_available = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	products := []models.Product{}
	if err := query.Order("category ASC, name ASC").Find(&products).Error; err != nil {
		return nil, persistence("list products", err)
	}
	return products, nil
}

// Get loads one product
func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, persistence("load product", err)
	}
	return &product, nil
}

// Create adds a product to the catalog
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	product := models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		IsAvailable: in.IsAvailable,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, persistence("create product", err)
	}
	return &product, nil
}

// Update applies a partial change. Existing cart lines and orders keep their snapshots.
func (s *ProductService) Update(ctx context.Context, id uint, in ProductUpdate) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
		updates["name"] = product.Name
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
		updates["description"] = product.Description
	}
	if in.Price != nil {
		product.Price = *in.Price
		updates["price"] = product.Price
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
		updates["category"] = product.Category
	}
	if in.IsAvailable != nil {
		product.IsAvailable = *in.IsAvailable
		updates["is_available"] = product.IsAvailable
	}
	if len(updates) == 0 {
		return product, nil
	}
	if err := validateProduct(*product); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return nil, persistence("update product", err)
	}
	return product, nil
}

func validateProduct(p models.Product) error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !p.Price.IsPositive() {
		return &ValidationError{Field: "price", Message: "price must be greater than zero"}
	}
	if p.Price.Exponent() < -2 && !p.Price.Equal(p.Price.Round(2)) {
		return &ValidationError{Field: "price", Message: "price cannot have more than two decimal places"}
	}
	return nil
}
