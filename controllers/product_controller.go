package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/services"
	"github.com/shopspring/decimal"
)

// ProductController serves the catalog
type ProductController struct {
	products *services.ProductService
}

// NewProductController creates the controller
func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

// CreateProductRequest represents the request body for adding a product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Category    string          `json:"category"`
	IsAvailable *bool           `json:"is_available"`
}

// UpdateProductRequest represents a partial product change
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	IsAvailable *bool            `json:"is_available"`
}

// ListProducts handles GET /api/v1/products - available products, optionally by category
func (ctl *ProductController) ListProducts(c *gin.Context) {
	products, err := ctl.products.List(c.Request.Context(), services.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("q"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, products)
}

// ListAllProducts handles GET /api/v1/admin/products - including unavailable products
func (ctl *ProductController) ListAllProducts(c *gin.Context) {
	products, err := ctl.products.List(c.Request.Context(), services.ProductFilter{
		Category:           c.Query("category"),
		Search:             c.Query("q"),
		IncludeUnavailable: true,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, products)
}

// CreateProduct handles POST /api/v1/admin/products
func (ctl *ProductController) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	product, err := ctl.products.Create(c.Request.Context(), services.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsAvailable: available,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/admin/products/:id
func (ctl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := ctl.products.Update(c.Request.Context(), id, services.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, product)
}
