package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/shopspring/decimal"
)

type CatalogService interface {
	CreateBrand(ctx context.Context, actor policy.Actor, b *domain.Brand) error
	GetBrand(ctx context.Context, id int64) (*domain.Brand, error)
	ListBrands(ctx context.Context) ([]*domain.Brand, error)
	UpdateBrand(ctx context.Context, actor policy.Actor, b *domain.Brand) error
	DeleteBrand(ctx context.Context, actor policy.Actor, id int64) error
	CreateProduct(ctx context.Context, actor policy.Actor, p *domain.Product) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, brandID *int64) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, actor policy.Actor, p *domain.Product) error
	DeleteProduct(ctx context.Context, actor policy.Actor, id int64) error
}

type CatalogHandler struct {
	catalog CatalogService
}

func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type BrandRequestDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func (d BrandRequestDTO) brand() *domain.Brand {
	return &domain.Brand{Name: d.Name, Description: d.Description, Image: d.Image}
}

// GET /api/brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.ListBrands(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, brands)
}

// GET /api/brands/{brand_id}
func (h *CatalogHandler) GetBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "brand_id")
	if !ok {
		return
	}
	brand, err := h.catalog.GetBrand(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, brand)
}

// POST /api/manager/brands
func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req BrandRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	brand := req.brand()
	if err := h.catalog.CreateBrand(r.Context(), getActor(r), brand); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, brand)
}

// PUT /api/manager/brands/{brand_id}
func (h *CatalogHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "brand_id")
	if !ok {
		return
	}
	var req BrandRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	brand := req.brand()
	brand.ID = id
	if err := h.catalog.UpdateBrand(r.Context(), getActor(r), brand); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, brand)
}

// DELETE /api/manager/brands/{brand_id}
func (h *CatalogHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "brand_id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteBrand(r.Context(), getActor(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ProductRequestDTO struct {
	BrandID          *int64          `json:"brand_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"short_description"`
	Image            string          `json:"image"`
	ProductType      string          `json:"product_type"`
	Price            decimal.Decimal `json:"price"`
	Discount         decimal.Decimal `json:"discount"`
	Quantity         int             `json:"quantity"`
}

func (d ProductRequestDTO) product() *domain.Product {
	return &domain.Product{
		BrandID:          d.BrandID,
		Name:             d.Name,
		Description:      d.Description,
		ShortDescription: d.ShortDescription,
		Image:            d.Image,
		ProductType:      d.ProductType,
		Price:            d.Price,
		Discount:         d.Discount,
		Quantity:         d.Quantity,
	}
}

// GET /api/products?brand_id=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var brandID *int64
	if raw := r.URL.Query().Get("brand_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_brand_id", "brand_id must be a positive integer")
			return
		}
		brandID = &id
	}

	products, err := h.catalog.ListProducts(r.Context(), brandID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, products)
}

// GET /api/products/{product_id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, product)
}

// POST /api/manager/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	product := req.product()
	if err := h.catalog.CreateProduct(r.Context(), getActor(r), product); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, product)
}

// PUT /api/manager/products/{product_id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	var req ProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	product := req.product()
	product.ID = id
	if err := h.catalog.UpdateProduct(r.Context(), getActor(r), product); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, product)
}

// DELETE /api/manager/products/{product_id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), getActor(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
