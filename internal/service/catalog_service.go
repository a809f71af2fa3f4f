package service

import (
	"context"
	"strings"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// text strips all markup from short single-line fields.
var text = bluemonday.StrictPolicy()

// richText keeps the formatting allowed in product and brand descriptions.
var richText = bluemonday.UGCPolicy()

func cleanText(s string) string {
	return strings.TrimSpace(text.Sanitize(s))
}

type CatalogService struct {
	repo repository.CatalogStore
}

func NewCatalogService(repo repository.CatalogStore) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) CreateBrand(ctx context.Context, actor policy.Actor, b *domain.Brand) error {
	if err := policy.Authorize(actor, policy.ActionManageCatalog, 0); err != nil {
		return err
	}
	if err := sanitizeBrand(b); err != nil {
		return err
	}
	return s.repo.CreateBrand(ctx, b)
}

func (s *CatalogService) GetBrand(ctx context.Context, id int64) (*domain.Brand, error) {
	if id <= 0 {
		return nil, invalid("brand_id", "must be a positive integer")
	}
	return s.repo.GetBrand(ctx, id)
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	return s.repo.ListBrands(ctx)
}

func (s *CatalogService) UpdateBrand(ctx context.Context, actor policy.Actor, b *domain.Brand) error {
	if err := policy.Authorize(actor, policy.ActionManageCatalog, 0); err != nil {
		return err
	}
	if b.ID <= 0 {
		return invalid("brand_id", "must be a positive integer")
	}
	if err := sanitizeBrand(b); err != nil {
		return err
	}
	return s.repo.UpdateBrand(ctx, b)
}

func (s *CatalogService) DeleteBrand(ctx context.Context, actor policy.Actor, id int64) error {
	if err := policy.Authorize(actor, policy.ActionManageCatalog, 0); err != nil {
		return err
	}
	if id <= 0 {
		return invalid("brand_id", "must be a positive integer")
	}
	return s.repo.DeleteBrand(ctx, id)
}

func sanitizeBrand(b *domain.Brand) error {
	b.Name = cleanText(b.Name)
	b.Description = richText.Sanitize(b.Description)
	b.Image = strings.TrimSpace(b.Image)
	if b.Name == "" {
		return invalid("name", "is required")
	}
	if len(b.Name) > 255 {
		return invalid("name", "must be at most 255 characters")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor policy.Actor, p *domain.Product) error {
	if err := policy.Authorize(actor, policy.ActionManageCatalog, 0); err != nil {
		return err
	}
	if err := s.validateProduct(ctx, p); err != nil {
		return err
	}
	return s.repo.CreateProduct(ctx, p)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, invalid("product_id", "must be a positive integer")
	}
	return s.repo.GetProduct(ctx, id)
}

// ListProducts lists the catalog, optionally narrowed to one brand.
func (s *CatalogService) ListProducts(ctx context.Context, brandID *int64) ([]*domain.Product, error) {
	if brandID != nil && *brandID <= 0 {
		return nil, invalid("brand_id", "must be a positive integer")
	}
	return s.repo.ListProducts(ctx, brandID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor policy.Actor, p *domain.Product) error {
	if err := policy.Authorize(actor, policy.ActionManageCatalog, 0); err != nil {
		return err
	}
	if p.ID <= 0 {
		return invalid("product_id", "must be a positive integer")
	}
	if err := s.validateProduct(ctx, p); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, p)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actor policy.Actor, id int64) error {
	if err := policy.Authorize(actor, policy.ActionManageCatalog, 0); err != nil {
		return err
	}
	if id <= 0 {
		return invalid("product_id", "must be a positive integer")
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *CatalogService) validateProduct(ctx context.Context, p *domain.Product) error {
	p.Name = cleanText(p.Name)
	p.ShortDescription = cleanText(p.ShortDescription)
	p.ProductType = cleanText(p.ProductType)
	p.Description = richText.Sanitize(p.Description)
	p.Image = strings.TrimSpace(p.Image)

	switch {
	case p.Name == "":
		return invalid("name", "is required")
	case p.Price.IsNegative():
		return invalid("price", "must not be negative")
	case p.Discount.IsNegative() || p.Discount.GreaterThanOrEqual(hundred):
		return invalid("discount", "must be in [0, 100)")
	case p.Quantity < 0:
		return invalid("quantity", "must not be negative")
	}

	if p.BrandID != nil {
		if _, err := s.repo.GetBrand(ctx, *p.BrandID); err != nil {
			return err
		}
	}
	return nil
}
