package service

import (
	"context"

	"storefront-service/internal/domain"
)

// CatalogService assembles the storefront's category sections.
type CatalogService struct {
	products   *ProductService
	categories *CategoryService
}

func NewCatalogService(products *ProductService, categories *CategoryService) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

// Catalog returns one section per category with live products, in display order.
func (s *CatalogService) Catalog(ctx context.Context) ([]domain.CatalogSection, error) {
	products, err := s.products.List(ctx, "")
	if err != nil {
		return nil, err
	}
	registry, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildCatalog(products, registry), nil
}
