package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"storefront-service/internal/cache"
	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// CategoryService maintains the category registry.
type CategoryService struct {
	products   store.ProductStorer
	categories store.CategoryStorer
	cache      cache.Cache
	logger     *log.Logger
}

func NewCategoryService(products store.ProductStorer, categories store.CategoryStorer, c cache.Cache, logger *log.Logger) *CategoryService {
	return &CategoryService{products: products, categories: categories, cache: c, logger: logger}
}

// List returns the registry ordered by orderIndex.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return readThrough(ctx, s.cache, s.logger, cache.CategoriesAllKey, s.categories.ListCategories)
}

// Sync registers every category name used by a product that is not yet in the
// registry, appending each at orderIndex = current count. Existing entries are
// never touched, so repeated calls are no-ops.
func (s *CategoryService) Sync(ctx context.Context) ([]domain.Category, error) {
	names, err := s.products.DistinctCategories(ctx)
	if err != nil {
		return nil, err
	}

	created := 0
	defer func() {
		if created > 0 {
			invalidate(ctx, s.cache, s.logger, cache.CategoriesAllKey)
		}
	}()

	for _, name := range names {
		if name == "" {
			continue
		}
		_, err := s.categories.FindCategoryByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrCategoryNotFound) {
			return nil, err
		}

		count, err := s.categories.CountCategories(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := s.categories.CreateCategory(ctx, &domain.Category{Name: name, OrderIndex: count}); err != nil {
			return nil, fmt.Errorf("service: Sync failed to register %q: %w", name, err)
		}
		created++
		s.logger.Printf("INFO: Registered category %q at position %d", name, count)
	}

	return s.categories.ListCategories(ctx)
}

// Reorder writes each orderIndex in turn. The writes are independent: a failure
// stops the batch and leaves earlier writes in place.
func (s *CategoryService) Reorder(ctx context.Context, order []domain.CategoryOrder) ([]domain.Category, error) {
	for _, item := range order {
		if item.OrderIndex < 0 {
			return nil, validationError("orderIndex for category %s must not be negative", item.ID)
		}
	}

	defer invalidate(ctx, s.cache, s.logger, cache.CategoriesAllKey)
	for _, item := range order {
		if err := s.categories.SetCategoryOrder(ctx, item.ID, item.OrderIndex); err != nil {
			return nil, err
		}
	}
	return s.categories.ListCategories(ctx)
}
