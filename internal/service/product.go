package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront-service/internal/cache"
	"storefront-service/internal/domain"
	"storefront-service/internal/media"
	"storefront-service/internal/store"
)

// ProductInput is the data needed to create a product. Images may already be
// hosted (URLs) or arrive as files to upload; together they count toward the limit.
type ProductInput struct {
	Name          string
	SellingPrice  float64
	OriginalPrice float64
	Description   string
	Category      string
	Images        []domain.ProductImage
}

// ProductService manages the catalog.
type ProductService struct {
	products store.ProductStorer
	uploader media.Uploader
	cache    cache.Cache
	logger   *log.Logger
	now      func() time.Time
}

func NewProductService(products store.ProductStorer, uploader media.Uploader, c cache.Cache, logger *log.Logger) *ProductService {
	return &ProductService{products: products, uploader: uploader, cache: c, logger: logger, now: time.Now}
}

// List returns products sorted by name, optionally limited to one category.
func (s *ProductService) List(ctx context.Context, category string) ([]domain.Product, error) {
	key := cache.ProductsAllKey
	if category != "" {
		key = cache.ProductsByCategoryKey(category)
	}
	return readThrough(ctx, s.cache, s.logger, key, func(ctx context.Context) ([]domain.Product, error) {
		return s.products.ListProducts(ctx, store.ListProductsParams{Category: category})
	})
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetProductByID(ctx, id)
}

// Create validates the input, uploads any files and stores the product.
// Nothing is uploaded or written when validation fails.
func (s *ProductService) Create(ctx context.Context, in ProductInput, files []media.File) (*domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	switch {
	case in.Name == "":
		return nil, validationError("name is required")
	case in.Description == "":
		return nil, validationError("description is required")
	case in.SellingPrice < 0 || in.OriginalPrice < 0:
		return nil, validationError("prices must not be negative")
	case len(in.Images)+len(files) > domain.MaxProductImages:
		return nil, ErrTooManyImages
	}
	if in.Category == "" {
		in.Category = domain.DefaultCategory
	}

	uploaded, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}

	images := make([]domain.ProductImage, 0, len(in.Images)+len(uploaded))
	images = append(images, in.Images...)
	images = append(images, uploaded...)

	created, err := s.products.CreateProduct(ctx, &domain.Product{
		Name:          in.Name,
		SellingPrice:  in.SellingPrice,
		OriginalPrice: in.OriginalPrice,
		Description:   in.Description,
		Category:      in.Category,
		Images:        images,
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, s.logger, cache.ProductsPrefix)
	s.logger.Printf("INFO: Created product %s (%q) with %d image(s)", created.ID, created.Name, len(created.Images))
	return created, nil
}

// Update applies a partial update. When files are supplied they replace the
// product's images; an empty category leaves the current one in place.
func (s *ProductService) Update(ctx context.Context, id string, update domain.ProductUpdate, files []media.File) (*domain.Product, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, validationError("name must not be empty")
	}
	if (update.SellingPrice != nil && *update.SellingPrice < 0) || (update.OriginalPrice != nil && *update.OriginalPrice < 0) {
		return nil, validationError("prices must not be negative")
	}
	if update.Category != nil && strings.TrimSpace(*update.Category) == "" {
		update.Category = nil
	}
	if len(files) > 0 {
		update.Images = nil
	}
	if len(update.Images)+len(files) > domain.MaxProductImages {
		return nil, ErrTooManyImages
	}

	// Fail on unknown ids before paying for uploads.
	if _, err := s.products.GetProductByID(ctx, id); err != nil {
		return nil, err
	}

	if len(files) > 0 {
		uploaded, err := s.upload(ctx, files)
		if err != nil {
			return nil, err
		}
		update.Images = uploaded
	}

	updated, err := s.products.UpdateProduct(ctx, id, update)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, s.logger, cache.ProductsPrefix)
	return updated, nil
}

// Delete removes the product and returns it. Orders keep their reference.
func (s *ProductService) Delete(ctx context.Context, id string) (*domain.Product, error) {
	deleted, err := s.products.DeleteProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, s.logger, cache.ProductsPrefix)
	s.logger.Printf("INFO: Deleted product %s", id)
	return deleted, nil
}

// upload validates every file against the uploader's limits before sending any.
func (s *ProductService) upload(ctx context.Context, files []media.File) ([]domain.ProductImage, error) {
	images := make([]domain.ProductImage, 0, len(files))
	maxBytes := s.uploader.MaxFileBytes()
	for _, f := range files {
		if _, err := media.Validate(f, maxBytes); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	for _, f := range files {
		url, err := s.uploader.Upload(ctx, f)
		if err != nil {
			return nil, err
		}
		images = append(images, domain.ProductImage{URL: url})
	}
	return images, nil
}
