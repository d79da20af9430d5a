package store

import (
	"context"
	"errors"

	"storefront-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound  = errors.New("store: product not found")
	ErrCategoryNotFound = errors.New("store: category not found")
	ErrOrderNotFound    = errors.New("store: order not found")
	ErrInvalidID        = errors.New("store: malformed identifier")
)

// ListProductsParams holds parameters for listing products.
type ListProductsParams struct {
	Category string // Exact match; empty means all categories
}

// ProductStorer defines the database operations for the catalog.
type ProductStorer interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	// GetProductsByIDs returns the products that still exist; unknown or malformed ids are skipped.
	GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error) // Sorted by name
	UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (*domain.Product, error) // Returns the removed product
	// DistinctCategories returns every non-empty category value present in the catalog.
	// The enumeration order is backend-defined.
	DistinctCategories(ctx context.Context) ([]string, error)
}

// CategoryStorer defines the database operations for the category registry.
type CategoryStorer interface {
	ListCategories(ctx context.Context) ([]domain.Category, error) // Sorted by orderIndex ascending
	FindCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	CountCategories(ctx context.Context) (int, error)
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	SetCategoryOrder(ctx context.Context, id string, orderIndex int) error
}

// OrderStorer defines the database operations for the order ledger.
type OrderStorer interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error) // Newest first
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// Store is implemented by every backend: one handle serving all three collections.
type Store interface {
	ProductStorer
	CategoryStorer
	OrderStorer
	Ping(ctx context.Context) error
	Close() error
}
