package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-service/internal/domain"
)

// MemoryStore keeps all three collections in process memory.
// It backs STORE_DRIVER=memory and the service tests.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[string]domain.Product
	categories map[string]domain.Category
	orders     map[string]domain.Order
	// insertion order, used to give DistinctCategories a first-seen enumeration
	productSeq []string
	now        func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[string]domain.Product),
		categories: make(map[string]domain.Category),
		orders:     make(map[string]domain.Order),
		now:        time.Now,
	}
}

func validMemoryID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// --- ProductStorer Implementation ---

func (s *MemoryStore) CreateProduct(_ context.Context, product *domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *product
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	p.Images = append([]domain.ProductImage{}, p.Images...)
	s.products[p.ID] = p
	s.productSeq = append(s.productSeq, p.ID)
	return &p, nil
}

func (s *MemoryStore) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	if !validMemoryID(id) {
		return nil, ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (s *MemoryStore) GetProductsByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *MemoryStore) ListProducts(_ context.Context, params ListProductsParams) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		products = append(products, p)
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID < products[j].ID
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	if !validMemoryID(id) {
		return nil, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	update.Apply(&p)
	s.products[id] = p
	return &p, nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id string) (*domain.Product, error) {
	if !validMemoryID(id) {
		return nil, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	delete(s.products, id)
	for i, seqID := range s.productSeq {
		if seqID == id {
			s.productSeq = append(s.productSeq[:i], s.productSeq[i+1:]...)
			break
		}
	}
	return &p, nil
}

func (s *MemoryStore) DistinctCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var names []string
	for _, id := range s.productSeq {
		name := s.products[id].Category
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// --- CategoryStorer Implementation ---

func (s *MemoryStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	// Stable tiebreak on name; map iteration order is random.
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].OrderIndex == categories[j].OrderIndex {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].OrderIndex < categories[j].OrderIndex
	})
	return categories, nil
}

func (s *MemoryStore) FindCategoryByName(_ context.Context, name string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (s *MemoryStore) CountCategories(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories), nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, category *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *category
	c.ID = uuid.NewString()
	s.categories[c.ID] = c
	return &c, nil
}

func (s *MemoryStore) SetCategoryOrder(_ context.Context, id string, orderIndex int) error {
	if !validMemoryID(id) {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return ErrCategoryNotFound
	}
	c.OrderIndex = orderIndex
	s.categories[id] = c
	return nil
}

// --- OrderStorer Implementation ---

func (s *MemoryStore) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := *order
	o.ID = uuid.NewString()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now().UTC()
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	o.Items = append([]domain.OrderItem{}, o.Items...)
	s.orders[o.ID] = o
	return &o, nil
}

func (s *MemoryStore) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	if !validMemoryID(id) {
		return nil, ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (s *MemoryStore) ListOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *MemoryStore) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !validMemoryID(id) {
		return nil, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o.Status = status
	s.orders[id] = o
	return &o, nil
}

func (s *MemoryStore) DeleteOrder(_ context.Context, id string) error {
	if !validMemoryID(id) {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
