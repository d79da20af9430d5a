package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// OrderInput is a checkout submission.
type OrderInput struct {
	Customer    domain.Customer
	Items       []domain.OrderItem
	TotalAmount float64
}

// OrderService manages the order ledger.
type OrderService struct {
	orders      store.OrderStorer
	products    store.ProductStorer
	verifyTotal bool
	logger      *log.Logger
	now         func() time.Time
}

// NewOrderService creates an OrderService. With verifyTotal set, every item must
// reference an existing product and the submitted total must match current prices.
func NewOrderService(orders store.OrderStorer, products store.ProductStorer, verifyTotal bool, logger *log.Logger) *OrderService {
	return &OrderService{orders: orders, products: products, verifyTotal: verifyTotal, logger: logger, now: time.Now}
}

func validateCustomer(c domain.Customer) error {
	required := []struct{ field, value string }{
		{"name", c.Name},
		{"phone", c.Phone},
		{"pincode", c.Pincode},
		{"city", c.City},
		{"state", c.State},
		{"houseNo", c.HouseNo},
		{"roadName", c.RoadName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return validationError("customer %s is required", r.field)
		}
	}
	return nil
}

// Create records a new Pending order.
func (s *OrderService) Create(ctx context.Context, in OrderInput) (*domain.Order, error) {
	if err := validateCustomer(in.Customer); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, validationError("an order needs at least one item")
	}
	if in.TotalAmount < 0 {
		return nil, validationError("totalAmount must not be negative")
	}

	items := make([]domain.OrderItem, len(in.Items))
	for i, it := range in.Items {
		if it.ProductID == "" {
			return nil, validationError("item %d has no product", i)
		}
		if it.Quantity == 0 {
			it.Quantity = 1
		}
		if it.Quantity < 0 {
			return nil, validationError("item %d quantity must be positive", i)
		}
		items[i] = it
	}

	order := &domain.Order{
		Customer:    in.Customer,
		Items:       items,
		TotalAmount: in.TotalAmount,
		Status:      domain.OrderStatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if s.verifyTotal {
		if err := s.checkTotal(ctx, order); err != nil {
			return nil, err
		}
	}

	created, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("INFO: Order %s placed (%d item(s), total %.2f)", created.ID, len(created.Items), created.TotalAmount)
	return created, nil
}

// checkTotal recomputes the order total from current selling prices, to the cent.
func (s *OrderService) checkTotal(ctx context.Context, order *domain.Order) error {
	products, err := s.products.GetProductsByIDs(ctx, order.ProductIDs())
	if err != nil {
		return err
	}
	prices := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = decimal.NewFromFloat(p.SellingPrice)
	}

	expected := decimal.Zero
	for _, it := range order.Items {
		price, ok := prices[it.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, it.ProductID)
		}
		expected = expected.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	given := decimal.NewFromFloat(order.TotalAmount)
	if !expected.Round(2).Equal(given.Round(2)) {
		return fmt.Errorf("%w: expected %s, got %s", ErrTotalMismatch, expected.StringFixed(2), given.StringFixed(2))
	}
	return nil
}

// List returns all orders, newest first, with their products joined in.
// Items whose product has been deleted carry a nil product.
func (s *OrderService) List(ctx context.Context) ([]domain.OrderView, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, o := range orders {
		for _, id := range o.ProductIDs() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	byID := make(map[string]domain.Product, len(ids))
	if len(ids) > 0 {
		products, err := s.products.GetProductsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			byID[p.ID] = p
		}
	}

	views := make([]domain.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, domain.NewOrderView(o, byID))
	}
	return views, nil
}

// UpdateStatus overwrites the order status with one of the known statuses and
// returns the order with its products joined in.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.OrderView, error) {
	if !status.Valid() {
		return nil, validationError("status %q is not one of %v", status, domain.OrderStatuses)
	}
	updated, err := s.orders.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("INFO: Order %s status set to %s", id, status)

	byID := make(map[string]domain.Product)
	if ids := updated.ProductIDs(); len(ids) > 0 {
		products, err := s.products.GetProductsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			byID[p.ID] = p
		}
	}
	view := domain.NewOrderView(*updated, byID)
	return &view, nil
}

// Delete removes a Completed order. Any other status is rejected and the
// ledger is left untouched.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}
	if !order.Status.Deletable() {
		return fmt.Errorf("%w (current status %s)", ErrOrderNotCompleted, order.Status)
	}
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.logger.Printf("INFO: Order %s deleted", id)
	return nil
}
