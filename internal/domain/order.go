package domain

import "time"

// OrderStatus is the lifecycle label of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCompleted OrderStatus = "Completed"
)

// OrderStatuses lists every accepted status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Deletable reports whether an order in this status may be removed from the ledger.
func (s OrderStatus) Deletable() bool {
	return s == OrderStatusCompleted
}

// Customer holds the delivery address captured at checkout.
type Customer struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Pincode  string `json:"pincode"`
	City     string `json:"city"`
	State    string `json:"state"`
	HouseNo  string `json:"houseNo"`
	RoadName string `json:"roadName"`
	Landmark string `json:"landmark,omitempty"`
}

// OrderItem references a product by id. The reference is weak: the product
// may have been deleted since the order was placed.
type OrderItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

// Order is a checkout submission stored in the ledger.
type Order struct {
	ID          string      `json:"_id"`
	Customer    Customer    `json:"customer"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// ProductIDs returns the distinct product ids referenced by the order items.
func (o Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// OrderItemView is an order item with its product joined in.
// Product is nil when the referenced product no longer exists.
type OrderItemView struct {
	ProductID string   `json:"productId"`
	Product   *Product `json:"product"`
	Quantity  int      `json:"quantity"`
}

// OrderView is an order with product details joined, as shown on the admin dashboard.
type OrderView struct {
	ID          string          `json:"_id"`
	Customer    Customer        `json:"customer"`
	Items       []OrderItemView `json:"items"`
	TotalAmount float64         `json:"totalAmount"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewOrderView joins products (keyed by id) into the order.
func NewOrderView(o Order, products map[string]Product) OrderView {
	items := make([]OrderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		view := OrderItemView{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, ok := products[it.ProductID]; ok {
			p := p
			view.Product = &p
		}
		items = append(items, view)
	}
	return OrderView{
		ID:          o.ID,
		Customer:    o.Customer,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
}
