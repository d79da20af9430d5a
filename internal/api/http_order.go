package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/domain"
	"storefront-service/internal/service"
)

// CustomerInput is the delivery address captured at checkout.
type CustomerInput struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Pincode  string `json:"pincode" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	HouseNo  string `json:"houseNo" validate:"required"`
	RoadName string `json:"roadName" validate:"required"`
	Landmark string `json:"landmark"`
}

// OrderItemInput references a product; a zero quantity defaults to 1.
type OrderItemInput struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity"`
}

// OrderCreateInput defines the expected input for POST /orders.
type OrderCreateInput struct {
	Customer    CustomerInput    `json:"customer" validate:"required"`
	Items       []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	TotalAmount *float64         `json:"totalAmount" validate:"required,gte=0"`
}

// OrderStatusInput defines the expected input for PUT /orders/{id}/status.
type OrderStatusInput struct {
	Status string `json:"status" validate:"required"`
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var input OrderCreateInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	items := make([]domain.OrderItem, len(input.Items))
	for i, it := range input.Items {
		items[i] = domain.OrderItem{ProductID: it.Product, Quantity: it.Quantity}
	}

	created, err := h.svc.Orders.Create(r.Context(), service.OrderInput{
		Customer:    domain.Customer(input.Customer),
		Items:       items,
		TotalAmount: *input.TotalAmount,
	})
	if err != nil {
		h.respondWithServiceError(w, "create order", err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.List(r.Context())
	if err != nil {
		h.respondWithServiceError(w, "retrieve orders", err)
		return
	}
	if orders == nil {
		orders = []domain.OrderView{}
	}
	h.respondWithJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var input OrderStatusInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	updated, err := h.svc.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderId"), domain.OrderStatus(input.Status))
	if err != nil {
		h.respondWithServiceError(w, "update order status", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderId")
	if err := h.svc.Orders.Delete(r.Context(), id); err != nil {
		h.respondWithServiceError(w, "delete order", err)
		return
	}
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		h.logger.Printf("INFO: Order %s deleted by %s", id, claims.ID)
	}
	h.respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Order deleted successfully"})
}
