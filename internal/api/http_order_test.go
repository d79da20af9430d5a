package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
)

var testCustomer = domain.Customer{
	Name:     "Asha",
	Phone:    "9999999999",
	Pincode:  "560001",
	City:     "Bengaluru",
	State:    "KA",
	HouseNo:  "12",
	RoadName: "MG Road",
}

func TestHTTPHandler_CreateOrder(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	payload := map[string]interface{}{
		"customer": testCustomer,
		"items": []map[string]interface{}{
			{"product": "p1", "quantity": 2},
			{"product": "p2"},
		},
		"totalAmount": 45.5,
	}
	wantInput := service.OrderInput{
		Customer:    testCustomer,
		Items:       []domain.OrderItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 0}},
		TotalAmount: 45.5,
	}
	created := &domain.Order{ID: "o1", Customer: testCustomer, Items: wantInput.Items, TotalAmount: 45.5, Status: domain.OrderStatusPending}
	mocks.orders.On("Create", mock.Anything, wantInput).Return(created, nil).Once()

	reqBody, _ := json.Marshal(payload)
	// Checkout is public.
	res := doRequest(t, http.MethodPost, server.URL+"/api/orders", "", "application/json", bytes.NewBuffer(reqBody))
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var got domain.Order
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "o1", got.ID)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	mocks.assertExpectations(t)
}

func TestHTTPHandler_CreateOrder_Invalid(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"customer":`},
		{"no items", `{"customer":{"name":"a","phone":"1","pincode":"1","city":"c","state":"s","houseNo":"1","roadName":"r"},"items":[],"totalAmount":1}`},
		{"missing address", `{"customer":{"name":"a"},"items":[{"product":"p1"}],"totalAmount":1}`},
		{"missing total", `{"customer":{"name":"a","phone":"1","pincode":"1","city":"c","state":"s","houseNo":"1","roadName":"r"},"items":[{"product":"p1"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := doRequest(t, http.MethodPost, server.URL+"/api/orders", "", "application/json", bytes.NewBufferString(tc.payload))
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		})
	}
	assert.Empty(t, mocks.orders.Calls)
}

func TestHTTPHandler_CreateOrder_TotalMismatch(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	mocks.orders.On("Create", mock.Anything, mock.Anything).Return(nil, service.ErrTotalMismatch).Once()

	reqBody, _ := json.Marshal(map[string]interface{}{
		"customer":    testCustomer,
		"items":       []map[string]interface{}{{"product": "p1", "quantity": 1}},
		"totalAmount": 1,
	})
	res := doRequest(t, http.MethodPost, server.URL+"/api/orders", "", "application/json", bytes.NewBuffer(reqBody))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, service.ErrTotalMismatch.Error(), body.Error)
	mocks.assertExpectations(t)
}

func TestHTTPHandler_ListOrders(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	lamp := domain.Product{ID: "p1", Name: "Lamp"}
	views := []domain.OrderView{{
		ID:     "o1",
		Status: domain.OrderStatusShipped,
		Items: []domain.OrderItemView{
			{ProductID: "p1", Product: &lamp, Quantity: 1},
			{ProductID: "gone", Quantity: 3},
		},
	}}
	mocks.orders.On("List", mock.Anything).Return(views, nil).Once()

	res := doRequest(t, http.MethodGet, server.URL+"/api/orders", mocks.adminToken(t), "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got []domain.OrderView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	require.Len(t, got, 1)
	require.Len(t, got[0].Items, 2)
	assert.Equal(t, "Lamp", got[0].Items[0].Product.Name)
	assert.Nil(t, got[0].Items[1].Product)
	mocks.assertExpectations(t)
}

func TestHTTPHandler_UpdateOrderStatus(t *testing.T) {
	server, mocks := setupTestChiServer(t)
	token := mocks.adminToken(t)

	mocks.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderStatusCompleted).
		Return(&domain.OrderView{ID: "o1", Status: domain.OrderStatusCompleted}, nil).Once()
	mocks.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderStatus("Lost")).
		Return(nil, service.ErrValidation).Once()
	mocks.orders.On("UpdateStatus", mock.Anything, "o9", domain.OrderStatusShipped).
		Return(nil, store.ErrOrderNotFound).Once()

	res := doRequest(t, http.MethodPut, server.URL+"/api/orders/o1/status", token, "application/json", bytes.NewBufferString(`{"status":"Completed"}`))
	require.Equal(t, http.StatusOK, res.StatusCode)
	var got domain.OrderView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, domain.OrderStatusCompleted, got.Status)

	res = doRequest(t, http.MethodPut, server.URL+"/api/orders/o1/status", token, "application/json", bytes.NewBufferString(`{"status":"Lost"}`))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = doRequest(t, http.MethodPut, server.URL+"/api/orders/o9/status", token, "application/json", bytes.NewBufferString(`{"status":"Shipped"}`))
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = doRequest(t, http.MethodPut, server.URL+"/api/orders/o1/status", token, "application/json", bytes.NewBufferString(`{}`))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	mocks.assertExpectations(t)
}

func TestHTTPHandler_DeleteOrder(t *testing.T) {
	server, mocks := setupTestChiServer(t)
	token := mocks.adminToken(t)

	mocks.orders.On("Delete", mock.Anything, "pending").Return(service.ErrOrderNotCompleted).Once()
	mocks.orders.On("Delete", mock.Anything, "done").Return(nil).Once()

	res := doRequest(t, http.MethodDelete, server.URL+"/api/orders/pending", token, "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var errBody ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errBody))
	assert.Contains(t, errBody.Error, "only orders with status Completed can be deleted")

	res = doRequest(t, http.MethodDelete, server.URL+"/api/orders/done", token, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var msg MessageResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&msg))
	assert.Equal(t, "Order deleted successfully", msg.Message)

	mocks.assertExpectations(t)
}
