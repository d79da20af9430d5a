package api

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/auth"
	"storefront-service/internal/domain"
	"storefront-service/internal/media"
	"storefront-service/internal/service"
)

const testSecret = "test-secret"

var testLogger = log.New(io.Discard, "", 0)

// MockProductService is a mock implementation of ProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, category string) ([]domain.Product, error) {
	args := m.Called(ctx, category)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, in service.ProductInput, files []media.File) (*domain.Product, error) {
	args := m.Called(ctx, in, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id string, update domain.ProductUpdate, files []media.File) (*domain.Product, error) {
	args := m.Called(ctx, id, update, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// MockCategoryService is a mock implementation of CategoryService
type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *MockCategoryService) Sync(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *MockCategoryService) Reorder(ctx context.Context, order []domain.CategoryOrder) ([]domain.Category, error) {
	args := m.Called(ctx, order)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

// MockOrderService is a mock implementation of OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, in service.OrderInput) (*domain.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context) ([]domain.OrderView, error) {
	args := m.Called(ctx)
	var orders []domain.OrderView
	if arg0 := args.Get(0); arg0 != nil {
		orders = arg0.([]domain.OrderView)
	}
	return orders, args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.OrderView, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderView), args.Error(1)
}

func (m *MockOrderService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

// MockPinger is a mock implementation of Pinger
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type testCatalog struct {
	sections []domain.CatalogSection
	err      error
}

func (c testCatalog) Catalog(context.Context) ([]domain.CatalogSection, error) {
	return c.sections, c.err
}

type testMocks struct {
	products   *MockProductService
	categories *MockCategoryService
	orders     *MockOrderService
	auth       *MockAuthService
	tokens     *auth.TokenManager
}

func (m testMocks) assertExpectations(t *testing.T) {
	m.products.AssertExpectations(t)
	m.categories.AssertExpectations(t)
	m.orders.AssertExpectations(t)
	m.auth.AssertExpectations(t)
}

// adminToken issues a token signed with the server secret.
func (m testMocks) adminToken(t *testing.T) string {
	token, err := m.tokens.Issue("admin", true)
	require.NoError(t, err)
	return token
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T) (*httptest.Server, testMocks) {
	t.Helper()
	mocks := testMocks{
		products:   new(MockProductService),
		categories: new(MockCategoryService),
		orders:     new(MockOrderService),
		auth:       new(MockAuthService),
		tokens:     auth.NewTokenManager(auth.TokenConfig{Secret: testSecret, TTL: time.Hour, Issuer: "test"}),
	}
	handler := NewHTTPHandler(Services{
		Products:   mocks.products,
		Categories: mocks.categories,
		Orders:     mocks.orders,
		Catalog:    testCatalog{},
		Auth:       mocks.auth,
		Tokens:     mocks.tokens,
	}, Options{ServiceName: "StorefrontService"}, testLogger)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, mocks
}

func doRequest(t *testing.T, method, url, token, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set(AuthHeader, token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

// PtrTo returns a pointer to v.
func PtrTo[T any](v T) *T {
	return &v
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
