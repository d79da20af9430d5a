package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/auth"
	"storefront-service/internal/cache"
	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

func TestHTTPHandler_ListCategories(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	categories := []domain.Category{{ID: "c1", Name: "Home", OrderIndex: 0}, {ID: "c2", Name: "Toys", OrderIndex: 1}}
	mocks.categories.On("List", mock.Anything).Return(categories, nil).Once()

	res := doRequest(t, http.MethodGet, server.URL+"/api/categories", "", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var got []domain.Category
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, categories, got)
	mocks.assertExpectations(t)
}

func TestHTTPHandler_SyncCategories(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	synced := []domain.Category{{ID: "c1", Name: "Home"}}
	mocks.categories.On("Sync", mock.Anything).Return(synced, nil).Once()

	res := doRequest(t, http.MethodPost, server.URL+"/api/categories/sync", mocks.adminToken(t), "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	mocks.assertExpectations(t)
}

func TestHTTPHandler_ReorderCategories(t *testing.T) {
	server, mocks := setupTestChiServer(t)
	token := mocks.adminToken(t)

	t.Run("success", func(t *testing.T) {
		want := []domain.CategoryOrder{{ID: "c2", OrderIndex: 0}, {ID: "c1", OrderIndex: 1}}
		reordered := []domain.Category{{ID: "c2", Name: "Toys", OrderIndex: 0}, {ID: "c1", Name: "Home", OrderIndex: 1}}
		mocks.categories.On("Reorder", mock.Anything, want).Return(reordered, nil).Once()

		body := `{"categories":[{"id":"c2","orderIndex":0},{"id":"c1","orderIndex":1}]}`
		res := doRequest(t, http.MethodPut, server.URL+"/api/categories/reorder", token, "application/json", bytes.NewBufferString(body))
		require.Equal(t, http.StatusOK, res.StatusCode)
		var got []domain.Category
		require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
		assert.Equal(t, reordered, got)
	})

	t.Run("negative index rejected", func(t *testing.T) {
		body := `{"categories":[{"id":"c2","orderIndex":-1}]}`
		res := doRequest(t, http.MethodPut, server.URL+"/api/categories/reorder", token, "application/json", bytes.NewBufferString(body))
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("missing orderIndex rejected", func(t *testing.T) {
		body := `{"categories":[{"id":"c2"}]}`
		res := doRequest(t, http.MethodPut, server.URL+"/api/categories/reorder", token, "application/json", bytes.NewBufferString(body))
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("unknown category", func(t *testing.T) {
		mocks.categories.On("Reorder", mock.Anything, []domain.CategoryOrder{{ID: "c9", OrderIndex: 2}}).
			Return(nil, store.ErrCategoryNotFound).Once()

		body := `{"categories":[{"id":"c9","orderIndex":2}]}`
		res := doRequest(t, http.MethodPut, server.URL+"/api/categories/reorder", token, "application/json", bytes.NewBufferString(body))
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	mocks.assertExpectations(t)
}

func TestHTTPHandler_Login(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	mocks.auth.On("Login", mock.Anything, "admin", "secret").Return("signed.token.value", nil).Once()
	mocks.auth.On("Login", mock.Anything, "admin", "wrong").Return("", auth.ErrInvalidCredentials).Once()

	res := doRequest(t, http.MethodPost, server.URL+"/api/auth/login", "", "application/json",
		bytes.NewBufferString(`{"username":"admin","password":"secret"}`))
	require.Equal(t, http.StatusOK, res.StatusCode)
	var got LoginResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "signed.token.value", got.Token)

	res = doRequest(t, http.MethodPost, server.URL+"/api/auth/login", "", "application/json",
		bytes.NewBufferString(`{"username":"admin","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = doRequest(t, http.MethodPost, server.URL+"/api/auth/login", "", "application/json",
		bytes.NewBufferString(`{"username":"admin"}`))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	mocks.assertExpectations(t)
}

func TestHTTPHandler_LoginRateLimit(t *testing.T) {
	authSvc := new(MockAuthService)
	authSvc.On("Login", mock.Anything, "admin", "wrong").Return("", auth.ErrInvalidCredentials)

	h := NewHTTPHandler(Services{Auth: authSvc}, Options{LoginRateLimit: 2}, testLogger)
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"admin","password":"wrong"}`))
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, statuses)
}

func TestHTTPHandler_GetCatalog(t *testing.T) {
	sections := []domain.CatalogSection{
		{Category: "Home", Products: []domain.Product{{ID: "p1", Name: "Lamp", Category: "Home"}}},
	}
	h := NewHTTPHandler(Services{Catalog: testCatalog{sections: sections}}, Options{}, testLogger)
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.CatalogSection
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, sections, got)

	h = NewHTTPHandler(Services{Catalog: testCatalog{err: errors.New("db down")}}, Options{}, testLogger)
	router = chi.NewRouter()
	h.RegisterRoutes(router)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHTTPHandler_HealthAndRoot(t *testing.T) {
	pinger := new(MockPinger)
	pinger.On("Ping", mock.Anything).Return(errors.New("no reachable servers")).Once()

	readCache := cache.NewMemory(time.Minute)
	require.NoError(t, readCache.Set(context.Background(), cache.CategoriesAllKey, []string{"Home"}))
	var dest []string
	_, err := readCache.Get(context.Background(), cache.CategoriesAllKey, &dest)
	require.NoError(t, err)
	_, err = readCache.Get(context.Background(), cache.ProductsAllKey, &dest)
	require.NoError(t, err)

	h := NewHTTPHandler(Services{Health: pinger, Cache: readCache}, Options{ServiceName: "StorefrontService"}, testLogger)
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, "unhealthy", health["database"])
	assert.Equal(t, "StorefrontService", health["serviceName"])
	stats, ok := health["cache"].(map[string]interface{})
	require.True(t, ok, "health payload carries cache stats")
	assert.Equal(t, float64(1), stats["hits"])
	assert.Equal(t, float64(1), stats["misses"])
	assert.Equal(t, float64(1), stats["sets"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "API is running...", string(body))
	pinger.AssertExpectations(t)
}

func TestHTTPHandler_CORSPreflight(t *testing.T) {
	h := NewHTTPHandler(Services{}, Options{AllowedOrigins: []string{"https://shop.example.com"}}, testLogger)
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", AuthHeader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), http.CanonicalHeaderKey(AuthHeader))
}

func TestHealthReporter(t *testing.T) {
	pinger := new(MockPinger)
	pinger.On("Ping", mock.Anything).Return(nil).Once()
	pinger.On("Ping", mock.Anything).Return(errors.New("down")).Once()

	hr := NewHealthReporter(pinger, "storefront", 0, testLogger)
	ctx := context.Background()

	assert.Equal(t, "SERVING", hr.Check(ctx).String())
	assert.Equal(t, "NOT_SERVING", hr.Check(ctx).String())
	pinger.AssertExpectations(t)
}
