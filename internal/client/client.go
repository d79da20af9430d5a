// Package client talks to the storefront HTTP API. Reads of the product list
// and category registry are cached; transport failures are retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/cache"
	"storefront-service/internal/domain"
	"storefront-service/internal/media"
)

// Cache keys and lifetime for client-side reads.
const (
	ProductsKey   = "products"
	CategoriesKey = "categories"
	DefaultTTL    = 5 * time.Minute
)

const (
	defaultMaxRetries      = 3
	defaultInitialInterval = time.Second
	authHeader             = "x-auth-token"
)

// APIError is returned when the server answers with an error status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront api: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client is a storefront API client. It is safe for concurrent use once built.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	token           string
	cache           cache.Cache
	maxRetries      uint64
	initialInterval time.Duration
	logger          *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token in the x-auth-token header on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithCache replaces the default in-process read cache.
func WithCache(cc cache.Cache) Option {
	return func(c *Client) { c.cache = cc }
}

// WithRetryInterval sets the first retry wait; later waits double.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.initialInterval = d }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the API rooted at baseURL (e.g. http://localhost:5000/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		cache:           cache.NewMemory(DefaultTTL),
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
		logger:          log.New(os.Stderr, "[StorefrontClient] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the admin token, e.g. after Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// newBackOff returns the retry schedule: initial, 2*initial, 4*initial, then stop.
func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = c.initialInterval << c.maxRetries
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
}

type requestBody struct {
	data        []byte
	contentType string
}

func jsonBody(v any) (*requestBody, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("client: encode request: %w", err)
	}
	return &requestBody{data: data, contentType: "application/json"}, nil
}

// do sends the request, retrying transport failures, and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, body *requestBody, out any) error {
	op := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body.data)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("client: build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", body.contentType)
		}
		if c.token != "" {
			req.Header.Set(authHeader, c.token)
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		if res.StatusCode >= http.StatusBadRequest {
			return backoff.Permanent(newAPIError(res.StatusCode, data))
		}
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("client: decode %s %s: %w", method, path, err))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Printf("WARN: %s %s failed, retrying in %s: %v", method, path, wait, err)
	}
	return backoff.RetryNotify(op, c.newBackOff(ctx), notify)
}

func newAPIError(status int, data []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

// cached serves key from the read cache, fetching on a miss or expiry.
func cached[T any](ctx context.Context, c *Client, key string, fetch func(context.Context) (T, error)) (T, error) {
	var v T
	if hit, err := c.cache.Get(ctx, key, &v); err == nil && hit {
		return v, nil
	} else if err != nil {
		c.logger.Printf("WARN: cache get %s failed: %v", key, err)
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	if err := c.cache.Set(ctx, key, v); err != nil {
		c.logger.Printf("WARN: cache set %s failed: %v", key, err)
	}
	return v, nil
}

func (c *Client) invalidate(ctx context.Context) {
	if err := c.cache.Delete(ctx, ProductsKey, CategoriesKey); err != nil {
		c.logger.Printf("WARN: cache invalidation failed: %v", err)
	}
}

// --- Storefront reads ---

// Products returns the full product list.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	return cached(ctx, c, ProductsKey, func(ctx context.Context) ([]domain.Product, error) {
		var products []domain.Product
		err := c.do(ctx, http.MethodGet, "/products", nil, &products)
		return products, err
	})
}

// Product fetches a single product. It bypasses the cache.
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+id, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Categories returns the category registry sorted by orderIndex.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	return cached(ctx, c, CategoriesKey, func(ctx context.Context) ([]domain.Category, error) {
		var categories []domain.Category
		err := c.do(ctx, http.MethodGet, "/categories", nil, &categories)
		return categories, err
	})
}

// Catalog fetches products and categories concurrently and groups them in display order.
func (c *Client) Catalog(ctx context.Context) ([]domain.CatalogSection, error) {
	var (
		products   []domain.Product
		categories []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = c.Products(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = c.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return domain.BuildCatalog(products, categories), nil
}

// --- Checkout and login ---

// OrderRequest is a checkout submission.
type OrderRequest struct {
	Customer    domain.Customer    `json:"customer"`
	Items       []domain.OrderItem `json:"items"`
	TotalAmount float64            `json:"totalAmount"`
}

func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (*domain.Order, error) {
	body, err := jsonBody(order)
	if err != nil {
		return nil, err
	}
	var created domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Login exchanges admin credentials for a token and keeps it for later requests.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := jsonBody(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return "", err
	}
	c.SetToken(res.Token)
	return res.Token, nil
}

// --- Admin operations ---

// ProductFields are the product attributes sent on create and update.
// Nil fields are omitted.
type ProductFields struct {
	Name          *string               `json:"name,omitempty"`
	SellingPrice  *float64              `json:"sellingPrice,omitempty"`
	OriginalPrice *float64              `json:"originalPrice,omitempty"`
	Description   *string               `json:"description,omitempty"`
	Category      *string               `json:"category,omitempty"`
	Images        []domain.ProductImage `json:"images,omitempty"`
}

func (f ProductFields) formValues() map[string]string {
	values := make(map[string]string)
	if f.Name != nil {
		values["name"] = *f.Name
	}
	if f.SellingPrice != nil {
		values["sellingPrice"] = fmt.Sprint(*f.SellingPrice)
	}
	if f.OriginalPrice != nil {
		values["originalPrice"] = fmt.Sprint(*f.OriginalPrice)
	}
	if f.Description != nil {
		values["description"] = *f.Description
	}
	if f.Category != nil {
		values["category"] = *f.Category
	}
	return values
}

// productBody is JSON without files and multipart/form-data with them.
func productBody(fields ProductFields, files []media.File) (*requestBody, error) {
	if len(files) == 0 {
		return jsonBody(fields)
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields.formValues() {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("client: encode form: %w", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile("images", f.Name)
		if err != nil {
			return nil, fmt.Errorf("client: encode form: %w", err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return nil, fmt.Errorf("client: encode form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client: encode form: %w", err)
	}
	return &requestBody{data: buf.Bytes(), contentType: mw.FormDataContentType()}, nil
}

func (c *Client) AddProduct(ctx context.Context, fields ProductFields, files []media.File) (*domain.Product, error) {
	body, err := productBody(fields, files)
	if err != nil {
		return nil, err
	}
	var created domain.Product
	if err := c.do(ctx, http.MethodPost, "/products", body, &created); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, fields ProductFields, files []media.File) (*domain.Product, error) {
	body, err := productBody(fields, files)
	if err != nil {
		return nil, err
	}
	var updated domain.Product
	if err := c.do(ctx, http.MethodPut, "/products/"+id, body, &updated); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	var deleted domain.Product
	if err := c.do(ctx, http.MethodDelete, "/products/"+id, nil, &deleted); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &deleted, nil
}

// Orders lists every order, newest first, with products joined.
func (c *Client) Orders(ctx context.Context) ([]domain.OrderView, error) {
	var orders []domain.OrderView
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.OrderView, error) {
	body, err := jsonBody(map[string]domain.OrderStatus{"status": status})
	if err != nil {
		return nil, err
	}
	var updated domain.OrderView
	if err := c.do(ctx, http.MethodPut, "/orders/"+id+"/status", body, &updated); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &updated, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/orders/"+id, nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *Client) SyncCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.do(ctx, http.MethodPost, "/categories/sync", nil, &categories); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return categories, nil
}

func (c *Client) ReorderCategories(ctx context.Context, order []domain.CategoryOrder) ([]domain.Category, error) {
	body, err := jsonBody(map[string][]domain.CategoryOrder{"categories": order})
	if err != nil {
		return nil, err
	}
	var categories []domain.Category
	if err := c.do(ctx, http.MethodPut, "/categories/reorder", body, &categories); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return categories, nil
}
