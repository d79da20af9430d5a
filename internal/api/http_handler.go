package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/auth"
	"storefront-service/internal/cache"
	"storefront-service/internal/domain"
	"storefront-service/internal/media"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
)

// Service contracts consumed by the handlers.
type (
	ProductService interface {
		List(ctx context.Context, category string) ([]domain.Product, error)
		Get(ctx context.Context, id string) (*domain.Product, error)
		Create(ctx context.Context, in service.ProductInput, files []media.File) (*domain.Product, error)
		Update(ctx context.Context, id string, update domain.ProductUpdate, files []media.File) (*domain.Product, error)
		Delete(ctx context.Context, id string) (*domain.Product, error)
	}

	CategoryService interface {
		List(ctx context.Context) ([]domain.Category, error)
		Sync(ctx context.Context) ([]domain.Category, error)
		Reorder(ctx context.Context, order []domain.CategoryOrder) ([]domain.Category, error)
	}

	OrderService interface {
		Create(ctx context.Context, in service.OrderInput) (*domain.Order, error)
		List(ctx context.Context) ([]domain.OrderView, error)
		UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.OrderView, error)
		Delete(ctx context.Context, id string) error
	}

	CatalogService interface {
		Catalog(ctx context.Context) ([]domain.CatalogSection, error)
	}

	AuthService interface {
		Login(ctx context.Context, username, password string) (string, error)
	}

	TokenVerifier interface {
		Verify(token string) (*auth.Claims, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	CacheStatter interface {
		Stats() cache.StatsSnapshot
	}
)

// Services bundles the handler dependencies.
type Services struct {
	Products   ProductService
	Categories CategoryService
	Orders     OrderService
	Catalog    CatalogService
	Auth       AuthService
	Tokens     TokenVerifier
	Health     Pinger
	Cache      CacheStatter
}

// Options tunes the HTTP surface.
type Options struct {
	ServiceName    string
	MaxUploadBytes int64
	MaxImages      int // Files accepted per product request; capped at domain.MaxProductImages.
	AllowedOrigins []string
	LoginRateLimit int // Attempts per IP per minute; zero disables throttling.
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	svc         Services
	opts        Options
	logger      *log.Logger
	validate    *validator.Validate
	formDecoder *form.Decoder
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(svc Services, opts Options, logger *log.Logger) *HTTPHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	if opts.MaxImages <= 0 || opts.MaxImages > domain.MaxProductImages {
		opts.MaxImages = domain.MaxProductImages
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &HTTPHandler{
		svc:         svc,
		opts:        opts,
		logger:      logger,
		validate:    validator.New(),
		formDecoder: form.NewDecoder(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is returned by operations without a resource to echo back.
type MessageResponse struct {
	Message string `json:"message"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

// respondWithServiceError maps service and store errors onto HTTP statuses.
// Unexpected errors are logged and hidden behind a generic message.
func (h *HTTPHandler) respondWithServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		h.respondWithError(w, http.StatusBadRequest, "Invalid ID format")
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, media.ErrUnsupportedFormat),
		errors.Is(err, media.ErrFileTooLarge),
		errors.Is(err, media.ErrEmptyFile):
		h.respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrProductNotFound):
		h.respondWithError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, store.ErrOrderNotFound):
		h.respondWithError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, store.ErrCategoryNotFound):
		h.respondWithError(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
	default:
		h.logger.Printf("ERROR: %s failed: %v", op, err)
		h.respondWithError(w, http.StatusInternalServerError, "Failed to "+op)
	}
}

func (h *HTTPHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// --- Category Handlers ---

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories.List(r.Context())
	if err != nil {
		h.respondWithServiceError(w, "retrieve categories", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, categories)
}

func (h *HTTPHandler) SyncCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories.Sync(r.Context())
	if err != nil {
		h.respondWithServiceError(w, "sync categories", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, categories)
}

// CategoryOrderInput is one entry of a reorder request.
type CategoryOrderInput struct {
	ID         string `json:"id" validate:"required"`
	OrderIndex *int   `json:"orderIndex" validate:"required,gte=0"`
}

// ReorderInput defines the expected input for reordering categories.
type ReorderInput struct {
	Categories []CategoryOrderInput `json:"categories" validate:"required,dive"`
}

func (h *HTTPHandler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	var input ReorderInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	order := make([]domain.CategoryOrder, len(input.Categories))
	for i, c := range input.Categories {
		order[i] = domain.CategoryOrder{ID: c.ID, OrderIndex: *c.OrderIndex}
	}

	categories, err := h.svc.Categories.Reorder(r.Context(), order)
	if err != nil {
		h.respondWithServiceError(w, "reorder categories", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, categories)
}

func (h *HTTPHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	sections, err := h.svc.Catalog.Catalog(r.Context())
	if err != nil {
		h.respondWithServiceError(w, "build catalog", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, sections)
}

// --- Auth Handlers ---

// LoginInput defines the expected input for POST /auth/login.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token string `json:"token"`
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if !h.decodeJSON(w, r, &input) {
		return
	}
	token, err := h.svc.Auth.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		h.respondWithServiceError(w, "log in", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// --- Health ---

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if h.svc.Health != nil {
		if err := h.svc.Health.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
			h.logger.Printf("WARN: Health check store ping failed: %v", err)
		}
	}

	payload := map[string]interface{}{
		"status":      "healthy",
		"serviceName": h.opts.ServiceName,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"database":    dbStatus,
	}
	if h.svc.Cache != nil {
		payload["cache"] = h.svc.Cache.Stats()
	}
	// Always 200; the payload carries the detailed status.
	h.respondWithJSON(w, http.StatusOK, payload)
}

func (h *HTTPHandler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("API is running..."))
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", AuthHeader},
			MaxAge:         300,
		}))

		r.Get("/healthz", h.Health)
		r.Get("/catalog", h.GetCatalog)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{productId}", h.GetProduct)
			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdmin)
				r.Post("/", h.CreateProduct)
				r.Put("/{productId}", h.UpdateProduct)
				r.Delete("/{productId}", h.DeleteProduct)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdmin)
				r.Post("/sync", h.SyncCategories)
				r.Put("/reorder", h.ReorderCategories)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdmin)
				r.Get("/", h.ListOrders)
				r.Put("/{orderId}/status", h.UpdateOrderStatus)
				r.Delete("/{orderId}", h.DeleteOrder)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			if h.opts.LoginRateLimit > 0 {
				r.Use(httprate.LimitByIP(h.opts.LoginRateLimit, time.Minute))
			}
			r.Post("/login", h.Login)
		})
	})
}
