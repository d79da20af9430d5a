package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/domain"
	"storefront-service/internal/media"
	"storefront-service/internal/service"
)

// imagesField is the multipart field holding uploaded product images.
const imagesField = "images"

// ProductCreateInput defines the expected input for creating a product.
// It is read from multipart form fields or from a JSON body.
type ProductCreateInput struct {
	Name          string                `form:"name" json:"name" validate:"required,max=255"`
	SellingPrice  *float64              `form:"sellingPrice" json:"sellingPrice" validate:"required,gte=0"`
	OriginalPrice *float64              `form:"originalPrice" json:"originalPrice" validate:"required,gte=0"`
	Description   string                `form:"description" json:"description" validate:"required"`
	Category      string                `form:"category" json:"category" validate:"omitempty,max=255"`
	Images        []domain.ProductImage `form:"-" json:"images" validate:"omitempty,dive"`
}

// ProductUpdateInput defines the expected input for updating a product.
// Absent fields are left unchanged.
type ProductUpdateInput struct {
	Name          *string               `form:"name" json:"name" validate:"omitempty,min=1,max=255"`
	SellingPrice  *float64              `form:"sellingPrice" json:"sellingPrice" validate:"omitempty,gte=0"`
	OriginalPrice *float64              `form:"originalPrice" json:"originalPrice" validate:"omitempty,gte=0"`
	Description   *string               `form:"description" json:"description"`
	Category      *string               `form:"category" json:"category" validate:"omitempty,max=255"`
	Images        []domain.ProductImage `form:"-" json:"images" validate:"omitempty,dive"`
}

// readProductRequest decodes a multipart or JSON product body into dst and
// returns any uploaded image files.
func (h *HTTPHandler) readProductRequest(w http.ResponseWriter, r *http.Request, dst interface{}) ([]media.File, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return nil, h.decodeJSON(w, r, dst)
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid multipart payload: "+err.Error())
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	if err := h.formDecoder.Decode(dst, url.Values(r.MultipartForm.Value)); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid form fields: "+err.Error())
		return nil, false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return nil, false
	}

	headers := r.MultipartForm.File[imagesField]
	if len(headers) > h.opts.MaxImages {
		h.respondWithError(w, http.StatusBadRequest, service.ErrTooManyImages.Error())
		return nil, false
	}

	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read %s: %v", fh.Filename, err))
			return nil, false
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read %s: %v", fh.Filename, err))
			return nil, false
		}
		files = append(files, media.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, true
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.respondWithServiceError(w, "retrieve products", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	h.respondWithJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.Products.Get(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.respondWithServiceError(w, "retrieve product", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductCreateInput
	files, ok := h.readProductRequest(w, r, &input)
	if !ok {
		return
	}

	created, err := h.svc.Products.Create(r.Context(), service.ProductInput{
		Name:          input.Name,
		SellingPrice:  *input.SellingPrice,
		OriginalPrice: *input.OriginalPrice,
		Description:   input.Description,
		Category:      input.Category,
		Images:        input.Images,
	}, files)
	if err != nil {
		h.respondWithServiceError(w, "create product", err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductUpdateInput
	files, ok := h.readProductRequest(w, r, &input)
	if !ok {
		return
	}

	updated, err := h.svc.Products.Update(r.Context(), chi.URLParam(r, "productId"), domain.ProductUpdate{
		Name:          input.Name,
		SellingPrice:  input.SellingPrice,
		OriginalPrice: input.OriginalPrice,
		Description:   input.Description,
		Category:      input.Category,
		Images:        input.Images,
	}, files)
	if err != nil {
		h.respondWithServiceError(w, "update product", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")
	deleted, err := h.svc.Products.Delete(r.Context(), id)
	if err != nil {
		h.respondWithServiceError(w, "delete product", err)
		return
	}
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		h.logger.Printf("INFO: Product %s deleted by %s", id, claims.ID)
	}
	h.respondWithJSON(w, http.StatusOK, deleted)
}
