package transport

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"product-catalog/internal/domain"
	"product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	filePartName = "file"
	// maxFieldBytes bounds every non-file multipart field
	maxFieldBytes = 64 << 10
)

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler. maxUploadBytes caps the
// whole multipart body of upload requests.
func NewProductHandler(productService service.ProductService, maxUploadBytes int64, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type route struct {
	method  string
	pattern string
	handle  http.HandlerFunc
	upload  bool
}

func (h *ProductHandler) routes() []route {
	return []route{
		{http.MethodGet, "/products", h.List, false},
		{http.MethodPost, "/products", h.Create, false},
		{http.MethodPost, "/products/create-with-photo", h.CreateWithPhoto, true},
		{http.MethodPost, "/products/upload/{id}", h.UploadPhoto, true},
		{http.MethodGet, "/products/{id}", h.Get, false},
		{http.MethodPut, "/products/{id}", h.Update, false},
		{http.MethodDelete, "/products/{id}", h.Delete, false},
	}
}

// RegisterRoutes mounts every product route under prefix, or on r itself when
// prefix is empty. uploadLimiter, when non-nil, wraps the multipart upload
// routes only.
func (h *ProductHandler) RegisterRoutes(r chi.Router, prefix string, uploadLimiter func(http.Handler) http.Handler) {
	mount := func(r chi.Router) {
		for _, rt := range h.routes() {
			var handler http.Handler = rt.handle
			if rt.upload && uploadLimiter != nil {
				handler = uploadLimiter(handler)
			}
			r.Method(rt.method, rt.pattern, handler)
		}
	}

	if prefix == "" {
		mount(r)
		return
	}
	r.Route(prefix, mount)
}

// List handles GET /products. The whole collection is read before anything
// is written so a store failure never leaves a partial 200 body.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := repository.Collect(h.productService.List(r.Context()))
	if err != nil {
		h.respondError(w, r, "List products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get handles GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Get product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if err := middleware.DecodeJSON(r, &input); err != nil {
		h.respondError(w, r, "Create product", &service.InvalidInputError{Err: err})
		return
	}

	product, err := h.productService.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, r, "Create product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if err := middleware.DecodeJSON(r, &input); err != nil {
		h.respondError(w, r, "Update product", &service.InvalidInputError{Err: err})
		return
	}

	product, err := h.productService.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.respondError(w, r, "Update product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.productService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, "Delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto handles POST /products/upload/{id}. The file part is streamed
// straight to storage.
func (h *ProductHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	parts, err := h.multipartReader(w, r)
	if err != nil {
		h.respondError(w, r, "Upload photo", err)
		return
	}

	for {
		part, err := parts.NextPart()
		if err == io.EOF {
			h.respondError(w, r, "Upload photo", missingFilePart())
			return
		}
		if err != nil {
			h.respondError(w, r, "Upload photo", invalidMultipart(err))
			return
		}
		if part.FormName() != filePartName {
			part.Close()
			continue
		}

		h.uploadPart(w, r, part, func(filename string) (*domain.Product, error) {
			return h.productService.AttachPhoto(r.Context(), chi.URLParam(r, "id"), part, filename)
		}, http.StatusOK)
		return
	}
}

// CreateWithPhoto handles POST /products/create-with-photo. Product fields
// must precede the file part so the file can be streamed without buffering.
func (h *ProductHandler) CreateWithPhoto(w http.ResponseWriter, r *http.Request) {
	parts, err := h.multipartReader(w, r)
	if err != nil {
		h.respondError(w, r, "Create product with photo", err)
		return
	}

	var input domain.ProductInput
	for {
		part, err := parts.NextPart()
		if err == io.EOF {
			h.respondError(w, r, "Create product with photo", missingFilePart())
			return
		}
		if err != nil {
			h.respondError(w, r, "Create product with photo", invalidMultipart(err))
			return
		}

		if part.FormName() == filePartName {
			h.uploadPart(w, r, part, func(filename string) (*domain.Product, error) {
				return h.productService.CreateWithPhoto(r.Context(), input, part, filename)
			}, http.StatusCreated)
			return
		}

		if err := readProductField(part, &input); err != nil {
			part.Close()
			h.respondError(w, r, "Create product with photo", err)
			return
		}
		part.Close()
	}
}

func (h *ProductHandler) uploadPart(w http.ResponseWriter, r *http.Request, part *multipart.Part, call func(filename string) (*domain.Product, error), status int) {
	defer part.Close()

	filename := part.FileName()
	if filename == "" {
		h.respondError(w, r, "Upload photo", &service.InvalidInputError{Err: errors.New("file part has no filename")})
		return
	}

	product, err := call(filename)
	if err != nil {
		h.respondError(w, r, "Upload photo", err)
		return
	}
	middleware.RespondWithJSON(w, status, product)
}

func (h *ProductHandler) multipartReader(w http.ResponseWriter, r *http.Request) (*multipart.Reader, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	parts, err := r.MultipartReader()
	if err != nil {
		return nil, &service.InvalidInputError{Err: fmt.Errorf("expected multipart/form-data body: %w", err)}
	}
	return parts, nil
}

// readProductField copies one form field into input. Unknown fields are ignored.
func readProductField(part *multipart.Part, input *domain.ProductInput) error {
	name := part.FormName()
	switch name {
	case "name", "price", "category", "category.name", "category.id":
	default:
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
	if err != nil {
		return invalidMultipart(err)
	}
	if len(raw) > maxFieldBytes {
		return &service.InvalidInputError{Err: fmt.Errorf("field %s is too long", name)}
	}
	value := strings.TrimSpace(string(raw))

	switch name {
	case "name":
		input.Name = value
	case "price":
		price, err := decimal.NewFromString(value)
		if err != nil {
			return &service.InvalidInputError{Err: fmt.Errorf("price %q is not a decimal number", value)}
		}
		input.Price = &price
	case "category", "category.name":
		input.Category.Name = value
	case "category.id":
		input.Category.ID = value
	}
	return nil
}

func missingFilePart() error {
	return &service.InvalidInputError{Err: errors.New(`multipart body has no "file" part`)}
}

func invalidMultipart(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return &service.InvalidInputError{Err: fmt.Errorf("malformed multipart body: %w", err)}
}

// respondError maps a service outcome onto exactly one status code
func (h *ProductHandler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := chimiddleware.GetReqID(r.Context())

	var (
		invalid  *service.InvalidInputError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.Is(err, repository.ErrProductNotFound), errors.Is(err, repository.ErrCategoryNotFound):
		h.logger.Warn(op+" not found",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondNotFound(w)

	case errors.As(err, &tooLarge):
		h.logger.Debug(op+" rejected oversized body", zap.String("request_id", requestID))
		middleware.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))

	case errors.As(err, &invalid):
		h.logger.Debug(op+" validation failed", zap.String("request_id", requestID), zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, invalid.Err.Error())

	default:
		h.logger.Error(op+" failed",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
