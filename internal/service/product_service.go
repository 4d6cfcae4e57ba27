package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"
	"product-catalog/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// photoNamespace seeds the name-based UUIDs used in photo storage keys
var photoNamespace = uuid.MustParse("6f1c2a4e-8d3b-5e7f-9a10-2b4c6d8e0f12")

// ProductService defines the interface for product business logic
type ProductService interface {
	// List lazily yields every stored product. Ranging twice queries twice.
	List(ctx context.Context) iter.Seq2[*domain.Product, error]
	Get(ctx context.Context, id string) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	Create(ctx context.Context, input domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, input domain.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	AttachPhoto(ctx context.Context, id string, file io.Reader, filename string) (*domain.Product, error)
	// CreateWithPhoto creates the product and then attaches the photo. When
	// the photo step fails the product stays persisted without a photo.
	CreateWithPhoto(ctx context.Context, input domain.ProductInput, file io.Reader, filename string) (*domain.Product, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	files      storage.FileStorage
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	files storage.FileStorage,
	logger *zap.Logger,
) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		files:      files,
		validate:   newValidator(),
		logger:     logger,
	}
}

func (s *productService) List(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return s.products.FindAll(ctx)
}

func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *productService) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	return s.products.FindByName(ctx, name)
}

// Create validates the input, embeds a snapshot of the resolved category and
// persists a new product document
func (s *productService) Create(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:      input.Name,
		Price:     *input.Price,
		CreatedAt: now(),
		Category:  *category,
	}

	saved, err := s.products.Save(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", saved.ID),
		zap.String("category", saved.Category.Name),
	)
	return saved, nil
}

// Update replaces name, price and category of an existing product. The id,
// creation time and photo are carried over from the stored document. An
// unknown id is NotFound whatever the input.
func (s *productService) Update(ctx context.Context, id string, input domain.ProductInput) (*domain.Product, error) {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:        existing.ID,
		Name:      input.Name,
		Price:     *input.Price,
		CreatedAt: existing.CreatedAt,
		Category:  *category,
		Photo:     existing.Photo,
	}

	saved, err := s.products.Save(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return saved, nil
}

// Delete signals ErrProductNotFound for ids that are absent, including ones
// already deleted
func (s *productService) Delete(ctx context.Context, id string) error {
	if err := s.products.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

func (s *productService) AttachPhoto(ctx context.Context, id string, file io.Reader, filename string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, product, file, filename)
}

func (s *productService) CreateWithPhoto(ctx context.Context, input domain.ProductInput, file io.Reader, filename string) (*domain.Product, error) {
	product, err := s.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	withPhoto, err := s.attach(ctx, product, file, filename)
	if err != nil {
		s.logger.Warn("Product persisted without photo",
			zap.String("product_id", product.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("product %s created without photo: %w", product.ID, err)
	}
	return withPhoto, nil
}

func (s *productService) attach(ctx context.Context, product *domain.Product, file io.Reader, filename string) (*domain.Product, error) {
	key := PhotoKey(product.ID, filename)

	ref, err := s.files.Store(ctx, file, key)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo for product %s: %w", product.ID, err)
	}

	updated := *product
	updated.Photo = ref
	saved, err := s.products.Save(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to save photo reference for product %s: %w", product.ID, err)
	}

	s.logger.Info("Photo attached",
		zap.String("product_id", saved.ID),
		zap.String("key", key),
	)
	return saved, nil
}

// resolveCategory looks the category up by exact name, or by id when no name
// was given
func (s *productService) resolveCategory(ctx context.Context, ref domain.CategoryRef) (*domain.Category, error) {
	var (
		category *domain.Category
		err      error
	)
	if ref.Name != "" {
		category, err = s.categories.FindByName(ctx, ref.Name)
	} else {
		category, err = s.categories.FindByID(ctx, ref.ID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}
	return category, nil
}

func (s *productService) validateInput(input domain.ProductInput) error {
	if err := s.validate.Struct(input); err != nil {
		return &InvalidInputError{Err: err}
	}
	return nil
}

// PhotoKey derives the storage key for a product photo. The same product and
// filename always produce the same key, so a retried upload overwrites the
// earlier file instead of leaving a duplicate.
func PhotoKey(productID, filename string) string {
	name := uuid.NewSHA1(photoNamespace, []byte(productID+"/"+filename))
	return productID + "-" + name.String() + photoExt(filename)
}

// photoExt returns the lower-cased extension when it is plain alphanumeric
func photoExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// now is truncated to milliseconds so timestamps survive BSON and JSON round trips
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
