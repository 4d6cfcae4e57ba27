// Package surreal implements the catalog store accessors on SurrealDB
// tables using the generic record API and parameterised SurrealQL.
package surreal

import (
	"context"
	"fmt"
	"iter"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/shopspring/decimal"
	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

const (
	productsTable   = "products"
	categoriesTable = "categories"
)

type productRecord struct {
	ID        *models.RecordID      `json:"id,omitempty"`
	Name      string                `json:"name"`
	Price     string                `json:"price"`
	CreatedAt models.CustomDateTime `json:"createdAt"`
	Category  categorySnapshot      `json:"category"`
	Photo     string                `json:"photo,omitempty"`
}

// categorySnapshot keeps the embedded category id as a plain string so the
// snapshot never turns into a record link resolved at read time.
type categorySnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productRepository struct {
	db *surrealdb.DB
}

// NewProductRepository creates a ProductRepository over the products table
func NewProductRepository(db *surrealdb.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindAll(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return func(yield func(*domain.Product, error) bool) {
		records, err := queryAll[productRecord](ctx, r.db,
			"SELECT * FROM type::table($table)",
			map[string]any{"table": productsTable},
		)
		if err != nil {
			yield(nil, fmt.Errorf("failed to list products: %w", err))
			return
		}

		for _, record := range records {
			product, err := record.toDomain()
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(product, nil) {
				return
			}
		}
	}
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, repository.ErrProductNotFound
	}

	record, err := selectRecord[productRecord](ctx, r.db, models.NewRecordID(productsTable, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if record == nil || record.ID == nil {
		return nil, repository.ErrProductNotFound
	}
	return record.toDomain()
}

func (r *productRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	records, err := queryAll[productRecord](ctx, r.db,
		"SELECT * FROM type::table($table) WHERE name = $name LIMIT 1",
		map[string]any{"table": productsTable, "name": name},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}
	if len(records) == 0 {
		return nil, repository.ErrProductNotFound
	}
	return records[0].toDomain()
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	content := newProductRecord(product)

	var (
		stored *productRecord
		err    error
	)
	if product.ID == "" {
		stored, err = surrealdb.Create[productRecord](ctx, r.db, models.Table(productsTable), content)
	} else {
		stored, err = surrealdb.Upsert[productRecord](ctx, r.db, models.NewRecordID(productsTable, product.ID), content)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	if stored == nil || stored.ID == nil {
		return nil, fmt.Errorf("failed to save product: store returned no record")
	}

	saved := *product
	saved.ID = recordKey(stored.ID)
	return &saved, nil
}

func (r *productRepository) DeleteByID(ctx context.Context, id string) error {
	if id == "" {
		return repository.ErrProductNotFound
	}

	deleted, err := deleteRecord[productRecord](ctx, r.db, models.NewRecordID(productsTable, id))
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if deleted == nil || deleted.ID == nil {
		return repository.ErrProductNotFound
	}
	return nil
}

func newProductRecord(product *domain.Product) productRecord {
	return productRecord{
		Name:      product.Name,
		Price:     product.Price.String(),
		CreatedAt: models.CustomDateTime{Time: product.CreatedAt},
		Category:  categorySnapshot{ID: product.Category.ID, Name: product.Category.Name},
		Photo:     product.Photo,
	}
}

func (rec productRecord) toDomain() (*domain.Product, error) {
	id := recordKey(rec.ID)
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to decode price of product %s: %w", id, err)
	}

	return &domain.Product{
		ID:        id,
		Name:      rec.Name,
		Price:     price,
		CreatedAt: rec.CreatedAt.Time,
		Category:  domain.Category{ID: rec.Category.ID, Name: rec.Category.Name},
		Photo:     rec.Photo,
	}, nil
}

// recordKey strips the table part of a record id, leaving the opaque key
// clients use in URLs.
func recordKey(rid *models.RecordID) string {
	if rid == nil {
		return ""
	}
	return fmt.Sprint(rid.ID)
}

