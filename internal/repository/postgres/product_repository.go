// Package postgres stores catalog documents as JSONB rows in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// productDocument is the JSONB payload of a products row. The row id lives
// in its own column so it is never duplicated inside the document.
type productDocument struct {
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	CreatedAt time.Time        `json:"createdAt"`
	Category  categorySnapshot `json:"category"`
	Photo     string           `json:"photo,omitempty"`
}

type categorySnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

// FindAll streams products row by row from a single query per iteration
func (r *productRepository) FindAll(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return func(yield func(*domain.Product, error) bool) {
		rows, err := r.db.QueryContext(ctx, `SELECT id, doc FROM products`)
		if err != nil {
			yield(nil, fmt.Errorf("failed to list products: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			product, err := scanProduct(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(product, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("error iterating products: %w", err))
		}
	}
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrProductNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT id, doc FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// FindByName retrieves the first product whose document name matches exactly
func (r *productRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, doc FROM products WHERE doc->>'name' = $1 LIMIT 1`, name)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// Save inserts a new document or replaces an existing one in a single statement
func (r *productRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	doc, err := json.Marshal(toDocument(product))
	if err != nil {
		return nil, fmt.Errorf("failed to encode product document: %w", err)
	}

	saved := *product
	if product.ID == "" {
		err = r.db.QueryRowContext(ctx,
			`INSERT INTO products (doc, created_at) VALUES ($1, $2) RETURNING id`,
			doc, product.CreatedAt,
		).Scan(&saved.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
		return &saved, nil
	}

	if _, err := uuid.Parse(product.ID); err != nil {
		return nil, fmt.Errorf("failed to save product: invalid id %q", product.ID)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (id, doc, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc
	`, product.ID, doc, product.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return &saved, nil
}

// DeleteByID removes a product row
func (r *productRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrProductNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrProductNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		id  string
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	var doc productDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}

	return &domain.Product{
		ID:        id,
		Name:      doc.Name,
		Price:     doc.Price,
		CreatedAt: doc.CreatedAt,
		Category:  domain.Category{ID: doc.Category.ID, Name: doc.Category.Name},
		Photo:     doc.Photo,
	}, nil
}

func toDocument(product *domain.Product) productDocument {
	return productDocument{
		Name:      product.Name,
		Price:     product.Price,
		CreatedAt: product.CreatedAt.UTC(),
		Category:  categorySnapshot{ID: product.Category.ID, Name: product.Category.Name},
		Photo:     product.Photo,
	}
}
