// Package repository defines the store accessors used by the product
// service. Concrete document-store backends live in the mongodb, surreal
// and postgres subpackages.
package repository

import (
	"context"
	"errors"
	"iter"

	"product-catalog/internal/domain"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	// FindByID returns ErrCategoryNotFound when no category has the id.
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	// FindByName is a case-sensitive exact match. Returns ErrCategoryNotFound when absent.
	FindByName(ctx context.Context, name string) (*domain.Category, error)
	FindAll(ctx context.Context) ([]*domain.Category, error)
	// Save inserts the category and assigns its ID. Used by seeding only.
	Save(ctx context.Context, category *domain.Category) (*domain.Category, error)
}

// ProductRepository defines the interface for product document access
type ProductRepository interface {
	// FindAll lazily yields every stored product in store-native order.
	// Each range over the returned sequence runs a fresh query.
	FindAll(ctx context.Context) iter.Seq2[*domain.Product, error]
	// FindByID returns ErrProductNotFound when no product has the id.
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	// Save inserts the product when ID is empty, assigning a store-generated
	// ID, and replaces the whole document keyed by ID otherwise.
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// DeleteByID returns ErrProductNotFound when nothing was deleted.
	DeleteByID(ctx context.Context, id string) error
}

// Collect drains a product sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[*domain.Product, error]) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for product, err := range seq {
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}
