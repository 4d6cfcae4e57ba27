package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Category represents a named product grouping. Categories are seeded
// out-of-band and are read-only for the catalog API.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product represents a product in the catalog.
//
// Category is a snapshot copied at write time. Reads hydrate it from the
// stored document and never re-resolve it against the categories store.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
	Category  Category        `json:"category"`
	Photo     string          `json:"photo,omitempty"`
}

// CategoryRef identifies the category a product should be filed under.
// Name takes precedence; ID is only consulted when Name is empty.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required_without=ID"`
}

// ProductInput carries the client-editable fields of a product. Price is a
// pointer so an omitted or null price is told apart from zero.
type ProductInput struct {
	Name     string           `json:"name" validate:"required"`
	Price    *decimal.Decimal `json:"price" validate:"required,price"`
	Category CategoryRef     `json:"category"`
}
