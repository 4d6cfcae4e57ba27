// Package seed loads the starter catalogue into an empty store.
package seed

import (
	"context"
	"errors"
	"fmt"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Categories are created before any product refers to them
var Categories = []string{"Electronico", "Deporte", "Computacion", "Mobiliario"}

type product struct {
	name     string
	price    string
	category string
}

var products = []product{
	{"Smart TV Samsung LCD", "456.89", "Electronico"},
	{"Sony SmartPods TV LG LED", "179.89", "Electronico"},
	{"Apple iPod Shuffle", "46.89", "Electronico"},
	{"Sony Notebook Z110", "846.89", "Computacion"},
	{"HP Impresora RecargaContinua", "206.89", "Computacion"},
	{"HP Notebook Omen 17", "2500.89", "Computacion"},
	{"Bianchi Bicicleta Aro 26", "70.89", "Deporte"},
	{"Comoda Mica 5 Cajones", "150.89", "Mobiliario"},
	{"TV Sony Bravia OLED 4K Ultra HD", "2255.89", "Electronico"},
}

// concurrency bounds parallel product inserts
const concurrency = 4

// Run makes sure every starter category and product exists. Lookups by name
// make it safe to call on every start.
func Run(ctx context.Context, categories repository.CategoryRepository, productService service.ProductService, logger *zap.Logger) error {
	for _, name := range Categories {
		if err := ensureCategory(ctx, categories, name, logger); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, p := range products {
		g.Go(func() error {
			return ensureProduct(ctx, productService, p, logger)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	logger.Info("Seed data ready",
		zap.Int("categories", len(Categories)),
		zap.Int("products", len(products)),
	)
	return nil
}

func ensureCategory(ctx context.Context, categories repository.CategoryRepository, name string, logger *zap.Logger) error {
	_, err := categories.FindByName(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		return fmt.Errorf("failed to look up category %s: %w", name, err)
	}

	saved, err := categories.Save(ctx, &domain.Category{Name: name})
	if err != nil {
		return fmt.Errorf("failed to seed category %s: %w", name, err)
	}
	logger.Debug("Seeded category", zap.String("category_id", saved.ID), zap.String("name", name))
	return nil
}

func ensureProduct(ctx context.Context, productService service.ProductService, p product, logger *zap.Logger) error {
	_, err := productService.FindByName(ctx, p.name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrProductNotFound) {
		return fmt.Errorf("failed to look up product %s: %w", p.name, err)
	}

	price := decimal.RequireFromString(p.price)
	_, err = productService.Create(ctx, domain.ProductInput{
		Name:     p.name,
		Price:    &price,
		Category: domain.CategoryRef{Name: p.category},
	})
	if err != nil {
		return fmt.Errorf("failed to seed product %s: %w", p.name, err)
	}
	logger.Debug("Seeded product", zap.String("name", p.name))
	return nil
}
