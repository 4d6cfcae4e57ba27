// Package repositorytest holds the behaviour every store backend must share.
// Backend integration tests call Run against a freshly started database.
package repositorytest

import (
	"context"
	"testing"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises products and categories against an empty store. unknownID
// must be a well-formed id that the store never assigned.
func Run(t *testing.T, products repository.ProductRepository, categories repository.CategoryRepository, unknownID string) {
	ctx := context.Background()

	var mobiliario *domain.Category

	t.Run("category save and lookup", func(t *testing.T) {
		saved, err := categories.Save(ctx, &domain.Category{Name: "Mobiliario"})
		require.NoError(t, err)
		require.NotEmpty(t, saved.ID)
		mobiliario = saved

		byName, err := categories.FindByName(ctx, "Mobiliario")
		require.NoError(t, err)
		assert.Equal(t, saved, byName)

		byID, err := categories.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved, byID)

		_, err = categories.FindByName(ctx, "mobiliario")
		assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
		_, err = categories.FindByID(ctx, unknownID)
		assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
		_, err = categories.FindByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, repository.ErrCategoryNotFound)

		all, err := categories.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
	require.NotNil(t, mobiliario)

	t.Run("product lifecycle", func(t *testing.T) {
		createdAt := time.Now().UTC().Truncate(time.Millisecond)
		inserted, err := products.Save(ctx, &domain.Product{
			Name:      "Mesa comedor",
			Price:     decimal.RequireFromString("605.00"),
			CreatedAt: createdAt,
			Category:  *mobiliario,
		})
		require.NoError(t, err)
		require.NotEmpty(t, inserted.ID)

		found, err := products.FindByID(ctx, inserted.ID)
		require.NoError(t, err)
		assert.Equal(t, inserted.ID, found.ID)
		assert.Equal(t, "Mesa comedor", found.Name)
		assert.True(t, found.Price.Equal(decimal.RequireFromString("605")), "price %s", found.Price)
		assert.True(t, found.CreatedAt.Equal(createdAt), "createdAt %s != %s", found.CreatedAt, createdAt)
		assert.Equal(t, *mobiliario, found.Category)
		assert.Empty(t, found.Photo)

		byName, err := products.FindByName(ctx, "Mesa comedor")
		require.NoError(t, err)
		assert.Equal(t, inserted.ID, byName.ID)

		replaced := *found
		replaced.Name = "Mesa comedor extensible"
		replaced.Price = decimal.RequireFromString("710.50")
		replaced.Photo = "uploads/" + inserted.ID + ".jpg"
		saved, err := products.Save(ctx, &replaced)
		require.NoError(t, err)
		assert.Equal(t, inserted.ID, saved.ID)

		found, err = products.FindByID(ctx, inserted.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mesa comedor extensible", found.Name)
		assert.Equal(t, replaced.Photo, found.Photo)
		assert.True(t, found.CreatedAt.Equal(createdAt))

		require.NoError(t, products.DeleteByID(ctx, inserted.ID))
		_, err = products.FindByID(ctx, inserted.ID)
		assert.ErrorIs(t, err, repository.ErrProductNotFound)
		assert.ErrorIs(t, products.DeleteByID(ctx, inserted.ID), repository.ErrProductNotFound)
	})

	t.Run("missing products", func(t *testing.T) {
		_, err := products.FindByID(ctx, unknownID)
		assert.ErrorIs(t, err, repository.ErrProductNotFound)
		_, err = products.FindByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, repository.ErrProductNotFound)
		_, err = products.FindByName(ctx, "Nada")
		assert.ErrorIs(t, err, repository.ErrProductNotFound)
		assert.ErrorIs(t, products.DeleteByID(ctx, unknownID), repository.ErrProductNotFound)
	})

	t.Run("find all is lazy and restartable", func(t *testing.T) {
		for _, name := range []string{"Silla", "Sofa", "Escritorio"} {
			_, err := products.Save(ctx, &domain.Product{
				Name:      name,
				Price:     decimal.NewFromInt(10),
				CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
				Category:  *mobiliario,
			})
			require.NoError(t, err)
		}

		seq := products.FindAll(ctx)
		first, err := repository.Collect(seq)
		require.NoError(t, err)
		second, err := repository.Collect(seq)
		require.NoError(t, err)

		assert.Len(t, first, 3)
		assert.Len(t, second, 3)
		for _, p := range first {
			assert.NotEmpty(t, p.ID)
			assert.Equal(t, "Mobiliario", p.Category.Name)
		}

		taken := 0
		for _, err := range seq {
			require.NoError(t, err)
			taken++
			break
		}
		assert.Equal(t, 1, taken)
	})
}
