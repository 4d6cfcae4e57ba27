package cache

import (
	"context"
	"testing"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingCategoryRepository struct {
	categories map[string]*domain.Category
	calls      int
}

func (m *countingCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	m.calls++
	for _, c := range m.categories {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *countingCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	m.calls++
	c, ok := m.categories[name]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *countingCategoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	m.calls++
	out := []*domain.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *countingCategoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	saved := &domain.Category{ID: "cat-" + category.Name, Name: category.Name}
	m.categories[category.Name] = saved
	return saved, nil
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *countingCategoryRepository, repository.CategoryRepository) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	next := &countingCategoryRepository{categories: map[string]*domain.Category{
		"Mobiliario": {ID: "c1", Name: "Mobiliario"},
	}}
	return mr, next, NewCategoryCache(next, client, time.Minute, zap.NewNop())
}

func TestCategoryCache_FindByNameServesRepeatLookupsFromRedis(t *testing.T) {
	_, next, cached := newTestCache(t)
	ctx := context.Background()

	first, err := cached.FindByName(ctx, "Mobiliario")
	require.NoError(t, err)
	second, err := cached.FindByName(ctx, "Mobiliario")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)

	// The id key is populated by the name lookup as well.
	byID, err := cached.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Mobiliario", byID.Name)
	assert.Equal(t, 1, next.calls)
}

func TestCategoryCache_MissesAreNotCached(t *testing.T) {
	mr, next, cached := newTestCache(t)
	ctx := context.Background()

	_, err := cached.FindByName(ctx, "Juguetes")
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
	_, err = cached.FindByName(ctx, "Juguetes")
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)

	assert.Equal(t, 2, next.calls)
	assert.False(t, mr.Exists(nameKeyPrefix+"Juguetes"))
}

func TestCategoryCache_ExpiresWithTTL(t *testing.T) {
	mr, next, cached := newTestCache(t)
	ctx := context.Background()

	_, err := cached.FindByName(ctx, "Mobiliario")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cached.FindByName(ctx, "Mobiliario")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCategoryCache_FallsBackWhenRedisIsDown(t *testing.T) {
	mr, next, cached := newTestCache(t)
	mr.Close()

	category, err := cached.FindByName(context.Background(), "Mobiliario")
	require.NoError(t, err)
	assert.Equal(t, "c1", category.ID)
	assert.Equal(t, 1, next.calls)
}

func TestCategoryCache_SavePrimesCache(t *testing.T) {
	_, next, cached := newTestCache(t)
	ctx := context.Background()

	saved, err := cached.Save(ctx, &domain.Category{Name: "Deporte"})
	require.NoError(t, err)

	found, err := cached.FindByName(ctx, "Deporte")
	require.NoError(t, err)
	assert.Equal(t, saved, found)
	assert.Equal(t, 0, next.calls)
}
