// Package cache provides a Redis read-through cache for category lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idKeyPrefix   = "category:id:"
	nameKeyPrefix = "category:name:"
)

type cachedCategoryRepository struct {
	next   repository.CategoryRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCategoryCache wraps a CategoryRepository with a Redis read-through cache.
// Redis errors never fail a lookup; the underlying store answers instead.
func NewCategoryCache(next repository.CategoryRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) repository.CategoryRepository {
	return &cachedCategoryRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *cachedCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	return c.lookup(ctx, idKeyPrefix+id, func() (*domain.Category, error) {
		return c.next.FindByID(ctx, id)
	})
}

func (c *cachedCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	return c.lookup(ctx, nameKeyPrefix+name, func() (*domain.Category, error) {
		return c.next.FindByName(ctx, name)
	})
}

// FindAll is not cached
func (c *cachedCategoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	return c.next.FindAll(ctx)
}

func (c *cachedCategoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	saved, err := c.next.Save(ctx, category)
	if err != nil {
		return nil, err
	}
	c.store(ctx, saved)
	return saved, nil
}

func (c *cachedCategoryRepository) lookup(ctx context.Context, key string, load func() (*domain.Category, error)) (*domain.Category, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var category domain.Category
		if err := json.Unmarshal(raw, &category); err == nil {
			return &category, nil
		}
		c.logger.Warn("Discarding corrupt category cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Category cache read failed", zap.String("key", key), zap.Error(err))
	}

	category, err := load()
	if err != nil {
		return nil, err
	}
	c.store(ctx, category)
	return category, nil
}

func (c *cachedCategoryRepository) store(ctx context.Context, category *domain.Category) {
	raw, err := json.Marshal(category)
	if err != nil {
		return
	}

	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, idKeyPrefix+category.ID, raw, c.ttl)
		pipe.Set(ctx, nameKeyPrefix+category.Name, raw, c.ttl)
		return nil
	})
	if err != nil {
		c.logger.Warn("Category cache write failed",
			zap.String("category_id", category.ID),
			zap.Error(err),
		)
	}
}
