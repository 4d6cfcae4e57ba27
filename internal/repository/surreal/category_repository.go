package surreal

import (
	"context"
	"fmt"
	"sort"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

type categoryRecord struct {
	ID   *models.RecordID `json:"id,omitempty"`
	Name string           `json:"name"`
}

type categoryRepository struct {
	db *surrealdb.DB
}

// NewCategoryRepository creates a CategoryRepository over the categories table
func NewCategoryRepository(db *surrealdb.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	if id == "" {
		return nil, repository.ErrCategoryNotFound
	}

	record, err := selectRecord[categoryRecord](ctx, r.db, models.NewRecordID(categoriesTable, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if record == nil || record.ID == nil {
		return nil, repository.ErrCategoryNotFound
	}
	return record.toDomain(), nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	records, err := queryAll[categoryRecord](ctx, r.db,
		"SELECT * FROM type::table($table) WHERE name = $name LIMIT 1",
		map[string]any{"table": categoriesTable, "name": name},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find category by name: %w", err)
	}
	if len(records) == 0 {
		return nil, repository.ErrCategoryNotFound
	}
	return records[0].toDomain(), nil
}

func (r *categoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	records, err := queryAll[categoryRecord](ctx, r.db,
		"SELECT * FROM type::table($table)",
		map[string]any{"table": categoriesTable},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]*domain.Category, 0, len(records))
	for _, record := range records {
		categories = append(categories, record.toDomain())
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (r *categoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	stored, err := surrealdb.Create[categoryRecord](ctx, r.db, models.Table(categoriesTable), categoryRecord{Name: category.Name})
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	if stored == nil || stored.ID == nil {
		return nil, fmt.Errorf("failed to create category: store returned no record")
	}
	return stored.toDomain(), nil
}

func (rec categoryRecord) toDomain() *domain.Category {
	return &domain.Category{ID: recordKey(rec.ID), Name: rec.Name}
}
