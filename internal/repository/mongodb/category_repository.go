package mongodb

import (
	"context"
	"errors"
	"fmt"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryDocument struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

type categoryRepository struct {
	coll *mongo.Collection
}

// NewCategoryRepository creates a CategoryRepository over the categories collection
func NewCategoryRepository(db *mongo.Database) repository.CategoryRepository {
	return &categoryRepository{coll: db.Collection(categoriesCollection)}
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrCategoryNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	return r.findOne(ctx, bson.D{{Key: "name", Value: name}})
}

func (r *categoryRepository) findOne(ctx context.Context, filter bson.D) (*domain.Category, error) {
	var doc categoryDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	category := doc.toDomain()
	return &category, nil
}

func (r *categoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	categories := make([]*domain.Category, 0, len(docs))
	for _, doc := range docs {
		category := doc.toDomain()
		categories = append(categories, &category)
	}
	return categories, nil
}

func (r *categoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	result, err := r.coll.InsertOne(ctx, categoryDocument{Name: category.Name})
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to create category: unexpected id type %T", result.InsertedID)
	}
	return &domain.Category{ID: oid.Hex(), Name: category.Name}, nil
}

func newCategoryDocument(category *domain.Category) (categoryDocument, error) {
	doc := categoryDocument{Name: category.Name}
	if category.ID == "" {
		return doc, nil
	}
	oid, err := primitive.ObjectIDFromHex(category.ID)
	if err != nil {
		return categoryDocument{}, fmt.Errorf("failed to encode category id %q: %w", category.ID, err)
	}
	doc.ID = oid
	return doc, nil
}

func (d categoryDocument) toDomain() domain.Category {
	category := domain.Category{Name: d.Name}
	if !d.ID.IsZero() {
		category.ID = d.ID.Hex()
	}
	return category
}
