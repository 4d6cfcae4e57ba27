// Package mongodb implements the catalog store accessors on MongoDB
// collections. Products embed their category as a subdocument.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection   = "products"
	categoriesCollection = "categories"
)

type productDocument struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	CreatedAt time.Time            `bson:"createdAt"`
	Category  categoryDocument     `bson:"category"`
	Photo     string               `bson:"photo,omitempty"`
}

type productRepository struct {
	coll *mongo.Collection
}

// NewProductRepository creates a ProductRepository over the products collection
func NewProductRepository(db *mongo.Database) repository.ProductRepository {
	return &productRepository{coll: db.Collection(productsCollection)}
}

func (r *productRepository) FindAll(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return func(yield func(*domain.Product, error) bool) {
		cursor, err := r.coll.Find(ctx, bson.D{})
		if err != nil {
			yield(nil, fmt.Errorf("failed to list products: %w", err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var doc productDocument
			if err := cursor.Decode(&doc); err != nil {
				yield(nil, fmt.Errorf("failed to decode product: %w", err))
				return
			}
			product, err := doc.toDomain()
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(product, nil) {
				return
			}
		}

		if err := cursor.Err(); err != nil {
			yield(nil, fmt.Errorf("error iterating products: %w", err))
		}
	}
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrProductNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *productRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	return r.findOne(ctx, bson.D{{Key: "name", Value: name}})
}

func (r *productRepository) findOne(ctx context.Context, filter bson.D) (*domain.Product, error) {
	var doc productDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return doc.toDomain()
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	doc, err := newProductDocument(product)
	if err != nil {
		return nil, err
	}

	saved := *product
	if product.ID == "" {
		result, err := r.coll.InsertOne(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
		oid, ok := result.InsertedID.(primitive.ObjectID)
		if !ok {
			return nil, fmt.Errorf("failed to create product: unexpected id type %T", result.InsertedID)
		}
		saved.ID = oid.Hex()
		return &saved, nil
	}

	oid, err := primitive.ObjectIDFromHex(product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save product: invalid id %q: %w", product.ID, err)
	}
	doc.ID = oid

	_, err = r.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return &saved, nil
}

func (r *productRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrProductNotFound
	}

	result, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrProductNotFound
	}
	return nil
}

func newProductDocument(product *domain.Product) (productDocument, error) {
	price, err := primitive.ParseDecimal128(product.Price.String())
	if err != nil {
		return productDocument{}, fmt.Errorf("failed to encode price %s: %w", product.Price, err)
	}

	category, err := newCategoryDocument(&product.Category)
	if err != nil {
		return productDocument{}, err
	}

	return productDocument{
		Name:      product.Name,
		Price:     price,
		CreatedAt: product.CreatedAt,
		Category:  category,
		Photo:     product.Photo,
	}, nil
}

func (d productDocument) toDomain() (*domain.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return nil, fmt.Errorf("failed to decode price of product %s: %w", d.ID.Hex(), err)
	}

	return &domain.Product{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Price:     price,
		CreatedAt: d.CreatedAt,
		Category:  d.Category.toDomain(),
		Photo:     d.Photo,
	}, nil
}
