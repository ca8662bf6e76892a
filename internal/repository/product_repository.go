package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dhaqane/shop-backend/internal/database"
	"github.com/dhaqane/shop-backend/internal/model"
)

type ProductRepo struct{ c collection[model.Product] }

func NewProductRepo(db *mongo.Database) *ProductRepo {
	return &ProductRepo{c: newCollection[model.Product](db, database.Products, ErrProductNotFound)}
}

// Create inserts p.  The caller checks the category reference first.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	if p.Images == nil {
		p.Images = []string{}
	}
	return r.c.insert(ctx, p)
}

// GetByID returns ErrProductNotFound when no product has the id.
func (r *ProductRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	return r.c.findByID(ctx, id)
}

// List returns every product, or only those in category when it is set.
func (r *ProductRepo) List(ctx context.Context, category *primitive.ObjectID) ([]model.Product, error) {
	filter := bson.M{}
	if category != nil {
		filter["category"] = *category
	}
	return r.c.findAll(ctx, filter)
}

func (r *ProductRepo) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Product, error) {
	products, err := r.c.findByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]model.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepo) Update(ctx context.Context, id primitive.ObjectID, p model.ProductPatch) (*model.Product, error) {
	return r.c.update(ctx, id, p.Set())
}

func (r *ProductRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.c.delete(ctx, id)
	return err
}
