package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dhaqane/shop-backend/internal/database"
	"github.com/dhaqane/shop-backend/internal/model"
)

// CategoryRepo encapsulates the categories collection.  Names are unique;
// a clash surfaces as ErrDuplicate.
type CategoryRepo struct{ c collection[model.Category] }

func NewCategoryRepo(db *mongo.Database) *CategoryRepo {
	return &CategoryRepo{c: newCollection[model.Category](db, database.Categories, ErrCategoryNotFound)}
}

func (r *CategoryRepo) Create(ctx context.Context, cat *model.Category) error {
	cat.ID = primitive.NewObjectID()
	cat.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, cat)
}

// GetByID returns ErrCategoryNotFound when no category has the id.
func (r *CategoryRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error) {
	return r.c.findByID(ctx, id)
}

// Exists reports whether a category with the id is stored.
func (r *CategoryRepo) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.c.exists(ctx, id)
}

func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	return r.c.findAll(ctx, nil)
}

func (r *CategoryRepo) Update(ctx context.Context, id primitive.ObjectID, p model.CategoryPatch) (*model.Category, error) {
	return r.c.update(ctx, id, p.Set())
}

// Delete removes the category.  Products referencing it are left alone.
func (r *CategoryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.c.delete(ctx, id)
	return err
}
