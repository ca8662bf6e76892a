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

type CartRepo struct{ c collection[model.CartItem] }

func NewCartRepo(db *mongo.Database) *CartRepo {
	return &CartRepo{c: newCollection[model.CartItem](db, database.CartItems, ErrCartItemNotFound)}
}

func (r *CartRepo) Create(ctx context.Context, it *model.CartItem) error {
	it.ID = primitive.NewObjectID()
	it.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, it)
}

func (r *CartRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.CartItem, error) {
	return r.c.findByID(ctx, id)
}

// List returns the entries of user, or every entry when user is nil.
func (r *CartRepo) List(ctx context.Context, user *primitive.ObjectID) ([]model.CartItem, error) {
	filter := bson.M{}
	if user != nil {
		filter["user"] = *user
	}
	return r.c.findAll(ctx, filter)
}

func (r *CartRepo) SetQuantity(ctx context.Context, id primitive.ObjectID, qty int) (*model.CartItem, error) {
	return r.c.update(ctx, id, bson.M{"quantity": qty})
}

func (r *CartRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.c.delete(ctx, id)
	return err
}
