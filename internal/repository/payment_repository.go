package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dhaqane/shop-backend/internal/database"
	"github.com/dhaqane/shop-backend/internal/model"
)

// PaymentMethodRepo is the payment method registry: admin-managed
// reference data that orders point at.
type PaymentMethodRepo struct{ c collection[model.PaymentMethod] }

func NewPaymentMethodRepo(db *mongo.Database) *PaymentMethodRepo {
	return &PaymentMethodRepo{c: newCollection[model.PaymentMethod](db, database.PaymentMethods, ErrPaymentNotFound)}
}

func (r *PaymentMethodRepo) Create(ctx context.Context, m *model.PaymentMethod) error {
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, m)
}

// GetByID returns ErrPaymentNotFound when no method has the id.
func (r *PaymentMethodRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.PaymentMethod, error) {
	return r.c.findByID(ctx, id)
}

func (r *PaymentMethodRepo) List(ctx context.Context) ([]model.PaymentMethod, error) {
	return r.c.findAll(ctx, nil)
}

func (r *PaymentMethodRepo) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.PaymentMethod, error) {
	methods, err := r.c.findByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]model.PaymentMethod, len(methods))
	for _, m := range methods {
		out[m.ID] = m
	}
	return out, nil
}

func (r *PaymentMethodRepo) Update(ctx context.Context, id primitive.ObjectID, p model.PaymentMethodPatch) (*model.PaymentMethod, error) {
	return r.c.update(ctx, id, p.Set())
}

func (r *PaymentMethodRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.c.delete(ctx, id)
	return err
}
