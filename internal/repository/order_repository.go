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

// OrderRepo persists orders and serves populated reads: the user, payment
// method and line products of each order are resolved with one $in query
// per referenced collection.
type OrderRepo struct {
	c        collection[model.Order]
	users    *UserRepo
	products *ProductRepo
	methods  *PaymentMethodRepo
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		c:        newCollection[model.Order](db, database.Orders, ErrOrderNotFound),
		users:    NewUserRepo(db),
		products: NewProductRepo(db),
		methods:  NewPaymentMethodRepo(db),
	}
}

// Save inserts o as a single document.  An id chosen by the caller is
// kept; otherwise one is assigned.
func (r *OrderRepo) Save(ctx context.Context, o *model.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, o)
}

// FindAll returns every order, newest first, populated.
func (r *OrderRepo) FindAll(ctx context.Context) ([]model.OrderDetail, error) {
	orders, err := r.c.findAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	return r.populate(ctx, orders)
}

// FindByUser returns the orders placed for userID, newest first, populated.
func (r *OrderRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]model.OrderDetail, error) {
	orders, err := r.c.findAll(ctx, bson.M{"user": userID})
	if err != nil {
		return nil, err
	}
	return r.populate(ctx, orders)
}

// FindByID returns one populated order or ErrOrderNotFound.
func (r *OrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.OrderDetail, error) {
	o, err := r.c.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := r.populate(ctx, []model.Order{*o})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Get returns the raw stored order.
func (r *OrderRepo) Get(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	return r.c.findByID(ctx, id)
}

func (r *OrderRepo) Update(ctx context.Context, id primitive.ObjectID, p model.OrderPatch) (*model.Order, error) {
	return r.c.update(ctx, id, p.Set())
}

func (r *OrderRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.c.delete(ctx, id)
	return err
}

// populate resolves references for a batch of orders.  A reference whose
// target has been deleted resolves to nil.
func (r *OrderRepo) populate(ctx context.Context, orders []model.Order) ([]model.OrderDetail, error) {
	out := make([]model.OrderDetail, 0, len(orders))
	if len(orders) == 0 {
		return out, nil
	}

	var userIDs, methodIDs, productIDs idSet
	for _, o := range orders {
		userIDs.add(o.User)
		methodIDs.add(o.Payment)
		for _, l := range o.Products {
			productIDs.add(l.Product)
		}
	}

	users, err := r.users.ByIDs(ctx, userIDs.ids)
	if err != nil {
		return nil, err
	}
	methods, err := r.methods.ByIDs(ctx, methodIDs.ids)
	if err != nil {
		return nil, err
	}
	products, err := r.products.ByIDs(ctx, productIDs.ids)
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		d := model.OrderDetail{
			ID:         o.ID,
			Products:   make([]model.OrderLineDetail, 0, len(o.Products)),
			Total:      o.Total,
			Note:       o.Note,
			Phone:      o.Phone,
			Status:     o.Status,
			PaymentRef: o.PaymentRef,
			CreatedAt:  o.CreatedAt,
		}
		if u, ok := users[o.User]; ok {
			d.User = &u
		}
		if m, ok := methods[o.Payment]; ok {
			d.Payment = &m
		}
		for _, l := range o.Products {
			line := model.OrderLineDetail{Quantity: l.Quantity}
			if p, ok := products[l.Product]; ok {
				line.Product = &p
			}
			d.Products = append(d.Products, line)
		}
		out = append(out, d)
	}
	return out, nil
}

// idSet collects distinct non-zero ids in first-seen order.
type idSet struct {
	ids  []primitive.ObjectID
	seen map[primitive.ObjectID]struct{}
}

func (s *idSet) add(id primitive.ObjectID) {
	if id.IsZero() {
		return
	}
	if s.seen == nil {
		s.seen = map[primitive.ObjectID]struct{}{}
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}
