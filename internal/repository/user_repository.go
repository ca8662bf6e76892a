package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dhaqane/shop-backend/internal/database"
	"github.com/dhaqane/shop-backend/internal/model"
)

type UserRepo struct{ c collection[model.User] }

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{c: newCollection[model.User](db, database.Users, ErrUserNotFound)}
}

// NormalizeEmail lower-cases and trims an address before it is stored or
// looked up.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u, assigning its id and creation time.  A taken email
// yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.ID = primitive.NewObjectID()
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, u)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.c.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.c.findByID(ctx, id)
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	return r.c.findAll(ctx, nil)
}

// ByIDs returns the users with the given ids keyed by id.  Missing ids are
// simply absent from the map.
func (r *UserRepo) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.User, error) {
	users, err := r.c.findByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]model.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, id primitive.ObjectID, p model.UserPatch) (*model.User, error) {
	return r.c.update(ctx, id, p.Set())
}

func (r *UserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.c.delete(ctx, id)
	return err
}

// SetOTP stores a fresh passcode and its expiry.
func (r *UserRepo) SetOTP(ctx context.Context, id primitive.ObjectID, code string, exp time.Time) error {
	_, err := r.c.update(ctx, id, bson.M{"otp": code, "otpExpiresAt": exp})
	return err
}

// MarkVerified flags the account verified and clears the passcode.
func (r *UserRepo) MarkVerified(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.clearOTP(ctx, id, bson.M{"isVerified": true})
}

// ResetPassword replaces the password hash and clears the passcode.
func (r *UserRepo) ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := r.clearOTP(ctx, id, bson.M{"password": hash})
	return err
}

func (r *UserRepo) clearOTP(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.User, error) {
	res := r.c.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set, "$unset": bson.M{"otp": "", "otpExpiresAt": ""}},
		afterUpdate(),
	)
	var u model.User
	if err := res.Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
