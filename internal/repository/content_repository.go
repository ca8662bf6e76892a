package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dhaqane/shop-backend/internal/database"
	"github.com/dhaqane/shop-backend/internal/model"
)

// BannerRepo and TitleRepo hold storefront content.  Neither is
// referenced by any other collection.
type BannerRepo struct{ c collection[model.Banner] }

func NewBannerRepo(db *mongo.Database) *BannerRepo {
	return &BannerRepo{c: newCollection[model.Banner](db, database.Banners, ErrBannerNotFound)}
}

func (r *BannerRepo) Create(ctx context.Context, b *model.Banner) error {
	b.ID = primitive.NewObjectID()
	b.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, b)
}

func (r *BannerRepo) List(ctx context.Context) ([]model.Banner, error) {
	return r.c.findAll(ctx, nil)
}

func (r *BannerRepo) Update(ctx context.Context, id primitive.ObjectID, p model.BannerPatch) (*model.Banner, error) {
	return r.c.update(ctx, id, p.Set())
}

func (r *BannerRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.c.delete(ctx, id)
	return err
}

type TitleRepo struct{ c collection[model.Title] }

func NewTitleRepo(db *mongo.Database) *TitleRepo {
	return &TitleRepo{c: newCollection[model.Title](db, database.Titles, ErrTitleNotFound)}
}

func (r *TitleRepo) Create(ctx context.Context, t *model.Title) error {
	t.ID = primitive.NewObjectID()
	t.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, t)
}

func (r *TitleRepo) List(ctx context.Context) ([]model.Title, error) {
	return r.c.findAll(ctx, nil)
}

func (r *TitleRepo) Update(ctx context.Context, id primitive.ObjectID, p model.TitlePatch) (*model.Title, error) {
	return r.c.update(ctx, id, p.Set())
}

func (r *TitleRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.c.delete(ctx, id)
	return err
}
