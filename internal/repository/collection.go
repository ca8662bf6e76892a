package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection wraps a mongo collection holding documents of type T.
// notFound is the sentinel returned when a lookup by id misses.
type collection[T any] struct {
	coll     *mongo.Collection
	notFound error
}

func newCollection[T any](db *mongo.Database, name string, notFound error) collection[T] {
	return collection[T]{coll: db.Collection(name), notFound: notFound}
}

func (c collection[T]) insert(ctx context.Context, doc *T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (c collection[T]) findOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, c.notFound
		}
		return nil, err
	}
	return &doc, nil
}

func (c collection[T]) findByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

// findAll returns the matching documents, newest first.  The result is
// never nil so it encodes as [] rather than null.
func (c collection[T]) findAll(ctx context.Context, filter bson.M) ([]T, error) {
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c collection[T]) findByIDs(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	return c.findAll(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// update applies set to the document and returns it as stored afterwards.
func (c collection[T]) update(ctx context.Context, id primitive.ObjectID, set bson.M) (*T, error) {
	var doc T
	err := c.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, afterUpdate()).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, c.notFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &doc, nil
}

// delete removes the document and returns it as it was.
func (c collection[T]) delete(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	if err := c.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, c.notFound
		}
		return nil, err
	}
	return &doc, nil
}

func (c collection[T]) exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := c.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
