// Package mongodb keeps idempotency records in MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paklog/workload-planning-service/pkg/idempotency"
)

const DefaultCollectionName = "idempotency_keys"

type Store struct {
	coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(DefaultCollectionName)}
}

// Acquire relies on the _id unique index: a duplicate-key insert means
// another request already claimed the key.
func (s *Store) Acquire(ctx context.Context, rec *idempotency.Record) (*idempotency.Record, bool, error) {
	_, err := s.coll.InsertOne(ctx, rec)
	if err == nil {
		return rec, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("claim idempotency key %s: %w", rec.Key, err)
	}

	var existing idempotency.Record
	if err := s.coll.FindOne(ctx, bson.M{"_id": rec.ID}).Decode(&existing); err != nil {
		return nil, false, fmt.Errorf("load idempotency key %s: %w", rec.Key, err)
	}
	if existing.ExpiresAt.After(time.Now()) {
		return &existing, false, nil
	}

	// Expired but not yet swept by the TTL monitor.
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID, "expiresAt": existing.ExpiresAt}, rec)
	if err != nil {
		return nil, false, fmt.Errorf("reclaim idempotency key %s: %w", rec.Key, err)
	}
	return rec, res.ModifiedCount == 1, nil
}

func (s *Store) Complete(ctx context.Context, id string, resp idempotency.Response) error {
	res, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"statusCode":  resp.StatusCode,
			"contentType": resp.ContentType,
			"body":        resp.Body,
			"completedAt": time.Now().UTC(),
		},
		"$unset": bson.M{"lockedAt": ""},
	})
	if err != nil {
		return fmt.Errorf("store response for %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", idempotency.ErrNotFound, id)
	}
	return nil
}

func (s *Store) Release(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("release %s: %w", id, err)
	}
	return nil
}

// TakeOver moves lockedAt only if it still holds the stale value, so one of
// several racing requests wins.
func (s *Store) TakeOver(ctx context.Context, id string, lockedAt, now time.Time) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "lockedAt": lockedAt, "completedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"lockedAt": now}},
	)
	if err != nil {
		return false, fmt.Errorf("take over %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

// EnsureIndexes adds the TTL index that expires records at expiresAt.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create idempotency indexes: %w", err)
	}
	return nil
}

var _ idempotency.Store = (*Store)(nil)
