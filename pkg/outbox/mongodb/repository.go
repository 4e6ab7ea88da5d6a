// Package mongodb stores outbox events in MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paklog/workload-planning-service/pkg/outbox"
)

const (
	DefaultCollectionName = "outbox_events"

	// Published events are kept this long before the TTL index drops them.
	publishedRetention = 7 * 24 * time.Hour
)

// ErrEventNotFound is returned when relay bookkeeping targets an unknown id.
var ErrEventNotFound = errors.New("event not found")

// pending matches events that were never published and still have retries left.
var pending = bson.M{
	"publishedAt": bson.M{"$exists": false},
	"$expr":       bson.M{"$lt": bson.A{"$retryCount", "$maxRetries"}},
}

type OutboxRepository struct {
	coll *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) *OutboxRepository {
	return &OutboxRepository{coll: db.Collection(DefaultCollectionName)}
}

func (r *OutboxRepository) Save(ctx context.Context, event *outbox.OutboxEvent) error {
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to save outbox event %s: %w", event.ID, err)
	}
	return nil
}

// FindUnpublished returns up to limit pending events, oldest first.
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, pending, opts)
	if err != nil {
		return nil, fmt.Errorf("find pending outbox events: %w", err)
	}

	events := make([]*outbox.OutboxEvent, 0, limit)
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode outbox events: %w", err)
	}
	return events, nil
}

func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, pending)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox events: %w", err)
	}
	return n, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	return r.update(ctx, eventID, bson.M{"$set": bson.M{"publishedAt": time.Now().UTC()}})
}

// IncrementRetry counts a failed relay attempt and keeps its error text.
func (r *OutboxRepository) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	return r.update(ctx, eventID, bson.M{
		"$inc": bson.M{"retryCount": 1},
		"$set": bson.M{"lastError": errorMsg},
	})
}

func (r *OutboxRepository) update(ctx context.Context, eventID string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": eventID}, update)
	switch {
	case err != nil:
		return fmt.Errorf("update outbox event %s: %w", eventID, err)
	case res.MatchedCount == 0:
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return nil
}

// GetByID returns the event, or nil when no event has that id.
func (r *OutboxRepository) GetByID(ctx context.Context, eventID string) (*outbox.OutboxEvent, error) {
	var event outbox.OutboxEvent
	err := r.coll.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get outbox event %s: %w", eventID, err)
	}
	return &event, nil
}

// EnsureIndexes creates the relay scan index, the per aggregate index and
// the TTL index that expires published events.
func (r *OutboxRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "publishedAt", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("idx_publishedAt_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "aggregateId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("idx_aggregateId_createdAt"),
		},
		{
			Keys: bson.D{{Key: "publishedAt", Value: 1}},
			Options: options.Index().
				SetName("idx_publishedAt_ttl").
				SetExpireAfterSeconds(int32(publishedRetention / time.Second)),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create outbox indexes: %w", err)
	}
	return nil
}
