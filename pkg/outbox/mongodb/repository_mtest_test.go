package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/paklog/workload-planning-service/pkg/outbox"
)

func TestOutboxRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save and relay bookkeeping", func(mt *mtest.T) {
		repo := NewOutboxRepository(mt.DB)
		ctx := context.Background()
		ns := mt.DB.Name() + "." + DefaultCollectionName

		event := &outbox.OutboxEvent{
			ID:            "evt-1",
			AggregateID:   "P-1",
			AggregateType: "WorkloadPlan",
			EventType:     "wms.workload.plan.created",
			Topic:         "wms.workload.events",
			Payload:       []byte(`{"id":"evt-1"}`),
			CreatedAt:     time.Now().UTC(),
			MaxRetries:    outbox.DefaultMaxRetries,
		}

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(t, repo.Save(ctx, event))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "evt-1"},
			{Key: "aggregateId", Value: "P-1"},
			{Key: "eventType", Value: "wms.workload.plan.created"},
			{Key: "maxRetries", Value: 10},
		}))
		pending, err := repo.FindUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "P-1", pending[0].AggregateID)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(t, repo.MarkPublished(ctx, "evt-1"))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err = repo.IncrementRetry(ctx, "evt-404", "boom")
		assert.ErrorIs(t, err, ErrEventNotFound)
		assert.ErrorContains(t, err, "evt-404")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		missing, err := repo.GetByID(ctx, "evt-404")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	mt.Run("insert failure is wrapped", func(mt *mtest.T) {
		repo := NewOutboxRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Save(context.Background(), &outbox.OutboxEvent{ID: "evt-1"})
		assert.ErrorContains(t, err, "failed to save outbox event")
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewOutboxRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(t, repo.EnsureIndexes(context.Background()))
	})
}
