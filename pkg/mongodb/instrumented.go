package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
	"github.com/paklog/workload-planning-service/pkg/tracing"
)

// InstrumentedCollection is the subset of *mongo.Collection the repositories
// use, with a client span, a metric sample and a debug log per call.
type InstrumentedCollection struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentedCollection wraps coll. m and logger may be nil.
func NewInstrumentedCollection(coll *mongo.Collection, m *metrics.Metrics, logger *logging.Logger) *InstrumentedCollection {
	return &InstrumentedCollection{coll: coll, metrics: m, logger: logger, tracer: otel.Tracer("mongodb")}
}

func (c *InstrumentedCollection) Collection() *mongo.Collection {
	return c.coll
}

type call struct {
	c     *InstrumentedCollection
	name  string
	ctx   context.Context
	span  trace.Span
	start time.Time
}

func (c *InstrumentedCollection) begin(ctx context.Context, name string) *call {
	attrs := tracing.MongoAttributes(c.coll.Database().Name(), c.coll.Name(), name)
	ctx, span := c.tracer.Start(ctx, "mongodb."+name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	return &call{c: c, name: name, ctx: ctx, span: span, start: time.Now()}
}

func (op *call) end(err error, rows int64) {
	elapsed := time.Since(op.start)
	ok := err == nil
	coll := op.c.coll.Name()

	op.c.metrics.RecordMongoDBOperation(coll, op.name, ok, elapsed)
	if op.c.logger != nil {
		op.c.logger.DatabaseQuery(op.ctx, coll, op.name, elapsed, ok, rows)
	}
	if ok {
		op.span.SetAttributes(attribute.Int64("db.rows_affected", rows))
	}
	tracing.RecordResult(op.span, err)
	op.span.End()
}

// FindOne does not count a missing document as a failure.
func (c *InstrumentedCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	op := c.begin(ctx, "findOne")
	res := c.coll.FindOne(op.ctx, filter, opts...)

	switch err := res.Err(); {
	case err == nil:
		op.end(nil, 1)
	case errors.Is(err, mongo.ErrNoDocuments):
		op.end(nil, 0)
	default:
		op.end(err, 0)
	}
	return res
}

func (c *InstrumentedCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	op := c.begin(ctx, "find")
	cur, err := c.coll.Find(op.ctx, filter, opts...)
	op.end(err, 0)
	return cur, err
}

func (c *InstrumentedCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	op := c.begin(ctx, "replaceOne")
	res, err := c.coll.ReplaceOne(op.ctx, filter, replacement, opts...)

	var rows int64
	if res != nil {
		rows = res.ModifiedCount + res.UpsertedCount
	}
	op.end(err, rows)
	return res, err
}

func (c *InstrumentedCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	op := c.begin(ctx, "insertOne")
	res, err := c.coll.InsertOne(op.ctx, document, opts...)
	if err != nil {
		op.end(err, 0)
	} else {
		op.end(nil, 1)
	}
	return res, err
}

func (c *InstrumentedCollection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) error {
	op := c.begin(ctx, "createIndexes")
	_, err := c.coll.Indexes().CreateMany(op.ctx, models)
	op.end(err, int64(len(models)))
	return err
}
