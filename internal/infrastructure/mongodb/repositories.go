package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
	wmsmongo "github.com/paklog/workload-planning-service/pkg/mongodb"
)

const (
	forecastsCollection = "demand_forecasts"
	plansCollection     = "workload_plans"
)

// ForecastRepository implements domain.ForecastRepository
type ForecastRepository struct {
	collection *wmsmongo.InstrumentedCollection
}

// NewForecastRepository creates a new forecast repository
func NewForecastRepository(db *mongo.Database, m *metrics.Metrics, logger *logging.Logger) *ForecastRepository {
	return &ForecastRepository{
		collection: wmsmongo.NewInstrumentedCollection(db.Collection(forecastsCollection), m, logger),
	}
}

// EnsureIndexes creates the warehouse lookup index
func (r *ForecastRepository) EnsureIndexes(ctx context.Context) error {
	return r.collection.CreateIndexes(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "warehouseId", Value: 1},
				{Key: "forecastDate", Value: -1},
			},
			Options: options.Index().SetName("idx_warehouse_forecastDate"),
		},
	})
}

func (r *ForecastRepository) Save(ctx context.Context, forecast *domain.DemandForecast) (*domain.DemandForecast, error) {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": forecast.ForecastID}, forecast, opts); err != nil {
		return nil, fmt.Errorf("failed to save demand forecast: %w", err)
	}
	return forecast, nil
}

func (r *ForecastRepository) FindByID(ctx context.Context, forecastID string) (*domain.DemandForecast, error) {
	var forecast domain.DemandForecast
	err := r.collection.FindOne(ctx, bson.M{"_id": forecastID}).Decode(&forecast)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find demand forecast: %w", err)
	}
	return &forecast, nil
}

func (r *ForecastRepository) FindByWarehouse(ctx context.Context, warehouseID string) ([]*domain.DemandForecast, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "forecastDate", Value: -1},
		{Key: "createdAt", Value: -1},
	})

	cursor, err := r.collection.Find(ctx, wmsmongo.BuildFilter("warehouseId", warehouseID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list demand forecasts: %w", err)
	}
	defer cursor.Close(ctx)

	forecasts := make([]*domain.DemandForecast, 0)
	if err := cursor.All(ctx, &forecasts); err != nil {
		return nil, fmt.Errorf("failed to decode demand forecasts: %w", err)
	}
	return forecasts, nil
}

// PlanRepository implements domain.PlanRepository
type PlanRepository struct {
	collection *wmsmongo.InstrumentedCollection
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *mongo.Database, m *metrics.Metrics, logger *logging.Logger) *PlanRepository {
	return &PlanRepository{
		collection: wmsmongo.NewInstrumentedCollection(db.Collection(plansCollection), m, logger),
	}
}

// EnsureIndexes creates the warehouse-day lookup index
func (r *PlanRepository) EnsureIndexes(ctx context.Context) error {
	return r.collection.CreateIndexes(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "warehouseId", Value: 1},
				{Key: "planDate", Value: -1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_warehouse_planDate"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
	})
}

func (r *PlanRepository) Save(ctx context.Context, plan *domain.WorkloadPlan) (*domain.WorkloadPlan, error) {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": plan.PlanID}, plan, opts); err != nil {
		return nil, fmt.Errorf("failed to save workload plan: %w", err)
	}
	return plan, nil
}

func (r *PlanRepository) FindByID(ctx context.Context, planID string) (*domain.WorkloadPlan, error) {
	return r.findOne(ctx, bson.M{"_id": planID}, nil)
}

// FindByWarehouseAndDate returns the most recently created plan whose planDate falls on the given day
func (r *PlanRepository) FindByWarehouseAndDate(ctx context.Context, warehouseID string, planDate time.Time) (*domain.WorkloadPlan, error) {
	start, end := wmsmongo.DayRange(planDate)
	filter := bson.M{
		"warehouseId": warehouseID,
		"planDate":    bson.M{"$gte": start, "$lt": end},
	}
	return r.findOne(ctx, filter, options.FindOne().SetSort(wmsmongo.SortDescending("createdAt")))
}

func (r *PlanRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.WorkloadPlan, error) {
	var findOpts []*options.FindOneOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}

	var plan domain.WorkloadPlan
	err := r.collection.FindOne(ctx, filter, findOpts...).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find workload plan: %w", err)
	}
	return normalizePlan(&plan), nil
}

func (r *PlanRepository) FindByWarehouse(ctx context.Context, warehouseID string) ([]*domain.WorkloadPlan, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "planDate", Value: -1},
		{Key: "createdAt", Value: -1},
	})

	cursor, err := r.collection.Find(ctx, wmsmongo.BuildFilter("warehouseId", warehouseID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list workload plans: %w", err)
	}
	defer cursor.Close(ctx)

	plans := make([]*domain.WorkloadPlan, 0)
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("failed to decode workload plans: %w", err)
	}
	for _, p := range plans {
		normalizePlan(p)
	}
	return plans, nil
}

// normalizePlan restores the invariants BSON decoding does not: UTC dates and non-nil maps
func normalizePlan(p *domain.WorkloadPlan) *domain.WorkloadPlan {
	p.PlanDate = p.PlanDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if p.PlannedVolumes == nil {
		p.PlannedVolumes = make(map[domain.WorkloadCategory]int)
	}
	if p.ShiftAssignments == nil {
		p.ShiftAssignments = make(map[domain.ShiftType][]domain.ShiftAssignment)
	}
	return p
}
