package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildFilter(t *testing.T) {
	assert.Equal(t, bson.M{"warehouseId": "WH-1", "status": "DRAFT"},
		BuildFilter("warehouseId", "WH-1", "status", "DRAFT"))
	assert.Equal(t, bson.M{"warehouseId": "WH-1"}, BuildFilter("warehouseId", "WH-1", "dangling"))
	assert.Equal(t, bson.M{}, BuildFilter(42, "ignored"))
}

func TestSorts(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "planDate", Value: -1}}, SortDescending("planDate"))
}

func TestDayRange(t *testing.T) {
	start, end := DayRange(time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), end)

	// 01:30 in UTC+3 is still the 13th in UTC
	offset := time.FixedZone("UTC+3", 3*60*60)
	start, _ = DayRange(time.Date(2026, 10, 14, 1, 30, 0, 0, offset))
	assert.Equal(t, time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC), start)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "workload_planning", cfg.Database)

	opts := cfg.clientOptions()
	assert.Equal(t, "workload-planning-service", *opts.AppName)
	assert.True(t, *opts.RetryWrites)
	assert.Equal(t, uint64(50), *opts.MaxPoolSize)
}
