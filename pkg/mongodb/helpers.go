package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// BuildFilter builds an equality filter from key-value pairs. Non-string keys and a
// trailing key without a value are ignored.
func BuildFilter(pairs ...interface{}) bson.M {
	filter := bson.M{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if key, ok := pairs[i].(string); ok {
			filter[key] = pairs[i+1]
		}
	}
	return filter
}

// SortDescending orders by field, newest or largest first
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

// DayRange returns the [start, end) UTC bounds of the calendar day containing t.
// Plan dates are stored as midnight UTC so a range query matches them exactly.
func DayRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
