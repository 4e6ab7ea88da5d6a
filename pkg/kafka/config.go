package kafka

import (
	"strings"
	"time"
)

type Config struct {
	Brokers  []string
	ClientID string

	BatchSize    int
	BatchTimeout time.Duration
	// RequiredAcks is 0 for none, 1 for the leader and -1 for all in-sync replicas.
	RequiredAcks int
	WriteTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		ClientID:     "workload-planning-service",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
		WriteTimeout: 10 * time.Second,
	}
}

// ParseBrokers splits a comma separated broker list and drops blank entries.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Topics this service writes to.
var Topics = struct {
	WorkloadEvents string
}{
	WorkloadEvents: "wms.workload.events",
}
