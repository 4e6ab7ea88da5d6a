package temporal

import "time"

type Config struct {
	HostPort  string
	Namespace string
	Identity  string
}

func DefaultConfig() *Config {
	return &Config{
		HostPort:  "localhost:7233",
		Namespace: "default",
		Identity:  "workload-planning-worker",
	}
}

var TaskQueues = struct {
	WorkloadPlanning string
}{
	WorkloadPlanning: "workload-planning-queue",
}

// WorkflowNames are the registered names workflows are started by.
var WorkflowNames = struct {
	DailyPlanning string
}{
	DailyPlanning: "DailyPlanningWorkflow",
}

// runTimeout bounds a whole workflow execution, retries included.
const runTimeout = 30 * time.Minute
