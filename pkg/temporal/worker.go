package temporal

import "go.temporal.io/sdk/worker"

// WorkerOptions caps poller and executor concurrency for one task queue.
type WorkerOptions struct {
	TaskQueue                    string
	MaxConcurrentActivityPollers int
	MaxConcurrentWorkflowPollers int
	MaxConcurrentActivities      int
	MaxConcurrentWorkflows       int
}

func DefaultWorkerOptions(taskQueue string) *WorkerOptions {
	return &WorkerOptions{
		TaskQueue:                    taskQueue,
		MaxConcurrentActivityPollers: 2,
		MaxConcurrentWorkflowPollers: 2,
		MaxConcurrentActivities:      20,
		MaxConcurrentWorkflows:       20,
	}
}

// NewWorker builds a worker on the dialed client. Registration and Run are
// left to the caller.
func (c *Client) NewWorker(opts *WorkerOptions) (worker.Worker, error) {
	if c.sdk == nil {
		return nil, ErrNotConnected
	}
	return worker.New(c.sdk, opts.TaskQueue, worker.Options{
		MaxConcurrentActivityTaskPollers:       opts.MaxConcurrentActivityPollers,
		MaxConcurrentWorkflowTaskPollers:       opts.MaxConcurrentWorkflowPollers,
		MaxConcurrentActivityExecutionSize:     opts.MaxConcurrentActivities,
		MaxConcurrentWorkflowTaskExecutionSize: opts.MaxConcurrentWorkflows,
	}), nil
}
