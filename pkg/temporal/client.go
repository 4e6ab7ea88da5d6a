// Package temporal wraps the Temporal SDK client and worker for the planning
// service: dialing with the service logger, starting runs with metrics, and
// building workers.
package temporal

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"

	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
)

// ErrNotConnected is returned by operations that need a dialed client.
var ErrNotConnected = errors.New("temporal client is not connected")

// WorkflowStarter is the part of client.Client needed to start runs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

type Client struct {
	starter WorkflowStarter
	sdk     client.Client
	metrics *metrics.Metrics
}

// NewClient dials the Temporal frontend. SDK logs go through logger when it
// is not nil.
func NewClient(ctx context.Context, config *Config, logger *logging.Logger, m *metrics.Metrics) (*Client, error) {
	opts := client.Options{
		HostPort:  config.HostPort,
		Namespace: config.Namespace,
		Identity:  config.Identity,
	}
	if logger != nil {
		opts.Logger = sdklog.NewStructuredLogger(logger.WithComponent("temporal").Logger)
	}

	sdk, err := client.DialContext(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dial temporal at %s: %w", config.HostPort, err)
	}
	return &Client{starter: sdk, sdk: sdk, metrics: m}, nil
}

// NewClientWithStarter wraps starter without a connection, for tests.
func NewClientWithStarter(starter WorkflowStarter, m *metrics.Metrics) *Client {
	return &Client{starter: starter, metrics: m}
}

// Client returns the SDK client, or nil when built with NewClientWithStarter.
func (c *Client) Client() client.Client {
	return c.sdk
}

func (c *Client) Close() {
	if c.sdk != nil {
		c.sdk.Close()
	}
}

// StartWorkflow starts workflowName under workflowID without waiting for it.
func (c *Client) StartWorkflow(ctx context.Context, workflowID, taskQueue, workflowName string, args ...interface{}) (client.WorkflowRun, error) {
	opts := client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                taskQueue,
		WorkflowExecutionTimeout: runTimeout,
	}

	run, err := c.starter.ExecuteWorkflow(ctx, opts, workflowName, args...)
	if err != nil {
		return nil, fmt.Errorf("start %s as %s: %w", workflowName, workflowID, err)
	}
	c.metrics.RecordWorkflowStarted(workflowName)
	return run, nil
}

// ExecuteWorkflow starts a run and blocks until it finishes, decoding its
// result into valuePtr.
func (c *Client) ExecuteWorkflow(ctx context.Context, workflowID, taskQueue, workflowName string, valuePtr interface{}, args ...interface{}) (client.WorkflowRun, error) {
	run, err := c.StartWorkflow(ctx, workflowID, taskQueue, workflowName, args...)
	if err != nil {
		return nil, err
	}

	err = run.Get(ctx, valuePtr)
	c.metrics.RecordWorkflowCompleted(workflowName, err == nil)
	if err != nil {
		return run, fmt.Errorf("%s %s failed: %w", workflowName, workflowID, err)
	}
	return run, nil
}
