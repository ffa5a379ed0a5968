package health

import (
	"context"
	"time"

	"github.com/mentneo/mentmine/pkg/query"
)

const defaultTimeout = 5 * time.Second

// Checkable is an interface for components that support health checks
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// AdapterChecker reports the health of a storage adapter.
type AdapterChecker struct {
	name    string
	adapter Checkable
	timeout time.Duration
}

// NewAdapterChecker creates a checker for adapter; a zero timeout means 5s.
func NewAdapterChecker(name string, adapter Checkable, timeout time.Duration) *AdapterChecker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AdapterChecker{
		name:    name,
		adapter: adapter,
		timeout: timeout,
	}
}

// Check calls HealthCheck within the checker's timeout.
func (c *AdapterChecker) Check(ctx context.Context) CheckResult {
	return runTimed(ctx, c.name, c.timeout, func(checkCtx context.Context) (Status, string, map[string]any, error) {
		if err := c.adapter.HealthCheck(checkCtx); err != nil {
			return StatusUnhealthy, "", nil, err
		}
		return StatusHealthy, "OK", nil, nil
	})
}

// Name returns the name of the health check
func (c *AdapterChecker) Name() string {
	return c.name
}

// PingChecker always reports healthy. Used for liveness.
type PingChecker struct {
	name string
}

// NewPingChecker creates a new ping checker
func NewPingChecker(name string) *PingChecker {
	return &PingChecker{name: name}
}

// Check always returns healthy status
func (c *PingChecker) Check(context.Context) CheckResult {
	return CheckResult{
		Name:      c.name,
		Status:    StatusHealthy,
		Message:   "Service is alive",
		Timestamp: time.Now(),
	}
}

// Name returns the name of the health check
func (c *PingChecker) Name() string {
	return c.name
}

// CollectionChecker reads a whole collection and reports its size.
// A read error is unhealthy, an empty collection is degraded.
type CollectionChecker struct {
	source     query.Source
	collection string
	timeout    time.Duration
}

// NewCollectionChecker creates a checker named "collection:<collection>".
func NewCollectionChecker(source query.Source, collection string, timeout time.Duration) *CollectionChecker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CollectionChecker{source: source, collection: collection, timeout: timeout}
}

// Check fetches the collection once.
func (c *CollectionChecker) Check(ctx context.Context) CheckResult {
	return runTimed(ctx, c.Name(), c.timeout, func(checkCtx context.Context) (Status, string, map[string]any, error) {
		records, err := c.source.FetchAll(checkCtx, c.collection)
		switch {
		case err != nil:
			return StatusUnhealthy, "", nil, err
		case len(records) == 0:
			return StatusDegraded, "collection is empty", map[string]any{"records": 0}, nil
		default:
			return StatusHealthy, "OK", map[string]any{"records": len(records)}, nil
		}
	})
}

// Name returns the name of the health check
func (c *CollectionChecker) Name() string {
	return "collection:" + c.collection
}

type checkFunc func(ctx context.Context) (Status, string, map[string]any, error)

// runTimed bounds fn by timeout and fills the timing fields of the result.
func runTimed(ctx context.Context, name string, timeout time.Duration, fn checkFunc) CheckResult {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, message, metadata, err := fn(checkCtx)
	result := CheckResult{
		Name:      name,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Metadata:  metadata,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
