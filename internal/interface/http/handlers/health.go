package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// HealthCheckFunc probes a single dependency; nil means healthy.
type HealthCheckFunc func(ctx context.Context) error

// HealthChecker aggregates dependency probes for the health routes.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
	AddCheck(name string, check HealthCheckFunc)
	RemoveCheck(name string)
}

// HealthStatus is the JSON body of a health response.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Ready     bool                   `json:"ready"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is one dependency's probe outcome.
type CheckResult struct {
	Healthy     bool      `json:"healthy"`
	Message     string    `json:"message,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	LastChecked time.Time `json:"last_checked,omitempty"`
}

// CompositeHealthChecker runs registered probes concurrently, each under
// its own timeout. Any failing probe marks the service both unhealthy
// and not ready.
type CompositeHealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheckFunc
	startedAt time.Time
	version   string
	timeout   time.Duration
}

// NewCompositeHealthChecker creates a checker reporting the given version.
func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:    make(map[string]HealthCheckFunc),
		startedAt: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// SetTimeout overrides the per-probe timeout.
func (c *CompositeHealthChecker) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// AddCheck registers a probe under a name; re-adding replaces it.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	c.checks[name] = check
	c.mu.Unlock()
}

// RemoveCheck unregisters a probe.
func (c *CompositeHealthChecker) RemoveCheck(name string) {
	c.mu.Lock()
	delete(c.checks, name)
	c.mu.Unlock()
}

// Check runs every probe and aggregates.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	snapshot := make(map[string]HealthCheckFunc, len(c.checks))
	for name, fn := range c.checks {
		snapshot[name] = fn
	}
	c.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Checks:    make(map[string]CheckResult, len(snapshot)),
		Uptime:    time.Since(c.startedAt).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}
	if len(snapshot) == 0 {
		status.Message = "No health checks registered"
		return status
	}

	var (
		wg      sync.WaitGroup
		resMu   sync.Mutex
		failing []string
	)
	for name, fn := range snapshot {
		wg.Add(1)
		go func(name string, fn HealthCheckFunc) {
			defer wg.Done()
			res := c.probe(ctx, fn)

			resMu.Lock()
			status.Checks[name] = res
			if !res.Healthy {
				failing = append(failing, name)
			}
			resMu.Unlock()
		}(name, fn)
	}
	wg.Wait()

	if len(failing) == 0 {
		status.Message = "All checks passed"
		return status
	}
	sort.Strings(failing)
	status.Healthy = false
	status.Ready = false
	status.Message = "Some checks failed: " + strings.Join(failing, ", ")
	return status
}

func (c *CompositeHealthChecker) probe(ctx context.Context, fn HealthCheckFunc) CheckResult {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	err := fn(probeCtx)

	res := CheckResult{
		Healthy:     err == nil,
		Message:     "OK",
		Duration:    time.Since(started).Round(time.Millisecond).String(),
		LastChecked: time.Now().UTC(),
	}
	if err != nil {
		res.Message = err.Error()
	}
	return res
}

// ───────────────────────────────────────────────

// Pinger covers pgxpool and the Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewDatabaseCheck probes Postgres connectivity.
func NewDatabaseCheck(db Pinger) HealthCheckFunc {
	return db.Ping
}

// NewCacheCheck probes Redis connectivity.
func NewCacheCheck(cache Pinger) HealthCheckFunc {
	return cache.Ping
}

// ExternalAPIChecker is implemented by outbound clients that expose a
// cheap liveness call.
type ExternalAPIChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewExternalAPICheck probes an external API client.
func NewExternalAPICheck(api ExternalAPIChecker) HealthCheckFunc {
	return api.HealthCheck
}

// NoopHealthChecker always reports healthy. Used in tests and as the
// default before real probes are wired.
type NoopHealthChecker struct {
	startedAt time.Time
}

// NewNoopHealthChecker creates the no-op checker.
func NewNoopHealthChecker() *NoopHealthChecker {
	return &NoopHealthChecker{startedAt: time.Now()}
}

// Check reports healthy unconditionally.
func (n *NoopHealthChecker) Check(context.Context) HealthStatus {
	return HealthStatus{
		Healthy:   true,
		Ready:     true,
		Message:   "OK",
		Uptime:    time.Since(n.startedAt).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
}

// AddCheck is a no-op.
func (n *NoopHealthChecker) AddCheck(string, HealthCheckFunc) {}

// RemoveCheck is a no-op.
func (n *NoopHealthChecker) RemoveCheck(string) {}
