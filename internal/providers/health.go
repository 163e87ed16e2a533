package providers

import (
	"sync"
	"time"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// unhealthyThreshold is the number of consecutive failed calls after
// which a provider is reported as degraded.
const unhealthyThreshold = 3

// HealthStatus is a point-in-time snapshot of one provider's health.
type HealthStatus struct {
	Source              domain.SourceType `json:"source"`
	Healthy             bool              `json:"healthy"`
	ConsecutiveFailures int               `json:"consecutive_failures"`
	LastRequestTime     time.Time         `json:"last_request_time,omitempty"`
}

// HealthTracker counts consecutive failed calls to one provider.
// A failure is recorded only after a logical call exhausts its retries;
// any successful call resets the counter, including a well-formed
// not-found response, because the API is responding.
// It is safe for concurrent use.
type HealthTracker struct {
	source domain.SourceType
	gate   *RateGate

	mu       sync.Mutex
	failures int
}

// NewHealthTracker creates a tracker for the given provider. The gate is
// consulted for the last request time in snapshots; it may be nil.
func NewHealthTracker(source domain.SourceType, gate *RateGate) *HealthTracker {
	return &HealthTracker{source: source, gate: gate}
}

// RecordSuccess resets the consecutive-failure counter.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	h.failures = 0
	h.mu.Unlock()
}

// RecordFailure increments the consecutive-failure counter.
func (h *HealthTracker) RecordFailure() {
	h.mu.Lock()
	h.failures++
	h.mu.Unlock()
}

// Healthy reports whether the provider is below the degradation
// threshold. A degraded provider is not disabled; callers may still
// route to it or choose to down-rank it.
func (h *HealthTracker) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failures < unhealthyThreshold
}

// ConsecutiveFailures returns the current failure streak.
func (h *HealthTracker) ConsecutiveFailures() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failures
}

// Status returns a snapshot of the tracker.
func (h *HealthTracker) Status() HealthStatus {
	h.mu.Lock()
	failures := h.failures
	h.mu.Unlock()

	status := HealthStatus{
		Source:              h.source,
		Healthy:             failures < unhealthyThreshold,
		ConsecutiveFailures: failures,
	}
	if h.gate != nil {
		status.LastRequestTime = h.gate.LastRequestTime()
	}
	return status
}
