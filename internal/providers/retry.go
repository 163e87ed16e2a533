package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// Operation performs a single HTTP exchange. The executor owns retry
// decisions; the operation must not retry internally.
type Operation func(ctx context.Context) (*http.Response, error)

// Executor wraps provider calls with rate gating, exponential backoff,
// Retry-After-aware 429 handling, and health accounting.
//
// Classification rules:
//   - 429 sleeps for Retry-After when present and parseable (retry-after
//     strategy), otherwise backs off like any transient failure.
//   - 5xx, timeouts, and connection errors are transient and retried.
//   - 4xx other than 429 and 404 is permanent and aborts immediately.
//   - 404 is passed through to the caller: the API answered, so the
//     provider is healthy and the caller decides what absence means.
type Executor struct {
	source     domain.SourceType
	gate       *RateGate
	health     *HealthTracker
	maxRetries int
	baseDelay  time.Duration
	strategy   config.RateLimitStrategy
	logger     zerolog.Logger
}

// NewExecutor creates an executor bound to one provider's configuration.
func NewExecutor(source domain.SourceType, cfg config.ProviderConfig, gate *RateGate, health *HealthTracker, logger zerolog.Logger) *Executor {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	baseDelay := cfg.RetryDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	strategy := cfg.RateLimitStrategy
	if strategy == "" {
		strategy = config.StrategyRetryAfter
	}
	return &Executor{
		source:     source,
		gate:       gate,
		health:     health,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		strategy:   strategy,
		logger:     logger.With().Str("source", string(source)).Logger(),
	}
}

// Execute runs op under the retry policy and returns the first response
// the caller should see. The returned response body is open; the caller
// owns closing it. At most maxRetries exchanges are performed.
func (e *Executor) Execute(ctx context.Context, op Operation) (*http.Response, error) {
	var (
		lastErr    error
		lastStatus int
		retryAfter time.Duration
	)

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt == 0 {
			if err := e.gate.Wait(ctx); err != nil {
				return nil, e.cancellation(err)
			}
		} else {
			delay := retryAfter
			if delay <= 0 {
				delay = e.baseDelay << (attempt - 1)
			}
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, e.cancellation(err)
			}
		}
		retryAfter = 0

		resp, err := op(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, e.cancellation(ctx.Err())
			}
			// Network errors and client timeouts are transient.
			lastErr = err
			lastStatus = 0
			e.logger.Debug().Err(err).Int("attempt", attempt+1).Msg("provider request failed")
			continue
		}

		status := resp.StatusCode
		switch {
		case status == http.StatusTooManyRequests:
			if e.strategy == config.StrategyRetryAfter {
				retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
			}
			drainBody(resp)
			lastErr = domain.NewRateLimitError(e.source, retryAfter)
			lastStatus = status
			e.logger.Debug().Int("attempt", attempt+1).Dur("retry_after", retryAfter).Msg("provider rate limited")

		case status >= http.StatusInternalServerError:
			drainBody(resp)
			lastErr = fmt.Errorf("server returned status %d", status)
			lastStatus = status

		case status >= http.StatusBadRequest && status != http.StatusNotFound:
			// Permanent client error: abort without burning retries.
			drainBody(resp)
			e.health.RecordFailure()
			return nil, domain.NewExternalAPIError(e.source, status, attempt+1,
				"non-retryable client error", nil)

		default:
			// Success, redirect, or a well-formed 404 the caller will
			// interpret. The API is responding either way.
			e.health.RecordSuccess()
			return resp, nil
		}
	}

	e.health.RecordFailure()
	if lastStatus == http.StatusTooManyRequests {
		return nil, domain.NewExternalAPIError(e.source, lastStatus, e.maxRetries,
			"rate limited after exhausting retries", lastErr)
	}
	return nil, domain.NewExternalAPIError(e.source, lastStatus, e.maxRetries,
		"exhausted retries", lastErr)
}

// cancellation maps a context error onto the service taxonomy so that
// caller-initiated cancellation is distinguishable from timeout.
func (e *Executor) cancellation(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s", domain.ErrCancelled, e.source)
	}
	return err
}

// parseRetryAfter parses a Retry-After header as delay seconds or an
// HTTP date. Returns 0 when absent or unparseable.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.ParseInt(header, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return 0
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// drainBody reads a response body to completion and closes it so the
// connection can be reused before a retry.
func drainBody(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}

// sleepCtx waits for the duration, respecting context cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
