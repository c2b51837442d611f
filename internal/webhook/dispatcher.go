package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Dispatcher delivers downtime events to a configured webhook with retry
// logic and a circuit breaker.
type Dispatcher struct {
	url            string
	httpClient     *http.Client
	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
}

// NewDispatcher creates a new webhook dispatcher for the given endpoint.
func NewDispatcher(url string, timeout time.Duration, retryConfig RetryConfig) *Dispatcher {
	retryConfig.SetDefaults()
	return &Dispatcher{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retryConfig:    retryConfig,
		circuitBreaker: NewCircuitBreaker(),
	}
}

// NotifyDowntimeCreated delivers a downtime.created event with retries.
func (d *Dispatcher) NotifyDowntimeCreated(ctx context.Context, event DowntimeEvent) error {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if !d.circuitBreaker.CanAttempt() {
		slog.Warn("Circuit breaker is open, skipping webhook delivery",
			"webhook_url", d.url,
			"downtime_id", event.DowntimeID,
			"circuit_state", d.circuitBreaker.GetStateName(),
		)
		return fmt.Errorf("circuit breaker is open")
	}

	retryStrategy := NewRetryStrategy(d.retryConfig)

	for attempt := 1; attempt <= retryStrategy.GetMaxAttempts(); attempt++ {
		statusCode, err := d.deliver(ctx, event)

		if err == nil && statusCode >= 200 && statusCode < 300 {
			slog.Info("Webhook delivered",
				"webhook_url", d.url,
				"downtime_id", event.DowntimeID,
				"attempt", attempt,
				"status_code", statusCode,
			)
			d.circuitBreaker.RecordSuccess()
			return nil
		}

		if !retryStrategy.ShouldRetry(attempt, statusCode, err) {
			slog.Error("Webhook delivery failed, no retry",
				"webhook_url", d.url,
				"downtime_id", event.DowntimeID,
				"attempt", attempt,
				"status_code", statusCode,
				"error", err,
			)
			d.circuitBreaker.RecordFailure()
			return fmt.Errorf("webhook delivery failed after %d attempts", attempt)
		}

		if attempt < retryStrategy.GetMaxAttempts() {
			delay := retryStrategy.CalculateDelay(attempt)
			slog.Warn("Webhook delivery failed, retrying",
				"webhook_url", d.url,
				"downtime_id", event.DowntimeID,
				"attempt", attempt,
				"next_retry_ms", delay.Milliseconds(),
				"error", err,
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	d.circuitBreaker.RecordFailure()
	return fmt.Errorf("webhook delivery failed after %d attempts", retryStrategy.GetMaxAttempts())
}

// deliver performs a single delivery attempt and returns the response status
// code.
func (d *Dispatcher) deliver(ctx context.Context, event DowntimeEvent) (int, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewBuffer(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}

// GetCircuitBreakerState returns the current circuit breaker state
func (d *Dispatcher) GetCircuitBreakerState() string {
	return d.circuitBreaker.GetStateName()
}
