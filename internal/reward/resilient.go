package reward

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientConfig holds retry and circuit breaker settings for reward calls
type ResilientConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold int
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
}

// DefaultResilientConfig returns the settings used by the server
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		MaxAttempts:      3,
		InitialDelay:     500 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// ResilientClient wraps a Completer with retry and a circuit breaker
type ResilientClient struct {
	next           Completer
	circuitBreaker circuitbreaker.CircuitBreaker[*Receipt]
	retrier        retry.Retry[*Receipt]
}

// NewResilientClient wraps next with fortify retry and circuit breaker
func NewResilientClient(next Completer, cfg ResilientConfig) *ResilientClient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}

	threshold := cfg.FailureThreshold
	return &ResilientClient{
		next: next,
		circuitBreaker: circuitbreaker.New[*Receipt](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return int(counts.ConsecutiveFailures) >= threshold
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				log.Printf("Reward circuit breaker: %s -> %s", from.String(), to.String())
			},
		}),
		retrier: retry.New[*Receipt](retry.Config{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.InitialDelay,
			MaxDelay:      cfg.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		}),
	}
}

// Complete reports a completion, retrying transient failures
func (c *ResilientClient) Complete(ctx context.Context, exerciseID string, req CompletionRequest) (*Receipt, error) {
	return c.circuitBreaker.Execute(ctx, func(ctx context.Context) (*Receipt, error) {
		return c.retrier.Do(ctx, func(ctx context.Context) (*Receipt, error) {
			return c.next.Complete(ctx, exerciseID, req)
		})
	})
}

// isRetryable retries throttling, server errors and transport failures.
// Any other status means the service rejected the request.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return true
	}

	switch statusErr.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
