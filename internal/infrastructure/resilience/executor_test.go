package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func retryOnly(maxAttempts int) Config {
	return Config{
		RetryMaxAttempts:    maxAttempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func TestExecuteRetriesRetryableFailure(t *testing.T) {
	exec := NewExecutor(retryOnly(3))

	attempts := 0
	errFlaky := errors.New("flaky")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errFlaky
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errFlaky), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteStopsOnPermanentFailure(t *testing.T) {
	exec := NewExecutor(retryOnly(3))

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestBreakerOnlyDoesNotRetry(t *testing.T) {
	exec := NewExecutor(BreakerOnly())

	attempts := 0
	errFlaky := errors.New("flaky")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errFlaky
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected underlying error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("retry belongs to the caller here; expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errDown := errors.New("down")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errDown
		}, classifier)
		if !errors.Is(err, errDown) {
			t.Fatalf("expected failure on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatal("open circuit must not call the operation")
		return nil
	}, classifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestBreakersAreScopedPerOperation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	errDown := errors.New("down")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}
	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "broken-op", func(context.Context) error {
			return errDown
		}, classifier)
	}
	if err := exec.Execute(context.Background(), "broken-op", func(context.Context) error { return nil }, classifier); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected broken-op circuit open, got %v", err)
	}

	if err := exec.Execute(context.Background(), "healthy-op", func(context.Context) error { return nil }, classifier); err != nil {
		t.Fatalf("healthy operation must stay closed, got %v", err)
	}
}

func TestExecuteIgnoredFailuresKeepCircuitClosed(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	errIgnored := errors.New("caller mistake")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	for i := 0; i < 5; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			return errIgnored
		}, classifier)
	}

	if err := exec.Execute(context.Background(), "op", func(context.Context) error { return nil }, classifier); err != nil {
		t.Fatalf("unrecorded failures must not trip the breaker, got %v", err)
	}
}
