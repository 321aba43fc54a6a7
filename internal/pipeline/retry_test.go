package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

func fastRetries(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := retrySleep
	retrySleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { retrySleep = orig })
	return &delays
}

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	delays := fastRetries(t)

	calls := 0
	result, err := withRetry(context.Background(), model.RetryConfig{MaxAttempts: 3, InitialDelay: time.Second},
		func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("Expected single successful call, got result=%q calls=%d", result, calls)
	}
	if len(*delays) != 0 {
		t.Errorf("Expected no backoff sleeps, got %v", *delays)
	}
}

func TestWithRetry_TransientErrorsBackOffExponentially(t *testing.T) {
	delays := fastRetries(t)

	calls := 0
	_, err := withRetry(context.Background(), model.RetryConfig{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 8 * time.Second},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, Transient("embed", errors.New("connection reset"))
		})
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("Expected delays %v, got %v", want, *delays)
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("Delay %d: expected %v, got %v", i, d, (*delays)[i])
		}
	}
}

func TestWithRetry_DelayCappedAtMax(t *testing.T) {
	delays := fastRetries(t)

	_, _ = withRetry(context.Background(), model.RetryConfig{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 2 * time.Second},
		func(ctx context.Context) (int, error) {
			return 0, Transient("infer", errors.New("timeout"))
		})

	want := []time.Duration{time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("Expected delays %v, got %v", want, *delays)
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("Delay %d: expected %v, got %v", i, d, (*delays)[i])
		}
	}
}

func TestWithRetry_PermanentErrorNotRetried(t *testing.T) {
	fastRetries(t)

	calls := 0
	_, err := withRetry(context.Background(), model.RetryConfig{MaxAttempts: 3, InitialDelay: time.Second},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, Permanent("embed", errors.New("invalid api key"))
		})
	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Permanent error retried: %d attempts", calls)
	}
}

func TestWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	orig := retrySleep
	retrySleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}
	t.Cleanup(func() { retrySleep = orig })

	_, err := withRetry(context.Background(), model.RetryConfig{MaxAttempts: 3, InitialDelay: time.Second},
		func(ctx context.Context) (int, error) {
			return 0, Transient("search_evidence", errors.New("timeout"))
		})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient typed", Transient("embed", errors.New("boom")), true},
		{"permanent typed", Permanent("embed", errors.New("boom")), false},
		{"wrapped transient", errors.Join(errors.New("outer"), Transient("infer", errors.New("x"))), true},
		{"timeout string", errors.New("request timeout exceeded"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"rate limit", errors.New("rate limit reached, try later"), true},
		{"plain failure", errors.New("model not found"), false},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Errorf("%s: IsRetryable = %v, want %v", c.name, got, c.want)
		}
	}
}
