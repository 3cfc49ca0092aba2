package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	val, err := Retry(context.Background(), fastPolicy(3), "test", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Retry() error: %v", err)
	}
	if val != "ok" {
		t.Errorf("expected ok, got %q", val)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryTransientThenSuccess(t *testing.T) {
	calls := 0
	val, err := Retry(context.Background(), fastPolicy(3), "test", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, Transient(errors.New("rate limited"), 429)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Retry() error: %v", err)
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryExhaustsTransient(t *testing.T) {
	calls := 0
	transient := Transient(errors.New("upstream overloaded"), 503)
	_, err := Retry(context.Background(), fastPolicy(3), "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, transient
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !IsTransient(err) {
		t.Error("exhausted error should still classify as transient")
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("invalid request")
	_, err := Retry(context.Background(), fastPolicy(5), "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, fastPolicy(10), "test", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, Transient(errors.New("timeout"), 0)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancellation, got %d", calls)
	}
}

func TestRetryZeroPolicyUsesDefaults(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, Transient(errors.New("flaky"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected default 3 attempts, got %d", calls)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit transient", Transient(errors.New("429"), 429), true},
		{"wrapped transient", errors.Join(errors.New("outer"), Transient(errors.New("inner"), 502)), true},
		{"plain error", errors.New("bad input"), false},
		{"reset string", errors.New("read tcp: connection reset by peer"), true},
		{"dns string", errors.New("dial tcp: lookup api.example.com: no such host"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !RetryableStatus(code) {
			t.Errorf("expected %d to be retryable", code)
		}
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		if RetryableStatus(code) {
			t.Errorf("expected %d not to be retryable", code)
		}
	}
}
