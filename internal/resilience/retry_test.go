package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Backoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

var errUnavailable = &StatusError{Op: "test", StatusCode: 503}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return errUnavailable
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(2), func(_ context.Context) error {
		calls++
		return errUnavailable
	})
	if !errors.Is(err, errUnavailable) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_PermanentErrorStops(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(_ context.Context) error {
		calls++
		return &StatusError{StatusCode: 400}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_NoRetry(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), NoRetry(), func(_ context.Context) error {
		calls++
		return errUnavailable
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{Attempts: 5, Backoff: time.Hour, MaxBackoff: time.Hour}
	p.OnRetry = func(int, error) { cancel() }

	err := Do(ctx, p, func(_ context.Context) error {
		calls++
		return errUnavailable
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_CustomRetryable(t *testing.T) {
	calls := 0
	p := fastPolicy(3)
	p.Retryable = func(error) bool { return true }
	_ = Do(context.Background(), p, func(_ context.Context) error {
		calls++
		return errors.New("anything")
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_OnRetryAttempts(t *testing.T) {
	var attempts []int
	p := fastPolicy(3)
	p.OnRetry = func(a int, _ error) { attempts = append(attempts, a) }
	_ = Do(context.Background(), p, func(_ context.Context) error { return errUnavailable })
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("unexpected retry attempts %v", attempts)
	}
}

func TestDoVal(t *testing.T) {
	calls := 0
	v, err := DoVal(context.Background(), fastPolicy(3), func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errUnavailable
		}
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("got %d, %v", v, err)
	}

	v, err = DoVal(context.Background(), fastPolicy(1), func(_ context.Context) (int, error) {
		return 7, errUnavailable
	})
	if err == nil || v != 0 {
		t.Errorf("expected zero value and error, got %d, %v", v, err)
	}
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{Backoff: 100 * time.Millisecond, MaxBackoff: 350 * time.Millisecond}.withDefaults()
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond, 350 * time.Millisecond}
	for i, w := range want {
		if got := p.delay(i + 1); got != w {
			t.Errorf("delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestPolicy_DelayJitterBounds(t *testing.T) {
	p := Policy{Backoff: 100 * time.Millisecond, MaxBackoff: time.Second, Jitter: 0.5}.withDefaults()
	for range 50 {
		d := p.delay(1)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("delay %v outside jitter bounds", d)
		}
	}
}

func TestPolicy_WithDefaults(t *testing.T) {
	p := Policy{Jitter: -1}.withDefaults()
	if p.Attempts != 3 || p.Backoff != 250*time.Millisecond || p.MaxBackoff != 10*time.Second || p.Jitter != 0 {
		t.Errorf("unexpected defaults %+v", p)
	}
}

func TestLogRetry(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	LogRetry("list firms")(1, errUnavailable)
}
