package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastOptions() Options {
	return Options{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Retryable:  IsConnectionError,
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastOptions(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("dial tcp 10.0.0.1:5432: connection refused")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected ok, got %s", result)
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 invocations, got %d", calls)
	}
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	wantErr := errors.New("duplicate key value violates unique constraint")

	_, err := Do(context.Background(), fastOptions(), func(ctx context.Context) (int, error) {
		calls++
		return 0, wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected original error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected exactly 1 invocation, got %d", calls)
	}
}

func TestDo_ExhaustedReturnsLastErrorUnchanged(t *testing.T) {
	calls := 0
	lastErr := errors.New("connection reset by peer (attempt 3)")

	_, err := Do(context.Background(), fastOptions(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection reset by peer")
		}
		return 0, lastErr
	})

	if !errors.Is(err, lastErr) {
		t.Fatalf("Expected last error unchanged, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 invocations, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	opts := fastOptions()
	opts.BaseDelay = time.Minute
	opts.MaxDelay = time.Minute

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, opts, func(ctx context.Context) (int, error) {
		return 0, errors.New("connection refused")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int

	opts := fastOptions()
	opts.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_, _ = Do(context.Background(), opts, func(ctx context.Context) (int, error) {
		return 0, errors.New("i/o timeout")
	})

	if len(attempts) != 2 {
		t.Fatalf("Expected 2 retry callbacks, got %d", len(attempts))
	}
	if attempts[0] != 2 || attempts[1] != 3 {
		t.Errorf("Expected callbacks for attempts 2 and 3, got %v", attempts)
	}
}

func TestIsConnectionError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp: connection refused"), true},
		{"timeout", errors.New("read tcp: i/o timeout"), true},
		{"server unreachable", errors.New("could not connect to database server"), true},
		{"wrapped", errors.New("failed to fetch studio: connection reset by peer"), true},
		{"constraint", errors.New("violates not-null constraint"), false},
		{"not found", errors.New("record not found"), false},
		{"deadline", context.DeadlineExceeded, true},
	}

	for _, tc := range cases {
		if got := IsConnectionError(tc.err); got != tc.want {
			t.Errorf("%s: IsConnectionError = %v, want %v", tc.name, got, tc.want)
		}
	}
}
