package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("rate limited")
var errTerminal = errors.New("malformed response")

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func recordingPolicy(maxRetries int) (Policy, *[]time.Duration) {
	waits := &[]time.Duration{}
	p := Policy{
		MaxRetries: maxRetries,
		BaseDelay:  2 * time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
	return p, waits
}

func TestTransientFailuresThenSuccess(t *testing.T) {
	p, waits := recordingPolicy(3)

	attempts := 0
	err := p.Do(context.Background(), isTransient, func(ctx context.Context) error {
		attempts++
		if attempts <= 2 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if len(*waits) != 2 {
		t.Fatalf("expected exactly 2 backoff waits, got %d", len(*waits))
	}
	// Each wait at least doubles the previous.
	if (*waits)[0] != 2*time.Second {
		t.Errorf("expected first wait 2s, got %v", (*waits)[0])
	}
	if (*waits)[1] < 2*(*waits)[0] {
		t.Errorf("expected second wait to double, got %v after %v", (*waits)[1], (*waits)[0])
	}
}

func TestTerminalFailureNotRetried(t *testing.T) {
	p, waits := recordingPolicy(3)

	attempts := 0
	err := p.Do(context.Background(), isTransient, func(ctx context.Context) error {
		attempts++
		return errTerminal
	})
	if !errors.Is(err, errTerminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
	if len(*waits) != 0 {
		t.Errorf("expected no backoff waits, got %d", len(*waits))
	}
}

func TestRetriesExhausted(t *testing.T) {
	p, waits := recordingPolicy(3)

	attempts := 0
	err := p.Do(context.Background(), isTransient, func(ctx context.Context) error {
		attempts++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected the transient error after exhaustion, got %v", err)
	}
	if attempts != 4 {
		t.Errorf("expected 1 + 3 attempts, got %d", attempts)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(*waits) != len(want) {
		t.Fatalf("expected %d waits, got %d", len(want), len(*waits))
	}
	for i, w := range want {
		if (*waits)[i] != w {
			t.Errorf("wait %d: expected %v, got %v", i, w, (*waits)[i])
		}
	}
}

func TestZeroPolicyDoesNotRetry(t *testing.T) {
	var p Policy
	attempts := 0
	err := p.Do(context.Background(), isTransient, func(ctx context.Context) error {
		attempts++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}
	err := p.Do(ctx, isTransient, func(ctx context.Context) error {
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
