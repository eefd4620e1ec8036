// Package retry provides the retryable-task policy shared by the analysis
// and enhancement orchestrators: a bounded number of re-attempts with
// exponential backoff, applied only to failures the caller classifies as
// transient.
package retry

import (
	"context"
	"time"
)

// Classifier reports whether an error is transient and worth retrying.
// Anything else is terminal for the task.
type Classifier func(error) bool

// Policy describes how a task is retried. The zero value retries nothing.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// BaseDelay is the wait before the first retry; it doubles each retry.
	BaseDelay time.Duration
	// Sleep overrides how backoff waits are performed. Tests inject a
	// recorder here. Nil means a context-aware timer sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op, retrying transient failures per the policy. It returns nil on
// the first success, the terminal error immediately when transient reports
// false, and the last transient error once retries are exhausted.
func (p Policy) Do(ctx context.Context, transient Classifier, op func(context.Context) error) error {
	delay := p.BaseDelay
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || transient == nil || !transient(err) {
			return err
		}
		if serr := p.sleep(ctx, delay); serr != nil {
			return serr
		}
		delay *= 2
	}
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
