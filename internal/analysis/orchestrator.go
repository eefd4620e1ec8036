// Package analysis orchestrates per-frame vision analysis: one outstanding
// call per frame, retry with backoff on transient failure, and a degraded
// fallback verdict on terminal failure. Failures never propagate to the
// pipeline caller; the frame's own state is the sole observable outcome.
package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"framepick/internal/frame"
	"framepick/internal/retry"
	"framepick/internal/store"
	"framepick/internal/vision"
)

// Capability is the vision-analysis backend contract.
type Capability interface {
	GradeFrame(ctx context.Context, image []byte) (string, error)
}

// DefaultPolicy is the production retry policy: up to 3 additional attempts
// on rate-limit/overload, backoff 2s, 4s, 8s.
func DefaultPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 3, BaseDelay: 2 * time.Second}
}

// Orchestrator runs analysis calls and merges verdicts into the store.
type Orchestrator struct {
	store      *store.Store
	capability Capability
	policy     retry.Policy
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// New constructs an orchestrator over the given store and capability.
func New(st *store.Store, capability Capability, policy retry.Policy, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:      st,
		capability: capability,
		policy:     policy,
		logger:     logger,
	}
}

// Go dispatches analysis of one frame without waiting for completion.
// The sampler calls this as each frame is registered so sampling and
// analysis overlap.
func (o *Orchestrator) Go(ctx context.Context, frameID string, image []byte) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.Analyze(ctx, frameID, image)
	}()
}

// Wait blocks until every dispatched analysis has resolved.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Analyze runs one frame's analysis to completion and writes the verdict (or
// the degraded fallback) into the store. Auto-selection applies only to a
// successful Excellent verdict. The write is a no-op when the frame id has
// been discarded by a superseding scan.
func (o *Orchestrator) Analyze(ctx context.Context, frameID string, image []byte) {
	verdict, ok := o.run(ctx, image)
	if !ok {
		verdict = frame.Fallback()
	}
	updated := o.store.Update(frameID, func(f *frame.Frame) {
		f.Analysis = verdict
		f.Analyzing = false
		if ok && verdict.Quality == frame.QualityExcellent {
			f.Selected = true
		}
	})
	if !updated {
		o.logger.Debug("discarding stale analysis result", "frame", frameID)
	}
}

// run returns the verdict and whether it is a genuine success (as opposed to
// the caller needing the fallback).
func (o *Orchestrator) run(ctx context.Context, image []byte) (*frame.Analysis, bool) {
	var verdict *frame.Analysis
	err := o.policy.Do(ctx, vision.IsTransient, func(ctx context.Context) error {
		payload, err := o.capability.GradeFrame(ctx, image)
		if err != nil {
			return err
		}
		decoded, err := vision.DecodeAnalysis(payload)
		if err != nil {
			return err
		}
		verdict = decoded
		return nil
	})
	if err != nil {
		o.logger.Warn("frame analysis failed, applying fallback verdict", "error", err)
		return nil, false
	}
	return verdict, true
}
