// Package sampler walks a video time range at a fixed interval, registering
// pending frame records and handing each to the analyzer without waiting, so
// sampling and analysis overlap.
package sampler

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"

	"framepick/internal/frame"
	"framepick/internal/store"
)

const (
	// MaxFramesPerScan bounds captures (and analysis calls) per scan
	// regardless of range size.
	MaxFramesPerScan = 50
	// MaxCaptureWidth bounds the capture resolution; height scales
	// proportionally.
	MaxCaptureWidth = 1280
)

// Settings describe one scan.
type Settings struct {
	Range Range
	// Interval is the spacing between samples in seconds; values below 1
	// are clamped to 1.
	Interval int
}

// Capturer is the host video capability: resolve duration, then seek and
// rasterize single frames.
type Capturer interface {
	Duration(ctx context.Context) (float64, error)
	Capture(ctx context.Context, timestamp float64, maxWidth int) ([]byte, error)
}

// Dispatcher receives each registered frame for analysis. The sampler does
// not wait for completion.
type Dispatcher interface {
	Go(ctx context.Context, frameID string, image []byte)
}

// Sampler produces a bounded sequence of pending frames per scan.
type Sampler struct {
	store      *store.Store
	capturer   Capturer
	dispatcher Dispatcher
	logger     *slog.Logger

	maxFrames int
	maxWidth  int
	progress  atomic.Uint64

	// OnProgress, when set, observes fractional progress in [0,1].
	OnProgress func(float64)
}

// New constructs a sampler over the given store and capabilities.
func New(st *store.Store, capturer Capturer, dispatcher Dispatcher, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		store:      st,
		capturer:   capturer,
		dispatcher: dispatcher,
		logger:     logger,
		maxFrames:  MaxFramesPerScan,
		maxWidth:   MaxCaptureWidth,
	}
}

// Scan runs one bounded scan. It resets the store first, so a new scan
// supersedes any prior one: late analysis results for discarded frame ids
// no-op against the store. Returns the number of frames sampled.
//
// Scan sets the store's scan-active flag but does not clear it: dispatched
// analyses are still in flight when Scan returns, and pending placeholders
// must stay visible until they resolve. The caller clears the flag after
// waiting for analysis to complete.
func (s *Sampler) Scan(ctx context.Context, settings Settings) (int, error) {
	duration, err := s.capturer.Duration(ctx)
	if err != nil {
		return 0, err
	}
	start, end := settings.Range.Resolve(duration)

	s.store.Reset()
	s.store.SetScanActive(true)
	s.setProgress(0)

	if end <= start {
		s.setProgress(1)
		return 0, nil
	}

	step := float64(settings.Interval)
	if step < 1 {
		step = 1
	}

	sampled := 0
	for t := start; t < end && sampled < s.maxFrames; t += step {
		if ctx.Err() != nil {
			return sampled, ctx.Err()
		}
		image, err := s.capturer.Capture(ctx, t, s.maxWidth)
		if err != nil {
			s.logger.Warn("frame capture failed, skipping", "timestamp", t, "error", err)
			s.setProgress((t - start) / (end - start))
			continue
		}
		fr := frame.NewPending(t, image)
		s.store.Add(fr)
		s.dispatcher.Go(ctx, fr.ID, image)
		sampled++
		s.setProgress((t - start) / (end - start))
	}
	s.setProgress(1)

	s.logger.Info("scan sampling complete", "frames", sampled,
		"range", settings.Range.String(), "interval", int(step))
	return sampled, nil
}

// Progress returns the current fractional progress in [0,1].
func (s *Sampler) Progress() float64 {
	return math.Float64frombits(s.progress.Load())
}

func (s *Sampler) setProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	s.progress.Store(math.Float64bits(p))
	if s.OnProgress != nil {
		s.OnProgress(p)
	}
}
