package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"framepick/internal/store"
)

// fakeCapturer serves a fixed duration and records capture timestamps.
// Timestamps listed in failAt produce capture errors.
type fakeCapturer struct {
	duration    float64
	durationErr error
	failAt      map[float64]bool
	timestamps  []float64
	widths      []int
}

func (c *fakeCapturer) Duration(ctx context.Context) (float64, error) {
	return c.duration, c.durationErr
}

func (c *fakeCapturer) Capture(ctx context.Context, ts float64, maxWidth int) ([]byte, error) {
	c.timestamps = append(c.timestamps, ts)
	c.widths = append(c.widths, maxWidth)
	if c.failAt[ts] {
		return nil, errors.New("decode failed")
	}
	return []byte(fmt.Sprintf("img@%.2f", ts)), nil
}

// recordingDispatcher collects dispatched frame ids.
type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
}

func (d *recordingDispatcher) Go(ctx context.Context, frameID string, image []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, frameID)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScanFullRange(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{duration: 10}
	disp := &recordingDispatcher{}
	sm := New(s, cap, disp, quiet())

	n, err := sm.Scan(context.Background(), Settings{Range: RangeFull, Interval: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 samples, got %d", n)
	}
	want := []float64{0, 5}
	if len(cap.timestamps) != len(want) {
		t.Fatalf("expected timestamps %v, got %v", want, cap.timestamps)
	}
	for i, ts := range want {
		if cap.timestamps[i] != ts {
			t.Errorf("sample %d: expected t=%v, got %v", i, ts, cap.timestamps[i])
		}
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 frames in store, got %d", s.Len())
	}
	if len(disp.ids) != 2 {
		t.Errorf("expected 2 dispatches, got %d", len(disp.ids))
	}
	if sm.Progress() != 1 {
		t.Errorf("expected progress 1 after scan, got %v", sm.Progress())
	}
}

func TestScanRangeResolution(t *testing.T) {
	const duration = 100.0
	tests := []struct {
		r     Range
		start float64
		end   float64
	}{
		{RangeFull, 0, 100},
		{RangeFirstHalf, 0, 50},
		{RangeSecondHalf, 50, 100},
		{RangeQ1, 0, 25},
		{RangeQ2, 25, 50},
		{RangeQ3, 50, 75},
		{RangeQ4, 75, 100},
	}
	for _, tt := range tests {
		t.Run(tt.r.String(), func(t *testing.T) {
			start, end := tt.r.Resolve(duration)
			if start != tt.start || end != tt.end {
				t.Fatalf("expected [%v,%v), got [%v,%v)", tt.start, tt.end, start, end)
			}

			s := store.New()
			cap := &fakeCapturer{duration: duration}
			sm := New(s, cap, &recordingDispatcher{}, quiet())
			if _, err := sm.Scan(context.Background(), Settings{Range: tt.r, Interval: 10}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, ts := range cap.timestamps {
				if ts < start || ts >= end {
					t.Errorf("timestamp %v outside [%v,%v)", ts, start, end)
				}
			}
			for i := 1; i < len(cap.timestamps); i++ {
				if diff := cap.timestamps[i] - cap.timestamps[i-1]; diff != 10 {
					t.Errorf("spacing between samples %d and %d is %v, want 10", i-1, i, diff)
				}
			}
		})
	}
}

func TestScanFrameCap(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{duration: 1000}
	sm := New(s, cap, &recordingDispatcher{}, quiet())

	n, err := sm.Scan(context.Background(), Settings{Range: RangeFull, Interval: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != MaxFramesPerScan {
		t.Errorf("expected the scan capped at %d, got %d", MaxFramesPerScan, n)
	}
	if s.Len() != MaxFramesPerScan {
		t.Errorf("expected %d frames in store, got %d", MaxFramesPerScan, s.Len())
	}
}

func TestScanClampsInterval(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{duration: 3}
	sm := New(s, cap, &recordingDispatcher{}, quiet())

	n, err := sm.Scan(context.Background(), Settings{Range: RangeFull, Interval: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected interval clamped to 1 giving 3 samples, got %d", n)
	}
}

func TestScanEmptyRange(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{duration: 0}
	sm := New(s, cap, &recordingDispatcher{}, quiet())

	n, err := sm.Scan(context.Background(), Settings{Range: RangeFull, Interval: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 samples, got %d", n)
	}
	if sm.Progress() != 1 {
		t.Errorf("expected progress pinned to 1, got %v", sm.Progress())
	}
}

func TestScanLeavesFlagForCaller(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{duration: 10}
	sm := New(s, cap, &recordingDispatcher{}, quiet())

	if _, err := sm.Scan(context.Background(), Settings{Interval: 5}); err != nil {
		t.Fatal(err)
	}
	// Dispatched analyses are still outstanding when Scan returns; the flag
	// is the caller's to clear once they resolve.
	if !s.ScanActive() {
		t.Error("expected scan flag still set after sampling completes")
	}
}

func TestScanSkipsFailedCaptures(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{duration: 15, failAt: map[float64]bool{5: true}}
	disp := &recordingDispatcher{}
	sm := New(s, cap, disp, quiet())

	n, err := sm.Scan(context.Background(), Settings{Range: RangeFull, Interval: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 samples with the failed capture skipped, got %d", n)
	}
	if len(cap.timestamps) != 3 {
		t.Errorf("expected 3 capture attempts, got %d", len(cap.timestamps))
	}
	if len(disp.ids) != 2 {
		t.Errorf("failed capture must not be dispatched, got %d dispatches", len(disp.ids))
	}
}

func TestScanSupersedesPrior(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{duration: 10}
	sm := New(s, cap, &recordingDispatcher{}, quiet())

	if _, err := sm.Scan(context.Background(), Settings{Interval: 5}); err != nil {
		t.Fatal(err)
	}
	firstIDs := map[string]bool{}
	for _, f := range s.All() {
		firstIDs[f.ID] = true
	}

	if _, err := sm.Scan(context.Background(), Settings{Interval: 5}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected the new scan to replace the old, got %d frames", s.Len())
	}
	for _, f := range s.All() {
		if firstIDs[f.ID] {
			t.Error("a frame from the superseded scan survived")
		}
	}
}

func TestScanPassesMaxWidth(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{duration: 5}
	sm := New(s, cap, &recordingDispatcher{}, quiet())

	if _, err := sm.Scan(context.Background(), Settings{Interval: 5}); err != nil {
		t.Fatal(err)
	}
	for _, w := range cap.widths {
		if w != MaxCaptureWidth {
			t.Errorf("expected capture width %d, got %d", MaxCaptureWidth, w)
		}
	}
}

func TestScanDurationError(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{durationErr: errors.New("no such file")}
	sm := New(s, cap, &recordingDispatcher{}, quiet())

	if _, err := sm.Scan(context.Background(), Settings{}); err == nil {
		t.Fatal("expected error when duration cannot be resolved")
	}
}

func TestScanCancellation(t *testing.T) {
	s := store.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cap := &fakeCapturer{duration: 100}
	sm := New(s, cap, &recordingDispatcher{}, quiet())

	n, err := sm.Scan(ctx, Settings{Interval: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected no samples after immediate cancellation, got %d", n)
	}
}

func TestProgressMonotonicWithinScan(t *testing.T) {
	s := store.New()
	cap := &fakeCapturer{duration: 50}
	sm := New(s, cap, &recordingDispatcher{}, quiet())

	var seen []float64
	sm.OnProgress = func(p float64) { seen = append(seen, p) }

	if _, err := sm.Scan(context.Background(), Settings{Interval: 10}); err != nil {
		t.Fatal(err)
	}
	if len(seen) == 0 {
		t.Fatal("expected progress callbacks")
	}
	last := math.Inf(-1)
	for _, p := range seen {
		if p < 0 || p > 1 {
			t.Errorf("progress %v outside [0,1]", p)
		}
		if p < last {
			t.Errorf("progress went backwards: %v after %v", p, last)
		}
		last = p
	}
	if seen[len(seen)-1] != 1 {
		t.Errorf("expected final progress 1, got %v", seen[len(seen)-1])
	}
}
