// Package store holds the authoritative in-memory frame collection. Every
// other component reads and mutates frames through it.
package store

import (
	"sync"

	"framepick/internal/frame"
)

// Store is the single source of truth for the frame collection. Writes are
// total-record replacements: Update hands the callback a deep copy of the
// current record and swaps the whole record back in under the lock, so a
// reader can never observe a partially mutated frame.
type Store struct {
	mu         sync.RWMutex
	frames     []*frame.Frame
	index      map[string]int
	scanActive bool
}

func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Add appends a frame. Insertion order is the only iteration order the store
// guarantees.
func (s *Store) Add(f *frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[f.ID] = len(s.frames)
	s.frames = append(s.frames, f.Clone())
}

// Get returns a copy of the frame with the given id.
func (s *Store) Get(id string) (*frame.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.frames[i].Clone(), true
}

// All returns copies of every frame in insertion order.
func (s *Store) All() []*frame.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*frame.Frame, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.Clone()
	}
	return out
}

// Selected returns copies of the keeper subset in insertion order.
func (s *Store) Selected() []*frame.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*frame.Frame
	for _, f := range s.frames {
		if f.Selected {
			out = append(out, f.Clone())
		}
	}
	return out
}

// Update applies patch to a deep copy of the identified frame and replaces
// the stored record with the result. It reports whether the id was present;
// updates against absent ids are silently ignored so late results from a
// superseded scan become no-ops.
func (s *Store) Update(id string, patch func(*frame.Frame)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	next := s.frames[i].Clone()
	patch(next)
	next.ID = id // the id is immutable
	s.frames[i] = next
	return true
}

// SetAll replaces the entire collection, preserving the given order.
func (s *Store) SetAll(frames []*frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = make([]*frame.Frame, 0, len(frames))
	s.index = make(map[string]int, len(frames))
	for _, f := range frames {
		s.index[f.ID] = len(s.frames)
		s.frames = append(s.frames, f.Clone())
	}
}

// Reset discards every frame. A new scan calls this to supersede the
// previous one.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
	s.index = make(map[string]int)
}

// Len returns the number of frames.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// SetScanActive flags whether a scan is currently in progress. The filter
// keeps pending placeholders visible only while this is set.
func (s *Store) SetScanActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanActive = active
}

// ScanActive reports whether a scan is in progress.
func (s *Store) ScanActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanActive
}
