// Package filter evaluates frames against a filter specification. Matches is
// a pure function, safe to call on every query.
package filter

import (
	"strings"

	"framepick/internal/frame"
)

// View selects which top-level collection is being browsed.
type View int

const (
	ViewAll View = iota
	// ViewLibrary shows only keepers (selected frames).
	ViewLibrary
)

// SubView narrows the library to enhanced or untouched frames.
type SubView int

const (
	SubAll SubView = iota
	SubEnhanced
	SubOriginal
)

// Spec is the filter specification. Unset dimensions ("any") skip their
// predicate.
type Spec struct {
	MinQuality    frame.Quality
	MinQualitySet bool
	Shot          frame.ShotType
	ShotSet       bool
	// ActiveTags are OR-matched: a frame passes when at least one active
	// tag is a case-insensitive substring of at least one of the frame's
	// searchable tags.
	ActiveTags []string
}

// Matches reports whether the frame is visible under the spec. Predicates
// are evaluated in a fixed order and short-circuit on the first failure.
// scanActive keeps pending placeholders visible while extraction runs.
func Matches(f *frame.Frame, spec Spec, view View, sub SubView, scanActive bool) bool {
	if view == ViewLibrary && !f.Selected {
		return false
	}
	switch sub {
	case SubEnhanced:
		if !f.IsEnhanced() {
			return false
		}
	case SubOriginal:
		if f.IsEnhanced() {
			return false
		}
	}
	if f.Analysis == nil {
		return scanActive
	}
	if spec.MinQualitySet && f.Analysis.Quality < spec.MinQuality {
		return false
	}
	if spec.ShotSet && f.Analysis.ShotType != spec.Shot {
		return false
	}
	if len(spec.ActiveTags) > 0 && !matchesAnyTag(f.Analysis, spec.ActiveTags) {
		return false
	}
	return true
}

func matchesAnyTag(a *frame.Analysis, active []string) bool {
	searchable := a.SearchableTags()
	for _, want := range active {
		want = strings.ToLower(want)
		for _, have := range searchable {
			if strings.Contains(strings.ToLower(have), want) {
				return true
			}
		}
	}
	return false
}
