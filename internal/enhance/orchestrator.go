// Package enhance orchestrates image enhancement: single-frame requests with
// combined style clauses, strictly sequential batch runs, and "save version"
// cloning. Enhancement failures are contained; a failed frame simply reverts
// to its pre-enhancement state with the in-flight flag cleared.
package enhance

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"framepick/internal/frame"
	"framepick/internal/retry"
	"framepick/internal/store"
	"framepick/internal/vision"
)

const basePrompt = "Enhance this photograph: sharpen detail, correct the " +
	"lighting and exposure, and grade the color naturally."

// Capability is the enhancement backend contract: image plus prompt in, image
// out, or an explicit no-image failure.
type Capability interface {
	EnhanceImage(ctx context.Context, image []byte, prompt string) ([]byte, error)
}

// Orchestrator applies enhancement styles to frames in the store.
type Orchestrator struct {
	store      *store.Store
	capability Capability
	policy     retry.Policy
	logger     *slog.Logger
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

// BuildPrompt deterministically composes the enhancement instruction from the
// base clause, one clause per requested style, and the frame's technical
// advice.
func BuildPrompt(advice string, styles []frame.EnhancementStyle) string {
	parts := []string{basePrompt}
	for _, style := range styles {
		if clause := style.PromptClause(); clause != "" {
			parts = append(parts, clause)
		}
	}
	if advice = strings.TrimSpace(advice); advice != "" {
		parts = append(parts, "Address these specific issues: "+advice)
	}
	return strings.Join(parts, " ")
}

// EnhanceOne applies the requested styles to a single frame. On success the
// enhanced image replaces any prior one, the styles are appended to the
// frame's applied list, the frame is selected, and an existing verdict is
// promoted to Excellent (an enhanced frame is curator-approved). On failure
// nothing but the in-flight flag changes.
func (o *Orchestrator) EnhanceOne(ctx context.Context, frameID, advice string, styles []frame.EnhancementStyle) {
	fr, ok := o.store.Get(frameID)
	if !ok {
		return
	}
	o.store.Update(frameID, func(f *frame.Frame) { f.Enhancing = true })

	image, err := o.request(ctx, fr.Image, BuildPrompt(advice, styles))
	if err != nil {
		o.logger.Warn("enhancement failed", "frame", frameID, "error", err)
		o.store.Update(frameID, func(f *frame.Frame) { f.Enhancing = false })
		return
	}
	o.applyResult(frameID, image, styles)
}

// EnhanceMany applies one style to each frame in order, strictly
// sequentially: frame K+1's request is not issued until frame K's resolves.
// Every target is flagged in-flight up front; frames without a verdict are
// skipped without error.
func (o *Orchestrator) EnhanceMany(ctx context.Context, frameIDs []string, style frame.EnhancementStyle) {
	for _, id := range frameIDs {
		o.store.Update(id, func(f *frame.Frame) { f.Enhancing = true })
	}
	for _, id := range frameIDs {
		fr, ok := o.store.Get(id)
		if !ok {
			continue
		}
		if fr.Analysis == nil {
			o.store.Update(id, func(f *frame.Frame) { f.Enhancing = false })
			continue
		}
		image, err := o.request(ctx, fr.Image, BuildPrompt(fr.Analysis.TechnicalAdvice, []frame.EnhancementStyle{style}))
		if err != nil {
			o.logger.Warn("batch enhancement failed for frame", "frame", id, "error", err)
			o.store.Update(id, func(f *frame.Frame) { f.Enhancing = false })
			continue
		}
		o.applyResult(id, image, []frame.EnhancementStyle{style})
	}
}

// SaveVersion converts a frame's enhanced image into a brand-new frame: new
// id, the enhanced image as its primary image, the verdict carried over
// promoted to Excellent, selected, and with a clear enhanced slot so the new
// entry can itself be enhanced again. The source frame is never touched.
// Returns the new frame's id.
func (o *Orchestrator) SaveVersion(frameID string) (string, bool) {
	fr, ok := o.store.Get(frameID)
	if !ok || len(fr.EnhancedImage) == 0 {
		return "", false
	}
	version := &frame.Frame{
		ID:                  uuid.New().String(),
		Timestamp:           fr.Timestamp,
		Image:               fr.EnhancedImage,
		Selected:            true,
		AppliedEnhancements: fr.AppliedEnhancements,
	}
	if fr.Analysis != nil {
		carried := fr.Analysis.Clone()
		carried.Quality = frame.QualityExcellent
		version.Analysis = carried
	}
	o.store.Add(version)
	return version.ID, true
}

func (o *Orchestrator) request(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	var result []byte
	err := o.policy.Do(ctx, vision.IsTransient, func(ctx context.Context) error {
		out, err := o.capability.EnhanceImage(ctx, image, prompt)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	return result, err
}

func (o *Orchestrator) applyResult(frameID string, image []byte, styles []frame.EnhancementStyle) {
	o.store.Update(frameID, func(f *frame.Frame) {
		f.EnhancedImage = image
		f.AppliedEnhancements = append(f.AppliedEnhancements, styles...)
		f.Selected = true
		f.Enhancing = false
		if f.Analysis != nil {
			f.Analysis.Quality = frame.QualityExcellent
		}
	})
}
