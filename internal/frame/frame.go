package frame

import (
	"strings"

	"github.com/google/uuid"
)

// Frame is one sampled still image plus its derived metadata and curation
// state. Frames are value-copied through the store; mutate only via
// store.Update so readers never see a half-written record.
type Frame struct {
	ID                  string             `json:"id"`
	Timestamp           float64            `json:"timestamp"`
	Image               []byte             `json:"image,omitempty"`
	EnhancedImage       []byte             `json:"enhancedImage,omitempty"`
	Analysis            *Analysis          `json:"analysis,omitempty"`
	Selected            bool               `json:"isSelected"`
	Analyzing           bool               `json:"isAnalyzing"`
	Enhancing           bool               `json:"isEnhancing"`
	AppliedEnhancements []EnhancementStyle `json:"appliedEnhancements"`
}

// NewPending creates a freshly sampled frame awaiting analysis.
func NewPending(timestamp float64, image []byte) *Frame {
	return &Frame{
		ID:        uuid.New().String(),
		Timestamp: timestamp,
		Image:     image,
		Analyzing: true,
	}
}

// Clone returns a deep copy of the frame. Empty slices stay empty rather
// than collapsing to nil, so a defensively-seeded empty collection survives
// the copy (and serializes as [] instead of null).
func (f *Frame) Clone() *Frame {
	c := *f
	if f.Image != nil {
		c.Image = append([]byte{}, f.Image...)
	}
	if f.EnhancedImage != nil {
		c.EnhancedImage = append([]byte{}, f.EnhancedImage...)
	}
	if f.Analysis != nil {
		c.Analysis = f.Analysis.Clone()
	}
	if f.AppliedEnhancements != nil {
		c.AppliedEnhancements = append([]EnhancementStyle{}, f.AppliedEnhancements...)
	}
	return &c
}

// IsEnhanced reports whether at least one enhancement has been applied.
func (f *Frame) IsEnhanced() bool {
	return len(f.AppliedEnhancements) > 0
}

// ExportImage returns the enhanced image when present, else the original.
func (f *Frame) ExportImage() []byte {
	if len(f.EnhancedImage) > 0 {
		return f.EnhancedImage
	}
	return f.Image
}

// Quality returns the frame's verdict tier, or QualityPending while the
// analysis is outstanding.
func (f *Frame) Quality() Quality {
	if f.Analysis == nil {
		return QualityPending
	}
	return f.Analysis.Quality
}

// Analysis is the verdict of one analysis call.
type Analysis struct {
	Quality          Quality  `json:"quality"`
	QualityReason    string   `json:"qualityReason"`
	People           []string `json:"people"`
	ShotType         ShotType `json:"shotType"`
	Tags             []string `json:"tags"`
	CompositionScore float64  `json:"compositionScore"`
	TechnicalAdvice  string   `json:"technicalAdvice"`
	SubjectID        string   `json:"subjectId,omitempty"`
}

// Clone returns a deep copy of the analysis. Empty slices stay empty, as in
// Frame.Clone.
func (a *Analysis) Clone() *Analysis {
	c := *a
	if a.People != nil {
		c.People = append([]string{}, a.People...)
	}
	if a.Tags != nil {
		c.Tags = append([]string{}, a.Tags...)
	}
	return &c
}

// Fallback is the degraded verdict applied when analysis terminally fails.
// It never triggers auto-selection.
func Fallback() *Analysis {
	return &Analysis{
		Quality:          QualityFair,
		QualityReason:    "AI Analysis Failed",
		People:           []string{},
		ShotType:         ShotUnknown,
		Tags:             []string{},
		CompositionScore: 0,
		TechnicalAdvice:  "Retry analysis",
	}
}

// AdviceItems splits the technical advice into discrete fix suggestions.
func (a *Analysis) AdviceItems() []string {
	var items []string
	for _, part := range strings.FieldsFunc(a.TechnicalAdvice, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == ';'
	}) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// SearchableTags is the frame's tag set used by the tag filter: the analysis
// tags plus the subject descriptor with underscores humanized to spaces.
func (a *Analysis) SearchableTags() []string {
	tags := append([]string(nil), a.Tags...)
	if a.SubjectID != "" {
		tags = append(tags, strings.ReplaceAll(a.SubjectID, "_", " "))
	}
	return tags
}
