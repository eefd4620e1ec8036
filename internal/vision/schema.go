package vision

import (
	"encoding/json"
	"strings"

	"framepick/internal/frame"
)

// rawVerdict mirrors the response contract with pointer fields so that a
// missing required field is distinguishable from a zero value.
type rawVerdict struct {
	Quality          *string  `json:"quality"`
	QualityReason    *string  `json:"qualityReason"`
	People           []string `json:"people"`
	ShotType         *string  `json:"shotType"`
	Tags             []string `json:"tags"`
	CompositionScore *float64 `json:"compositionScore"`
	TechnicalAdvice  *string  `json:"technicalAdvice"`
	SubjectID        *string  `json:"subjectId"`
}

// DecodeAnalysis validates the verdict payload against the response
// contract. Any violation is a SchemaError; the caller routes those into the
// terminal-fallback path rather than trusting a partial verdict.
func DecodeAnalysis(payload string) (*frame.Analysis, error) {
	payload = stripCodeFence(payload)

	var raw rawVerdict
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, &SchemaError{Field: "verdict", Reason: "not a JSON object: " + err.Error()}
	}
	if raw.Quality == nil {
		return nil, &SchemaError{Field: "quality", Reason: "required field missing"}
	}
	if raw.ShotType == nil {
		return nil, &SchemaError{Field: "shotType", Reason: "required field missing"}
	}
	if raw.Tags == nil {
		return nil, &SchemaError{Field: "tags", Reason: "required field missing"}
	}
	if raw.CompositionScore == nil {
		return nil, &SchemaError{Field: "compositionScore", Reason: "required field missing"}
	}
	if raw.TechnicalAdvice == nil {
		return nil, &SchemaError{Field: "technicalAdvice", Reason: "required field missing"}
	}

	quality, err := frame.ParseQuality(*raw.Quality)
	if err != nil {
		return nil, &SchemaError{Field: "quality", Reason: err.Error()}
	}
	shot, err := frame.ParseShotType(*raw.ShotType)
	if err != nil {
		return nil, &SchemaError{Field: "shotType", Reason: err.Error()}
	}
	score := *raw.CompositionScore
	if score < 1 || score > 10 {
		return nil, &SchemaError{Field: "compositionScore", Reason: "outside domain 1-10"}
	}

	analysis := &frame.Analysis{
		Quality:          quality,
		ShotType:         shot,
		Tags:             raw.Tags,
		CompositionScore: score,
		TechnicalAdvice:  *raw.TechnicalAdvice,
		People:           raw.People,
	}
	if raw.QualityReason != nil {
		analysis.QualityReason = *raw.QualityReason
	}
	if raw.SubjectID != nil {
		analysis.SubjectID = *raw.SubjectID
	}
	if analysis.People == nil {
		analysis.People = []string{}
	}
	return analysis, nil
}

// stripCodeFence tolerates models that wrap JSON in a markdown fence even
// when json_object mode is requested.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "json"))
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
