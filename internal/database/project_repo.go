package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"framepick/internal/frame"
)

// Placeholder values applied to records persisted before the corresponding
// field existed.
const (
	defaultTechnicalAdvice  = "No technical advice recorded"
	defaultCompositionScore = 5
)

// ProjectRepo persists the frame collection. Transient flags (isAnalyzing,
// isEnhancing) are not stored; loaded frames are always at rest.
type ProjectRepo struct {
	db *DB
}

// NewProjectRepo constructs a repo over the database.
func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// storedAnalysis mirrors the persisted verdict with pointer fields where a
// missing value must be distinguishable from a zero one.
type storedAnalysis struct {
	Quality          frame.Quality  `json:"quality"`
	QualityReason    string         `json:"qualityReason"`
	People           []string       `json:"people"`
	ShotType         frame.ShotType `json:"shotType"`
	Tags             []string       `json:"tags"`
	CompositionScore *float64       `json:"compositionScore"`
	TechnicalAdvice  *string        `json:"technicalAdvice"`
	SubjectID        string         `json:"subjectId,omitempty"`
}

// SaveProject replaces the persisted collection with the given frames,
// preserving order.
func (r *ProjectRepo) SaveProject(ctx context.Context, frames []*frame.Frame) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_frames`); err != nil {
		return fmt.Errorf("failed to clear previous project: %w", err)
	}

	insert := `
		INSERT INTO project_frames (
			id, position, timestamp, image, enhanced_image,
			analysis, selected, applied_enhancements
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	for position, f := range frames {
		var analysisJSON sql.NullString
		if f.Analysis != nil {
			encoded, err := json.Marshal(f.Analysis)
			if err != nil {
				return fmt.Errorf("failed to marshal analysis for frame %s: %w", f.ID, err)
			}
			analysisJSON = sql.NullString{String: string(encoded), Valid: true}
		}
		styles := f.AppliedEnhancements
		if styles == nil {
			// A nil slice would round-trip as JSON null and undo the
			// empty-slice default applied on load.
			styles = []frame.EnhancementStyle{}
		}
		stylesJSON, err := json.Marshal(styles)
		if err != nil {
			return fmt.Errorf("failed to marshal enhancements for frame %s: %w", f.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insert,
			f.ID, position, f.Timestamp, f.Image, f.EnhancedImage,
			analysisJSON, f.Selected, string(stylesJSON),
		); err != nil {
			return fmt.Errorf("failed to insert frame %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// LoadProject returns the persisted collection in saved order, defensively
// defaulting fields absent from older records.
func (r *ProjectRepo) LoadProject(ctx context.Context) ([]*frame.Frame, error) {
	query := `
		SELECT id, timestamp, image, enhanced_image, analysis, selected, applied_enhancements
		FROM project_frames
		ORDER BY position`

	rows, err := r.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query project frames: %w", err)
	}
	defer rows.Close()

	var frames []*frame.Frame
	for rows.Next() {
		f := &frame.Frame{}
		var analysisJSON, stylesJSON sql.NullString
		if err := rows.Scan(
			&f.ID, &f.Timestamp, &f.Image, &f.EnhancedImage,
			&analysisJSON, &f.Selected, &stylesJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		if analysisJSON.Valid && analysisJSON.String != "" {
			analysis, err := decodeStoredAnalysis(analysisJSON.String)
			if err != nil {
				return nil, fmt.Errorf("failed to decode analysis for frame %s: %w", f.ID, err)
			}
			f.Analysis = analysis
		}
		f.AppliedEnhancements = []frame.EnhancementStyle{}
		if stylesJSON.Valid && stylesJSON.String != "" && stylesJSON.String != "null" {
			if err := json.Unmarshal([]byte(stylesJSON.String), &f.AppliedEnhancements); err != nil {
				f.AppliedEnhancements = []frame.EnhancementStyle{}
			}
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// ClearProject removes every persisted frame.
func (r *ProjectRepo) ClearProject(ctx context.Context) error {
	_, err := r.db.conn.ExecContext(ctx, `DELETE FROM project_frames`)
	return err
}

func decodeStoredAnalysis(payload string) (*frame.Analysis, error) {
	var stored storedAnalysis
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return nil, err
	}
	analysis := &frame.Analysis{
		Quality:          stored.Quality,
		QualityReason:    stored.QualityReason,
		People:           stored.People,
		ShotType:         stored.ShotType,
		Tags:             stored.Tags,
		CompositionScore: defaultCompositionScore,
		TechnicalAdvice:  defaultTechnicalAdvice,
		SubjectID:        stored.SubjectID,
	}
	if stored.CompositionScore != nil {
		analysis.CompositionScore = *stored.CompositionScore
	}
	if stored.TechnicalAdvice != nil {
		analysis.TechnicalAdvice = *stored.TechnicalAdvice
	}
	if analysis.People == nil {
		analysis.People = []string{}
	}
	if analysis.Tags == nil {
		analysis.Tags = []string{}
	}
	return analysis, nil
}
