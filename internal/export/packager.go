// Package export packages the keeper subset into a zip bundle: a manifest
// plus one image per keeper under a fixed naming convention.
package export

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"framepick/internal/frame"
)

// ErrNoKeepers is returned when nothing is selected for export.
var ErrNoKeepers = errors.New("export: no keepers selected")

// ErrNoProject is returned when the project name is missing.
var ErrNoProject = errors.New("export: project name required")

// ManifestEntry describes one keeper in the bundle manifest.
type ManifestEntry struct {
	ID               string   `json:"id"`
	Timestamp        float64  `json:"timestamp"`
	Quality          string   `json:"quality"`
	CompositionScore float64  `json:"compositionScore"`
	Tags             []string `json:"tags"`
	TechnicalAdvice  string   `json:"technicalAdvice"`
	People           []string `json:"people"`
	ShotType         string   `json:"shotType"`
	IsEnhanced       bool     `json:"isEnhanced"`
}

// ImageName returns the bundle filename for a keeper:
// frame_<timestamp with 2 decimals>s_<quality-or-"ungraded">.jpg. The
// enhanced image is used when present, the original otherwise.
func ImageName(f *frame.Frame) string {
	grade := "ungraded"
	if f.Analysis != nil && f.Analysis.Quality != frame.QualityPending {
		grade = strings.ToLower(f.Analysis.Quality.String())
	}
	return fmt.Sprintf("frame_%.2fs_%s.jpg", f.Timestamp, grade)
}

// Package writes the bundle for the keepers to w. It fails before any write
// when the project name is empty or there are no keepers.
func Package(w io.Writer, projectName string, keepers []*frame.Frame) error {
	if strings.TrimSpace(projectName) == "" {
		return ErrNoProject
	}
	if len(keepers) == 0 {
		return ErrNoKeepers
	}

	archive := zip.NewWriter(w)

	// Saved versions can share a timestamp and grade with their source, which
	// would collide on the naming convention; zip rejects duplicate entries.
	seen := map[string]int{}

	manifest := make([]ManifestEntry, 0, len(keepers))
	for _, f := range keepers {
		entry := ManifestEntry{
			ID:         f.ID,
			Timestamp:  f.Timestamp,
			Quality:    f.Quality().String(),
			Tags:       []string{},
			People:     []string{},
			ShotType:   frame.ShotUnknown.String(),
			IsEnhanced: f.IsEnhanced(),
		}
		if f.Analysis != nil {
			entry.CompositionScore = f.Analysis.CompositionScore
			entry.TechnicalAdvice = f.Analysis.TechnicalAdvice
			entry.ShotType = f.Analysis.ShotType.String()
			if f.Analysis.Tags != nil {
				entry.Tags = f.Analysis.Tags
			}
			if f.Analysis.People != nil {
				entry.People = f.Analysis.People
			}
		}
		manifest = append(manifest, entry)

		name := ImageName(f)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d.jpg", strings.TrimSuffix(name, ".jpg"), n)
		}
		imageWriter, err := archive.Create(name)
		if err != nil {
			return fmt.Errorf("export: create image entry: %w", err)
		}
		if _, err := imageWriter.Write(f.ExportImage()); err != nil {
			return fmt.Errorf("export: write image: %w", err)
		}
	}

	manifestWriter, err := archive.Create("manifest.json")
	if err != nil {
		return fmt.Errorf("export: create manifest: %w", err)
	}
	encoder := json.NewEncoder(manifestWriter)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(manifest); err != nil {
		return fmt.Errorf("export: write manifest: %w", err)
	}

	return archive.Close()
}
