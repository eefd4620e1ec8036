package integration

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"framepick/internal/database"
	"framepick/internal/frame"
)

func TestScanAnalyzePersist(t *testing.T) {
	ts := setupTestServer(t, goodVerdict, excellentVerdict)

	resp := postJSON(t, ts.Server.URL+"/api/scan", map[string]any{"interval": 5})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// 20s clip at interval 5 yields 4 frames.
	waitFor(t, "scan to finish and persist", func() bool {
		return countFramesInDB(t, ts.DB) == 4
	})

	frames := ts.App.Store.All()
	if len(frames) != 4 {
		t.Fatalf("Expected 4 frames in memory, got %d", len(frames))
	}
	excellent := 0
	for _, f := range frames {
		if f.Analysis == nil {
			t.Errorf("Frame %s has no verdict", f.ID)
			continue
		}
		if f.Analyzing {
			t.Errorf("Frame %s still flagged analyzing", f.ID)
		}
		if f.Analysis.Quality == frame.QualityExcellent {
			excellent++
			if !f.Selected {
				t.Errorf("Excellent frame %s not auto-selected", f.ID)
			}
		}
	}
	if excellent != 2 {
		t.Errorf("Expected 2 Excellent verdicts from alternating stub, got %d", excellent)
	}
}

func TestSecondScanSupersedesFirst(t *testing.T) {
	ts := setupTestServer(t)

	resp := postJSON(t, ts.Server.URL+"/api/scan", map[string]any{"interval": 5})
	resp.Body.Close()
	waitFor(t, "first scan", func() bool { return countFramesInDB(t, ts.DB) == 4 })

	firstIDs := map[string]bool{}
	for _, f := range ts.App.Store.All() {
		firstIDs[f.ID] = true
	}

	resp = postJSON(t, ts.Server.URL+"/api/scan", map[string]any{"interval": 10, "range": "first-half"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	// First half of 20s at interval 10 yields 1 frame.
	waitFor(t, "second scan", func() bool { return countFramesInDB(t, ts.DB) == 1 })

	for _, f := range ts.App.Store.All() {
		if firstIDs[f.ID] {
			t.Errorf("Frame %s from the superseded scan survived", f.ID)
		}
	}
}

func TestSelectEnhanceExport(t *testing.T) {
	ts := setupTestServer(t)

	resp := postJSON(t, ts.Server.URL+"/api/scan", map[string]any{"interval": 10})
	resp.Body.Close()
	waitFor(t, "scan", func() bool { return countFramesInDB(t, ts.DB) == 2 })

	target := ts.App.Store.All()[0]

	resp = postJSON(t, ts.Server.URL+"/api/frames/"+target.ID+"/select", map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Select: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.Server.URL+"/api/frames/"+target.ID+"/enhance",
		map[string]any{"styles": []string{"Unblur"}})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Enhance: expected 202, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	waitFor(t, "enhancement", func() bool {
		f, ok := ts.App.Store.Get(target.ID)
		return ok && f.IsEnhanced() && !f.Enhancing
	})
	enhanced, _ := ts.App.Store.Get(target.ID)
	if enhanced.Analysis.Quality != frame.QualityExcellent {
		t.Errorf("Enhanced frame's verdict not promoted, got %s", enhanced.Analysis.Quality)
	}

	resp = postJSON(t, ts.Server.URL+"/api/export", map[string]any{"project": "weekend"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Export: expected 200, got %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Unexpected content type %q", ct)
	}
	bundle, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read bundle: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(bundle), int64(len(bundle)))
	if err != nil {
		t.Fatalf("Bundle is not a zip: %v", err)
	}
	// One keeper image plus the manifest.
	if len(reader.File) != 2 {
		t.Errorf("Expected 2 bundle entries, got %d", len(reader.File))
	}
	foundManifest := false
	for _, zf := range reader.File {
		if zf.Name == "manifest.json" {
			foundManifest = true
		}
	}
	if !foundManifest {
		t.Error("Bundle missing manifest.json")
	}
}

func TestProjectSurvivesReload(t *testing.T) {
	ts := setupTestServer(t)

	resp := postJSON(t, ts.Server.URL+"/api/scan", map[string]any{"interval": 10})
	resp.Body.Close()
	waitFor(t, "scan", func() bool { return countFramesInDB(t, ts.DB) == 2 })

	// A fresh repo over the same database sees the same project, the way the
	// serve command does on startup.
	reloaded, err := database.NewProjectRepo(ts.DB).LoadProject(context.Background())
	if err != nil {
		t.Fatalf("Failed to reload project: %v", err)
	}
	if len(reloaded) != 2 {
		t.Fatalf("Expected 2 persisted frames, got %d", len(reloaded))
	}
	for _, f := range reloaded {
		if f.Analysis == nil {
			t.Errorf("Persisted frame %s lost its verdict", f.ID)
		}
		if f.Analyzing || f.Enhancing {
			t.Errorf("Persisted frame %s not at rest", f.ID)
		}
	}
}

func TestResetClearsEverything(t *testing.T) {
	ts := setupTestServer(t)

	resp := postJSON(t, ts.Server.URL+"/api/scan", map[string]any{"interval": 10})
	resp.Body.Close()
	waitFor(t, "scan", func() bool { return countFramesInDB(t, ts.DB) == 2 })

	resp = postJSON(t, ts.Server.URL+"/api/reset", map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Reset: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	if ts.App.Store.Len() != 0 {
		t.Error("Store not cleared")
	}
	if count := countFramesInDB(t, ts.DB); count != 0 {
		t.Errorf("Expected empty project table, got %d rows", count)
	}
}
