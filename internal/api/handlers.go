package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"framepick/internal/export"
	"framepick/internal/filter"
	"framepick/internal/frame"
	"framepick/internal/sampler"
)

// PingHandler answers liveness probes.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type frameView struct {
	*frame.Frame
	AdviceItems []string `json:"adviceItems,omitempty"`
}

// FramesHandler returns the filtered frame list.
// Query: view=all|library, subview=all|enhanced|original,
// min_quality=any|Fair|Good|Excellent, shot_type=any|Posed|Candid|Unknown,
// tags=comma,separated.
func (app *App) FramesHandler(w http.ResponseWriter, r *http.Request) {
	spec, view, sub, err := parseFilterQuery(r)
	if err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	scanActive := app.Store.ScanActive()
	var visible []frameView
	for _, f := range app.Store.All() {
		if !filter.Matches(f, spec, view, sub, scanActive) {
			continue
		}
		fv := frameView{Frame: f}
		if f.Analysis != nil {
			fv.AdviceItems = f.Analysis.AdviceItems()
		}
		visible = append(visible, fv)
	}
	app.writeJSON(w, http.StatusOK, map[string]any{
		"frames":     visible,
		"total":      app.Store.Len(),
		"scanActive": scanActive,
	})
}

func parseFilterQuery(r *http.Request) (filter.Spec, filter.View, filter.SubView, error) {
	var spec filter.Spec
	q := r.URL.Query()

	view := filter.ViewAll
	if q.Get("view") == "library" {
		view = filter.ViewLibrary
	}
	sub := filter.SubAll
	switch q.Get("subview") {
	case "enhanced":
		sub = filter.SubEnhanced
	case "original":
		sub = filter.SubOriginal
	}
	if raw := q.Get("min_quality"); raw != "" && raw != "any" {
		quality, err := frame.ParseQuality(raw)
		if err != nil {
			return spec, view, sub, err
		}
		spec.MinQuality = quality
		spec.MinQualitySet = true
	}
	if raw := q.Get("shot_type"); raw != "" && raw != "any" {
		shot, err := frame.ParseShotType(raw)
		if err != nil {
			return spec, view, sub, err
		}
		spec.Shot = shot
		spec.ShotSet = true
	}
	if raw := q.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				spec.ActiveTags = append(spec.ActiveTags, tag)
			}
		}
	}
	return spec, view, sub, nil
}

type scanRequest struct {
	Range    string `json:"range"`
	Interval int    `json:"interval"`
}

// ScanHandler starts a new scan. A scan supersedes any prior collection; a
// concurrent scan request is rejected.
func (app *App) ScanHandler(w http.ResponseWriter, r *http.Request) {
	if app.Sampler == nil {
		app.writeError(w, http.StatusConflict, "no video loaded; start the server with --input")
		return
	}
	var req scanRequest
	if err := decodeBody(r, &req); err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scanRange, err := sampler.ParseRange(req.Range)
	if err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	app.scanMu.Lock()
	if app.scanActive {
		app.scanMu.Unlock()
		app.writeError(w, http.StatusConflict, "a scan is already in progress")
		return
	}
	app.scanActive = true
	app.scanMu.Unlock()

	settings := sampler.Settings{Range: scanRange, Interval: req.Interval}
	go func() {
		// The scan stays active through analysis so pending placeholders
		// remain visible and progress reports consistently.
		finish := func() {
			app.Store.SetScanActive(false)
			app.scanMu.Lock()
			app.scanActive = false
			app.scanMu.Unlock()
		}
		// Not the request context: the scan outlives the request.
		if _, err := app.Sampler.Scan(context.Background(), settings); err != nil {
			app.Logger.Error("scan failed", "error", err)
			finish()
			return
		}
		app.Analyzer.Wait()
		finish()
		app.schedulePersist()
	}()

	app.writeJSON(w, http.StatusAccepted, map[string]string{"status": "scanning"})
}

// ScanProgressHandler reports fractional scan progress.
func (app *App) ScanProgressHandler(w http.ResponseWriter, r *http.Request) {
	app.scanMu.Lock()
	active := app.scanActive
	app.scanMu.Unlock()
	progress := 0.0
	if app.Sampler != nil {
		progress = app.Sampler.Progress()
	}
	app.writeJSON(w, http.StatusOK, map[string]any{
		"progress": progress,
		"active":   active,
	})
}

// SelectHandler marks a frame as a keeper.
func (app *App) SelectHandler(w http.ResponseWriter, r *http.Request) {
	app.setSelected(w, chi.URLParam(r, "id"), true)
}

// DeselectHandler removes a frame from the keepers.
func (app *App) DeselectHandler(w http.ResponseWriter, r *http.Request) {
	app.setSelected(w, chi.URLParam(r, "id"), false)
}

func (app *App) setSelected(w http.ResponseWriter, id string, selected bool) {
	if !app.Store.Update(id, func(f *frame.Frame) { f.Selected = selected }) {
		app.writeError(w, http.StatusNotFound, "frame not found")
		return
	}
	app.schedulePersist()
	app.writeJSON(w, http.StatusOK, map[string]bool{"isSelected": selected})
}

type enhanceRequest struct {
	Advice string   `json:"advice"`
	Styles []string `json:"styles"`
}

// EnhanceHandler applies one or more styles to a single frame.
func (app *App) EnhanceHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := app.Store.Get(id); !ok {
		app.writeError(w, http.StatusNotFound, "frame not found")
		return
	}
	var req enhanceRequest
	if err := decodeBody(r, &req); err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Styles) == 0 {
		app.writeError(w, http.StatusBadRequest, "at least one style required")
		return
	}
	styles := make([]frame.EnhancementStyle, 0, len(req.Styles))
	for _, raw := range req.Styles {
		style, err := frame.ParseStyle(raw)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		styles = append(styles, style)
	}

	go func() {
		app.Enhancer.EnhanceOne(context.Background(), id, req.Advice, styles)
		app.schedulePersist()
	}()
	app.writeJSON(w, http.StatusAccepted, map[string]string{"status": "enhancing"})
}

type batchEnhanceRequest struct {
	Style string `json:"style"`
}

// BatchEnhanceHandler applies one style to every keeper, sequentially.
func (app *App) BatchEnhanceHandler(w http.ResponseWriter, r *http.Request) {
	var req batchEnhanceRequest
	if err := decodeBody(r, &req); err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	style, err := frame.ParseStyle(req.Style)
	if err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	keepers := app.Store.Selected()
	if len(keepers) == 0 {
		app.writeError(w, http.StatusBadRequest, "no keepers selected")
		return
	}
	ids := make([]string, len(keepers))
	for i, f := range keepers {
		ids[i] = f.ID
	}

	go func() {
		app.Enhancer.EnhanceMany(context.Background(), ids, style)
		app.schedulePersist()
	}()
	app.writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "enhancing",
		"targets": len(ids),
	})
}

// SaveVersionHandler clones a frame's enhanced image into a new frame.
func (app *App) SaveVersionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	newID, ok := app.Enhancer.SaveVersion(id)
	if !ok {
		app.writeError(w, http.StatusConflict, "frame has no enhanced image to save")
		return
	}
	app.schedulePersist()
	app.writeJSON(w, http.StatusCreated, map[string]string{"id": newID})
}

type exportRequest struct {
	Project string `json:"project"`
}

// ExportHandler streams a zip bundle of the keepers.
func (app *App) ExportHandler(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	err := export.Package(&buf, req.Project, app.Store.Selected())
	switch err {
	case nil:
	case export.ErrNoProject:
		app.writeError(w, http.StatusBadRequest, "project name is required")
		return
	case export.ErrNoKeepers:
		app.writeError(w, http.StatusBadRequest, "no keepers selected for export")
		return
	default:
		app.Logger.Error("export failed", "error", err)
		app.writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", strings.TrimSpace(req.Project)+".zip"))
	w.Write(buf.Bytes())
}

// ResetHandler clears the in-memory collection and the persisted project.
func (app *App) ResetHandler(w http.ResponseWriter, r *http.Request) {
	app.Store.Reset()
	if err := app.Repo.ClearProject(r.Context()); err != nil {
		app.Logger.Error("failed to clear persisted project", "error", err)
		app.writeError(w, http.StatusInternalServerError, "failed to clear project")
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return fmt.Errorf("request body required")
	}
	if err := jsonDecode(r, target); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
