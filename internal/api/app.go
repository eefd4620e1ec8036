// Package api exposes the frame library over HTTP for the front end. It owns
// no business rules: handlers translate requests into store, sampler, and
// orchestrator calls.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"framepick/internal/analysis"
	"framepick/internal/enhance"
	"framepick/internal/frame"
	"framepick/internal/sampler"
	"framepick/internal/store"
)

// ProjectStore is the load/save/clear persistence contract consumed by the
// API.
type ProjectStore interface {
	SaveProject(ctx context.Context, frames []*frame.Frame) error
	ClearProject(ctx context.Context) error
}

// App wires the HTTP surface to the pipeline components.
type App struct {
	Store    *store.Store
	Sampler  *sampler.Sampler
	Analyzer *analysis.Orchestrator
	Enhancer *enhance.Orchestrator
	Repo     ProjectStore
	Logger   *slog.Logger

	scanMu     sync.Mutex
	scanActive bool
	persistMu  sync.Mutex
}

func (app *App) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		app.Logger.Error("failed to encode response", "error", err)
	}
}

func jsonDecode(r *http.Request, target any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func (app *App) writeError(w http.ResponseWriter, status int, message string) {
	app.writeJSON(w, status, map[string]string{"error": message})
}

// schedulePersist saves the current collection after a successful mutation,
// decoupled from the request path. Saves are serialized; a failure is logged
// and never corrupts in-memory state.
func (app *App) schedulePersist() {
	go func() {
		app.persistMu.Lock()
		defer app.persistMu.Unlock()
		if err := app.Repo.SaveProject(context.Background(), app.Store.All()); err != nil {
			app.Logger.Error("failed to persist project", "error", err)
		}
	}()
}
