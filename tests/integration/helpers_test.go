package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"framepick/internal/analysis"
	"framepick/internal/api"
	"framepick/internal/database"
	"framepick/internal/enhance"
	"framepick/internal/sampler"
	"framepick/internal/store"
	"framepick/internal/vision"
)

// fakeVideo stands in for the ffmpeg-backed extractor: a fixed-duration clip
// whose captures encode their timestamp.
type fakeVideo struct {
	duration float64
}

func (v fakeVideo) Duration(ctx context.Context) (float64, error) {
	return v.duration, nil
}

func (v fakeVideo) Capture(ctx context.Context, ts float64, maxWidth int) ([]byte, error) {
	return []byte(fmt.Sprintf("capture@%.2f", ts)), nil
}

// visionStub mimics the OpenAI-style endpoints the client talks to. Verdicts
// are served round-robin from the configured list.
type visionStub struct {
	mu       sync.Mutex
	verdicts []string
	calls    int
}

func (s *visionStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat/completions":
			s.mu.Lock()
			verdict := s.verdicts[s.calls%len(s.verdicts)]
			s.calls++
			s.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": verdict}},
				},
			})
		case "/images/edits":
			var req struct {
				Image string `json:"image"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			original, _ := base64.StdEncoding.DecodeString(req.Image)
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"b64_json": base64.StdEncoding.EncodeToString(append([]byte("enhanced:"), original...))},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}
}

type TestServer struct {
	Server *httptest.Server
	App    *api.App
	DB     *database.DB
	Repo   *database.ProjectRepo
	Stub   *visionStub
}

func setupTestServer(t *testing.T, verdicts ...string) *TestServer {
	t.Helper()
	if len(verdicts) == 0 {
		verdicts = []string{goodVerdict}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stub := &visionStub{verdicts: verdicts}
	stubServer := httptest.NewServer(stub.handler())
	t.Cleanup(stubServer.Close)

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := database.NewProjectRepo(db)

	client := vision.NewClient(vision.Config{
		APIKey:  "test-key",
		BaseURL: stubServer.URL,
	}, logger)

	st := store.New()
	policy := analysis.DefaultPolicy()
	analyzer := analysis.New(st, client, policy, logger)
	enhancer := enhance.New(st, client, policy, logger)
	smp := sampler.New(st, fakeVideo{duration: 20}, analyzer, logger)

	app := &api.App{
		Store:    st,
		Sampler:  smp,
		Analyzer: analyzer,
		Enhancer: enhancer,
		Repo:     repo,
		Logger:   logger,
	}
	server := httptest.NewServer(api.NewRouter(app))
	t.Cleanup(server.Close)

	return &TestServer{Server: server, App: app, DB: db, Repo: repo, Stub: stub}
}

const goodVerdict = `{"quality":"Good","qualityReason":"steady","shotType":"Candid",` +
	`"tags":["outdoor"],"compositionScore":6,"technicalAdvice":"Crop tighter."}`

const excellentVerdict = `{"quality":"Excellent","qualityReason":"striking","shotType":"Pose",` +
	`"tags":["portrait"],"compositionScore":9,"technicalAdvice":"None."}`

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to encode payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func countFramesInDB(t *testing.T, db *database.DB) int {
	t.Helper()
	var count int
	if err := db.Conn().QueryRow(`SELECT COUNT(*) FROM project_frames`).Scan(&count); err != nil {
		t.Fatalf("Failed to count frames: %v", err)
	}
	return count
}
