package export_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"kitsusync/internal/config"
	"kitsusync/internal/export"
	"kitsusync/internal/kitsu"
	"kitsusync/internal/thumbnails"
)

// fakeKitsu serves canned JSON bodies keyed by path and counts requests.
type fakeKitsu struct {
	*httptest.Server

	mu       sync.Mutex
	bodies   map[string]string
	requests map[string]int
}

func newFakeKitsu(t *testing.T, bodies map[string]string) *fakeKitsu {
	t.Helper()
	f := &fakeKitsu{bodies: bodies, requests: map[string]int{}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.URL.Path]++
		f.mu.Unlock()

		if r.URL.Path == "/auth/login" {
			_, _ = w.Write([]byte(`{"access_token":"tok"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/pictures/") {
			_, _ = w.Write([]byte("png:" + r.URL.Path))
			return
		}
		body, ok := f.bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeKitsu) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *fakeKitsu) pictureRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for path, n := range f.requests {
		if strings.HasPrefix(path, "/pictures/") {
			total += n
		}
	}
	return total
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Kitsu.BaseURL = baseURL
	cfg.Kitsu.Email = "export@example.com"
	cfg.Kitsu.Password = "secret"
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	return &cfg
}

func newExporter(t *testing.T, cfg *config.Config, opts ...export.Option) (*export.Exporter, *thumbnails.Syncer) {
	t.Helper()
	client, err := kitsu.New(cfg.Kitsu.BaseURL)
	if err != nil {
		t.Fatalf("kitsu.New: %v", err)
	}
	syncer := thumbnails.NewSyncer(client, thumbnails.WithWorkers(cfg.Export.ImageWorkers), thumbnails.WithForce(cfg.Export.ForceImages))
	return export.New(cfg, client, syncer, nil, opts...), syncer
}

const (
	contextBody = `{
		"projects": [{"id": "p1", "name": "Sprite Fright", "fps": "24", "has_avatar": true}],
		"persons": [{"id": "u1", "full_name": "Ann", "has_avatar": true, "email": "ann@example.com", "phone": "123"}],
		"task_types": []
	}`
	personsBody = `[
		{"id": "u1", "full_name": "Ann", "has_avatar": true},
		{"id": "u2", "full_name": "Ben", "has_avatar": false}
	]`
	shotsBody = `[
		{"id": "s2", "name": "SH020", "preview_file_id": "pf2", "sequence_id": "q1", "tasks": [{"task_status_id": "ts", "task_type_id": "tt", "assignees": ["u1"]}], "data": {"frame_in": 200, "frame_out": 400}},
		{"id": "s1", "name": "SH010", "preview_file_id": null, "sequence_id": "q1", "tasks": [], "data": {"frame_in": "100", "frame_out": "200"}},
		{"id": "s3", "name": "SH030", "preview_file_id": "pf3", "sequence_id": "q1", "tasks": [], "data": {"frame_out": 500}}
	]`
	assetsBody = `[
		{"id": "a1", "name": "Rex", "asset_type_id": "at1", "preview_file_id": "pfa", "canceled": false, "tasks": [{"task_status_id": "ts", "task_type_id": "tt", "assignees": null}]},
		{"id": "a2", "name": "Old Rex", "asset_type_id": "at1", "preview_file_id": null, "canceled": true, "tasks": []}
	]`
	sequencesBody = `[{"id": "q1", "name": "SQ01"}, {"id": "q2", "name": "SQ02"}]`
)

func defaultBodies() map[string]string {
	return map[string]string{
		"/data/user/context":                     contextBody,
		"/data/persons":                          personsBody,
		"/data/asset-types":                      `[{"id": "at1", "name": "Character", "extra": 1}]`,
		"/data/task-types":                       `[{"id": "tt", "name": "Layout", "color": "#ff0000", "for_shots": true}]`,
		"/data/task-status":                      `[{"id": "ts", "name": "WIP", "color": "#3273dc"}]`,
		"/data/projects/p1":                      `{"id": "p1", "name": "Sprite Fright", "fps": "24", "ratio": "2.39"}`,
		"/data/shots/with-tasks":                 shotsBody,
		"/data/assets/with-tasks":                assetsBody,
		"/data/sequences":                        sequencesBody,
		"/data/projects/p1/sequences/q1/casting": `{"s1": [{"asset_id": "a1", "nb_occurences": 1}]}`,
		"/data/projects/p1/sequences/q2/casting": `{}`,
	}
}
