package export_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kitsusync/internal/config"
	"kitsusync/internal/export"
	"kitsusync/internal/fileutil"
	"kitsusync/internal/services"
)

func readJSON(t *testing.T, path string, out any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	fake := newFakeKitsu(t, defaultBodies())
	cfg := testConfig(t, fake.URL)
	exporter, _ := newExporter(t, cfg)

	summary, err := exporter.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	projectDir := filepath.Join(cfg.ProjectsRoot(), "p1")

	var shots []map[string]any
	readJSON(t, filepath.Join(projectDir, "shots.json"), &shots)
	if len(shots) != 2 {
		t.Fatalf("expected 2 shots, got %d", len(shots))
	}
	if shots[0]["id"] != "s1" || shots[1]["id"] != "s2" {
		t.Fatalf("expected shots sorted by start frame, got %v then %v", shots[0]["id"], shots[1]["id"])
	}
	for _, shot := range shots {
		data := shot["data"].(map[string]any)
		in, out := toFloat(t, data["frame_in"]), toFloat(t, data["frame_out"])
		if got, want := shot["durationSeconds"].(float64), (out-in)/24; math.Abs(got-want) > 1e-9 {
			t.Fatalf("duration for %v = %v, want %v", shot["id"], got, want)
		}
	}
	if shots[0]["thumbnailUrl"] != nil {
		t.Fatalf("expected null thumbnail for shot without preview, got %v", shots[0]["thumbnailUrl"])
	}
	if shots[1]["thumbnailUrl"] != "static-previews/pictures/thumbnails/preview-files/pf2.png" {
		t.Fatalf("unexpected thumbnail %v", shots[1]["thumbnailUrl"])
	}

	var assets []export.Asset
	readJSON(t, filepath.Join(projectDir, "assets.json"), &assets)
	if len(assets) != 1 || assets[0].ID != "a1" {
		t.Fatalf("expected only the non-canceled asset, got %#v", assets)
	}
	if assets[0].Tasks[0].Assignees == nil {
		t.Fatal("expected null assignees to export as an empty list")
	}

	var edit export.EditManifest
	readJSON(t, filepath.Join(projectDir, "edit.json"), &edit)
	if edit.TotalFrames != 300 || edit.FrameOffset != 100 {
		t.Fatalf("unexpected edit manifest: %+v", edit)
	}
	if edit.SourceName != "/static-projects/p1/edit.mp4" || edit.SourceType != "video/mp4" {
		t.Fatalf("unexpected edit source: %+v", edit)
	}

	var project map[string]any
	readJSON(t, filepath.Join(projectDir, "project.json"), &project)
	if project["ratio"] != "2.39" {
		t.Fatalf("expected raw project detail, got %v", project)
	}

	if _, err := os.Stat(filepath.Join(projectDir, "sequences", "q1", "casting.json")); err != nil {
		t.Fatalf("expected casting for q1: %v", err)
	}
	if _, err := os.Stat(filepath.Join(projectDir, "sequences", "q2", "casting.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no casting file for empty sequence, got %v", err)
	}

	if summary.Shots != 2 || summary.SkippedShots != 1 || summary.Assets != 1 || summary.CanceledAssets != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.CastingFiles != 1 || summary.Projects != 1 || summary.Persons != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// project, persons u1, shot pf2, asset pfa
	if summary.ImagesDownloaded != 4 {
		t.Fatalf("expected 4 downloads, got %d", summary.ImagesDownloaded)
	}
}

func TestRunContextIsPrivacyFiltered(t *testing.T) {
	fake := newFakeKitsu(t, defaultBodies())
	cfg := testConfig(t, fake.URL)
	exporter, _ := newExporter(t, cfg)

	if _, err := exporter.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var doc struct {
		Projects  []map[string]any  `json:"projects"`
		Persons   []map[string]any  `json:"persons"`
		TaskTypes []json.RawMessage `json:"task_types"`
	}
	readJSON(t, filepath.Join(cfg.Paths.OutputDir, "context.json"), &doc)
	if len(doc.Persons) != 1 || len(doc.Persons[0]) != 3 {
		t.Fatalf("expected persons reduced to three keys, got %v", doc.Persons)
	}
	if _, ok := doc.Persons[0]["email"]; ok {
		t.Fatal("email leaked into context.json")
	}
	if doc.Projects[0]["thumbnailUrl"] != "static-previews/pictures/thumbnails/projects/p1.png" {
		t.Fatalf("unexpected project thumbnail %v", doc.Projects[0]["thumbnailUrl"])
	}
	if doc.TaskTypes == nil {
		t.Fatal("expected unknown context keys to pass through")
	}

	var persons []export.Person
	readJSON(t, filepath.Join(cfg.Paths.OutputDir, "persons.json"), &persons)
	if persons[0].ProfilePicture != "static-previews/pictures/thumbnails/persons/u1.png" {
		t.Fatalf("unexpected avatar path %q", persons[0].ProfilePicture)
	}
	if persons[1].ProfilePicture != cfg.Export.PersonPlaceholder {
		t.Fatalf("expected placeholder, got %q", persons[1].ProfilePicture)
	}
	if persons[0].Color != nil {
		t.Fatal("expected no colors by default")
	}

	var taskTypes []export.TaskType
	readJSON(t, filepath.Join(cfg.Paths.OutputDir, "task-types.json"), &taskTypes)
	if len(taskTypes) != 1 || taskTypes[0].Color[0] != 1 || taskTypes[0].Color[3] != 1 {
		t.Fatalf("unexpected task types: %#v", taskTypes)
	}
}

func TestRunTwiceDownloadsImagesOnce(t *testing.T) {
	fake := newFakeKitsu(t, defaultBodies())
	cfg := testConfig(t, fake.URL)

	first, _ := newExporter(t, cfg)
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	afterFirst := fake.pictureRequests()

	second, _ := newExporter(t, cfg)
	summary, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if fake.pictureRequests() != afterFirst {
		t.Fatalf("expected no new downloads, got %d then %d", afterFirst, fake.pictureRequests())
	}
	if summary.ImagesDownloaded != 0 || summary.ImagesSkipped != 4 {
		t.Fatalf("unexpected second summary: %+v", summary)
	}

	cfg.Export.ForceImages = true
	forced, _ := newExporter(t, cfg)
	if _, err := forced.Run(context.Background()); err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if fake.pictureRequests() != 2*afterFirst {
		t.Fatalf("expected forced downloads, got %d", fake.pictureRequests())
	}
}

func TestRunShardedLayout(t *testing.T) {
	bodies := defaultBodies()
	bodies["/data/shots/with-tasks"] = `[{"id": "s1", "name": "SH010", "preview_file_id": "0a32d425-6723", "sequence_id": null, "tasks": [], "data": {"frame_in": 1, "frame_out": 25}}]`
	fake := newFakeKitsu(t, bodies)
	cfg := testConfig(t, fake.URL)
	cfg.Export.ThumbnailLayout = config.LayoutSharded
	exporter, _ := newExporter(t, cfg)

	if _, err := exporter.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.PreviewsRoot(), "0a3", "2d4", "0a32d425-6723.png")); err != nil {
		t.Fatalf("expected sharded thumbnail: %v", err)
	}
}

func TestRunProjectFilter(t *testing.T) {
	fake := newFakeKitsu(t, defaultBodies())
	cfg := testConfig(t, fake.URL)

	exporter, _ := newExporter(t, cfg, export.WithProjectFilter("missing"))
	_, err := exporter.Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown project, got %v", err)
	}

	exporter, _ = newExporter(t, cfg, export.WithProjectFilter("sprite fright"))
	summary, err := exporter.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Projects != 1 {
		t.Fatalf("expected the named project, got %+v", summary)
	}
}

func TestRunMissingFPSFallsBackToDefault(t *testing.T) {
	bodies := defaultBodies()
	bodies["/data/user/context"] = `{"projects": [{"id": "p1", "name": "Film", "has_avatar": false}], "persons": []}`
	bodies["/data/projects/p1"] = `{"id": "p1", "fps": null}`
	fake := newFakeKitsu(t, bodies)

	cfg := testConfig(t, fake.URL)
	exporter, _ := newExporter(t, cfg)
	if _, err := exporter.Run(context.Background()); !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error without fps, got %v", err)
	}

	cfg.Export.DefaultFPS = 25
	exporter, _ = newExporter(t, cfg)
	if _, err := exporter.Run(context.Background()); err != nil {
		t.Fatalf("Run with default fps: %v", err)
	}
	var shots []export.Shot
	readJSON(t, filepath.Join(cfg.ProjectsRoot(), "p1", "shots.json"), &shots)
	if shots[0].DurationSeconds != 4 {
		t.Fatalf("expected 100 frames at 25 fps, got %v", shots[0].DurationSeconds)
	}
	if fake.count("/pictures/thumbnails/projects/p1.png") != 0 {
		t.Fatal("expected no project thumbnail request when has_avatar is false")
	}
}

func TestRunShotWithoutFrameOutIsUpstreamError(t *testing.T) {
	bodies := defaultBodies()
	bodies["/data/shots/with-tasks"] = `[
		{"id": "s1", "name": "SH010", "preview_file_id": null, "sequence_id": "q1", "tasks": [], "data": {"frame_in": 100, "frame_out": 200}},
		{"id": "s2", "name": "SH020", "preview_file_id": null, "sequence_id": "q1", "tasks": [], "data": {"frame_in": 200}}
	]`
	fake := newFakeKitsu(t, bodies)
	cfg := testConfig(t, fake.URL)
	exporter, _ := newExporter(t, cfg)

	_, err := exporter.Run(context.Background())
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "SH020") {
		t.Fatalf("expected shot name in error, got %q", err)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.ProjectsRoot(), "p1", "shots.json")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no shots.json after failed shot export, got %v", statErr)
	}
}

func TestRunProjectThumbnailFollowsHasAvatar(t *testing.T) {
	tests := []struct {
		name     string
		avatar   string
		wantSync bool
	}{
		{name: "true", avatar: `, "has_avatar": true`, wantSync: true},
		{name: "absent", avatar: ``, wantSync: true},
		{name: "false", avatar: `, "has_avatar": false`, wantSync: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodies := defaultBodies()
			bodies["/data/user/context"] = `{"projects": [{"id": "p1", "name": "Film", "fps": 24` + tt.avatar + `}], "persons": []}`
			fake := newFakeKitsu(t, bodies)
			cfg := testConfig(t, fake.URL)
			exporter, _ := newExporter(t, cfg)

			if _, err := exporter.Run(context.Background()); err != nil {
				t.Fatalf("Run returned error: %v", err)
			}

			var doc struct {
				Projects []map[string]any `json:"projects"`
			}
			readJSON(t, filepath.Join(cfg.Paths.OutputDir, "context.json"), &doc)
			if len(doc.Projects) != 1 {
				t.Fatalf("expected one project, got %d", len(doc.Projects))
			}
			requested := fake.count("/pictures/thumbnails/projects/p1.png")
			local := filepath.Join(cfg.PreviewsRoot(), "pictures", "thumbnails", "projects", "p1.png")
			exists, err := fileutil.Exists(local)
			if err != nil {
				t.Fatal(err)
			}
			if tt.wantSync {
				if requested != 1 || !exists {
					t.Fatalf("expected project thumbnail sync, requests=%d exists=%v", requested, exists)
				}
				if doc.Projects[0]["thumbnailUrl"] != "static-previews/pictures/thumbnails/projects/p1.png" {
					t.Fatalf("unexpected thumbnailUrl %v", doc.Projects[0]["thumbnailUrl"])
				}
				return
			}
			if requested != 0 || exists {
				t.Fatalf("expected no project thumbnail, requests=%d exists=%v", requested, exists)
			}
			if doc.Projects[0]["thumbnailUrl"] != nil {
				t.Fatalf("expected null thumbnailUrl, got %v", doc.Projects[0]["thumbnailUrl"])
			}
		})
	}
}

func TestRunAuthFailureStopsBeforeFetching(t *testing.T) {
	fake := newFakeKitsu(t, defaultBodies())
	cfg := testConfig(t, fake.URL)
	cfg.Kitsu.Password = ""
	exporter, _ := newExporter(t, cfg)

	if _, err := exporter.Run(context.Background()); err == nil {
		t.Fatal("expected error without credentials")
	}
	if fake.count("/data/user/context") != 0 {
		t.Fatal("expected no data requests after failed login")
	}
}

func toFloat(t *testing.T, value any) float64 {
	t.Helper()
	switch v := value.(type) {
	case float64:
		return v
	case string:
		var n float64
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			t.Fatalf("parse %q: %v", v, err)
		}
		return n
	default:
		t.Fatalf("unexpected frame value %T", value)
		return 0
	}
}
