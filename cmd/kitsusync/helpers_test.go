package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

type testEnv struct {
	configPath string
	outputDir  string
	stateDir   string
}

func newTestEnv(t *testing.T, baseURL string, extra string) testEnv {
	t.Helper()
	for _, key := range []string{"KITSU_URL", "KITSU_EMAIL", "KITSU_PASSWORD", "KITSU_TOKEN"} {
		t.Setenv(key, "")
	}
	root := t.TempDir()
	env := testEnv{
		configPath: filepath.Join(root, "config.toml"),
		outputDir:  filepath.Join(root, "public"),
		stateDir:   filepath.Join(root, "state"),
	}
	content := fmt.Sprintf(`[kitsu]
base_url = %q
email = "export@example.com"
password = "secret"
env_file = ""

[paths]
output_dir = %q
state_dir = %q

[logging]
format = "json"
level = "warn"
%s`, baseURL, env.outputDir, env.stateDir, extra)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

var kitsuBodies = map[string]string{
	"/data/user/context":     `{"projects": [{"id": "p1", "name": "Sprite Fright", "fps": 24, "has_avatar": false}], "persons": []}`,
	"/data/persons":          `[{"id": "u1", "full_name": "Ann", "has_avatar": false}]`,
	"/data/asset-types":      `[]`,
	"/data/task-types":       `[]`,
	"/data/task-status":      `[]`,
	"/data/projects/p1":      `{"id": "p1", "name": "Sprite Fright"}`,
	"/data/shots/with-tasks": `[
		{"id": "s1", "name": "SH010", "preview_file_id": "pf1", "sequence_id": "q1", "tasks": [], "data": {"frame_in": 10, "frame_out": 58}}
	]`,
	"/data/assets/with-tasks":                `[]`,
	"/data/sequences":                        `[{"id": "q1", "name": "SQ01"}]`,
	"/data/projects/p1/sequences/q1/casting": `{"s1": []}`,
}

func newKitsuServer(t *testing.T, loginStatus int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			w.WriteHeader(loginStatus)
			if loginStatus == http.StatusOK {
				_, _ = w.Write([]byte(`{"access_token":"tok"}`))
			}
			return
		}
		if strings.HasPrefix(r.URL.Path, "/pictures/") {
			_, _ = w.Write([]byte("png"))
			return
		}
		body, ok := kitsuBodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}
