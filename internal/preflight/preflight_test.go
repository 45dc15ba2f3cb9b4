package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"kitsusync/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCreatableDirectory_Missing(t *testing.T) {
	result := CheckCreatableDirectory("output", filepath.Join(t.TempDir(), "a", "b"))
	if !result.Passed {
		t.Fatalf("expected pass when parent is writable, got: %s", result.Detail)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("volume", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte minimum, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("volume", filepath.Join(dir, "missing"), 1<<62); result.Passed {
		t.Fatal("expected failure with an impossible minimum")
	}
}

func TestCheckAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"api":"Zou","version":"0.20"}`))
	}))
	defer srv.Close()

	if result := CheckAPI(context.Background(), srv.URL+"/"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckAPI(context.Background(), ""); result.Passed {
		t.Fatal("expected failure for missing url")
	}
}

func TestCheckCredentials_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"message":"Wrong credentials"}`))
	}))
	defer srv.Close()

	result := CheckCredentials(context.Background(), srv.URL, "a@b.c", "bad", "")
	if result.Passed {
		t.Fatal("expected failure for rejected login")
	}
}

func TestCheckCredentials_Token(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"projects":[],"persons":[]}`))
	}))
	defer srv.Close()

	if result := CheckCredentials(context.Background(), srv.URL, "", "", "tok"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestRun_NilConfig(t *testing.T) {
	if results := Run(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRun_SkipsLoginWhenAPIUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Kitsu.BaseURL = "http://127.0.0.1:1"

	results := Run(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	last := results[len(results)-1]
	if last.Name != "Kitsu API" || last.Passed {
		t.Fatalf("expected failing API check last, got %+v", last)
	}
	for _, r := range Failed(results) {
		if r.Name == "Output directory" || r.Name == "State directory" {
			t.Fatalf("unexpected directory failure: %+v", r)
		}
	}
}
