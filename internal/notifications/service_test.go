package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"kitsusync/internal/config"
	"kitsusync/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []captured
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), requests...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyExportFailed(context.Background(), "run", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	server, requests := newNtfyServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL + "/kitsusync"
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyExportCompleted(ctx, notifications.ExportResult{RunID: "r1", Projects: 2, Shots: 40, Assets: 12, ImagesDownloaded: 3, Duration: 90 * time.Second}); err != nil {
		t.Fatalf("NotifyExportCompleted: %v", err)
	}
	if err := svc.NotifyExportFailed(ctx, "r2", errors.New("authentication error: kitsu: login: Wrong credentials")); err != nil {
		t.Fatalf("NotifyExportFailed: %v", err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}

	got := requests()
	if len(got) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(got))
	}
	tests := []struct {
		title    string
		tags     string
		priority string
		fragment string
	}{
		{"Kitsusync - Export Complete", "kitsusync,export,completed", "", "2 projects, 40 shots, 12 assets"},
		{"Kitsusync - Export Failed", "kitsusync,export,error", "high", "Wrong credentials"},
		{"Kitsusync - Test", "kitsusync,test", "low", "Notification system test"},
	}
	for i, tt := range tests {
		if got[i].title != tt.title || got[i].tags != tt.tags || got[i].priority != tt.priority {
			t.Fatalf("request %d: unexpected headers %+v", i, got[i])
		}
		if !strings.Contains(got[i].body, tt.fragment) {
			t.Fatalf("request %d: body %q missing %q", i, got[i].body, tt.fragment)
		}
	}
}

func TestNtfyServiceHonorsToggles(t *testing.T) {
	server, requests := newNtfyServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.OnSuccess = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyExportCompleted(context.Background(), notifications.ExportResult{}); err != nil {
		t.Fatalf("NotifyExportCompleted: %v", err)
	}
	if len(requests()) != 0 {
		t.Fatal("expected success notification to be suppressed")
	}
}

func TestNtfyServiceReportsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx ntfy response")
	}
}
