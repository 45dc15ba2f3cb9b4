package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kitsusync/internal/config"
)

const userAgent = "kitsusync/1.0"

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyExportCompleted(ctx context.Context, result ExportResult) error
	NotifyExportFailed(ctx context.Context, runID string, err error) error
	TestNotification(ctx context.Context) error
}

// ExportResult is what a completion notification reports.
type ExportResult struct {
	RunID            string
	Projects         int
	Shots            int
	Assets           int
	ImagesDownloaded int
	Duration         time.Duration
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.OnSuccess,
		onFailure: cfg.Notifications.OnFailure,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
	onFailure bool
}

func (n *ntfyService) NotifyExportCompleted(ctx context.Context, result ExportResult) error {
	if !n.onSuccess {
		return nil
	}
	message := fmt.Sprintf("✅ Export complete: %d projects, %d shots, %d assets", result.Projects, result.Shots, result.Assets)
	if result.ImagesDownloaded > 0 {
		message = fmt.Sprintf("%s\n%d new thumbnails", message, result.ImagesDownloaded)
	}
	if result.Duration > 0 {
		message = fmt.Sprintf("%s\nDuration: %s", message, result.Duration.Round(time.Second))
	}
	if result.RunID != "" {
		message = fmt.Sprintf("%s\nRun: %s", message, result.RunID)
	}
	return n.send(ctx, payload{
		title:   "Kitsusync - Export Complete",
		message: message,
		tags:    []string{"kitsusync", "export", "completed"},
	})
}

func (n *ntfyService) NotifyExportFailed(ctx context.Context, runID string, err error) error {
	if !n.onFailure {
		return nil
	}
	message := "❌ Export failed"
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	if runID != "" {
		message = fmt.Sprintf("%s\nRun: %s", message, runID)
	}
	return n.send(ctx, payload{
		title:    "Kitsusync - Export Failed",
		message:  message,
		tags:     []string{"kitsusync", "export", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Kitsusync - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"kitsusync", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyExportCompleted(context.Context, ExportResult) error { return nil }
func (noopService) NotifyExportFailed(context.Context, string, error) error   { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
