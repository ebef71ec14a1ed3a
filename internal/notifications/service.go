package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"callsheet/internal/config"
)

const userAgent = "Callsheet-Go/0.1.0"

// Service defines the notification surface exposed to the director.
type Service interface {
	NotifyRunStarted(ctx context.Context, projectTitle string, scenes, exports int) error
	NotifyRunCompleted(ctx context.Context, projectTitle string, duration time.Duration) error
	NotifyRunFailed(ctx context.Context, projectTitle, phase string, err error) error
	NotifyExportReady(ctx context.Context, projectTitle, platform, downloadURL string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, projectTitle string, scenes, exports int) error {
	projectTitle = strings.TrimSpace(projectTitle)
	data := payload{
		title:   "Callsheet - Production Started",
		message: fmt.Sprintf("🎬 Started production: %s (%d scenes, %d exports)", projectTitle, scenes, exports),
		tags:    []string{"callsheet", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, projectTitle string, duration time.Duration) error {
	projectTitle = strings.TrimSpace(projectTitle)
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title:    "Callsheet - Production Complete",
		message:  fmt.Sprintf("✅ Production complete: %s in %s", projectTitle, duration),
		tags:     []string{"callsheet", "run", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, projectTitle, phase string, err error) error {
	projectTitle = strings.TrimSpace(projectTitle)
	var builder strings.Builder
	builder.WriteString("❌ Production failed: ")
	builder.WriteString(projectTitle)
	if phase = strings.TrimSpace(phase); phase != "" {
		builder.WriteString(" during ")
		builder.WriteString(phase)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Callsheet - Production Failed",
		message:  builder.String(),
		tags:     []string{"callsheet", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExportReady(ctx context.Context, projectTitle, platform, downloadURL string) error {
	projectTitle = strings.TrimSpace(projectTitle)
	message := fmt.Sprintf("📦 Export ready for %s: %s", platform, projectTitle)
	if downloadURL = strings.TrimSpace(downloadURL); downloadURL != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, downloadURL)
	}
	data := payload{
		title:   "Callsheet - Export Ready",
		message: message,
		tags:    []string{"callsheet", "export", platform},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Callsheet - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"callsheet", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyRunStarted(context.Context, string, int, int) error { return nil }

func (noopService) NotifyRunCompleted(context.Context, string, time.Duration) error { return nil }

func (noopService) NotifyRunFailed(context.Context, string, string, error) error { return nil }

func (noopService) NotifyExportReady(context.Context, string, string, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
