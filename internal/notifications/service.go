package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"udfconv/internal/config"
)

const userAgent = "udfconv/0.1.0"

// Service defines the notification surface exposed to the batch runner.
type Service interface {
	NotifyBatchStarted(ctx context.Context, count int) error
	NotifyBatchCompleted(ctx context.Context, converted, skipped, failed int, duration time.Duration) error
	NotifyBatchStopped(ctx context.Context, completed, total int) error
	NotifyError(ctx context.Context, err error, context string) error
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

	return &ntfyService{
		endpoint: endpointFor(topic),
		client:   &http.Client{Timeout: timeout},
	}
}

// endpointFor accepts either a bare topic name or a full ntfy server URL.
func endpointFor(topic string) string {
	if strings.HasPrefix(topic, "http://") || strings.HasPrefix(topic, "https://") {
		return topic
	}
	return "https://ntfy.sh/" + topic
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

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, count int) error {
	data := payload{
		title:   "udfconv - Batch Started",
		message: fmt.Sprintf("Started converting %d queued files", count),
		tags:    []string{"udfconv", "batch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, converted, skipped, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "udfconv - Batch Complete"
		message = fmt.Sprintf("Converted %d files (%d skipped) in %s", converted, skipped, durationText)
	} else {
		title = "udfconv - Batch Complete (with errors)"
		message = fmt.Sprintf("Converted %d files, %d skipped, %d failed in %s", converted, skipped, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"udfconv", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchStopped(ctx context.Context, completed, total int) error {
	data := payload{
		title:   "udfconv - Batch Stopped",
		message: fmt.Sprintf("Stopped after %d of %d files", completed, total),
		tags:    []string{"udfconv", "batch", "stopped"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "udfconv - Error",
		message:  builder.String(),
		tags:     []string{"udfconv", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "udfconv - Test",
		message:  "Notification system test",
		tags:     []string{"udfconv", "test"},
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

func (noopService) NotifyBatchStarted(context.Context, int) error { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyBatchStopped(context.Context, int, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error   { return nil }
func (noopService) TestNotification(context.Context) error             { return nil }
