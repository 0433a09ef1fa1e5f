package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"udfconv/internal/notifications"
	"udfconv/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(cfg)
	if err := svc.NotifyBatchStarted(context.Background(), 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsMessages(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "batch started",
			notify: func(svc notifications.Service) error {
				return svc.NotifyBatchStarted(context.Background(), 4)
			},
			expectTitle:   "udfconv - Batch Started",
			expectMessage: "Started converting 4 queued files",
			expectTags:    "udfconv,batch,started",
		},
		{
			name: "batch completed clean",
			notify: func(svc notifications.Service) error {
				return svc.NotifyBatchCompleted(context.Background(), 3, 1, 0, 95*time.Second)
			},
			expectTitle:   "udfconv - Batch Complete",
			expectMessage: "Converted 3 files (1 skipped) in 1m35s",
			expectTags:    "udfconv,batch,completed",
		},
		{
			name: "batch completed with failures",
			notify: func(svc notifications.Service) error {
				return svc.NotifyBatchCompleted(context.Background(), 2, 0, 1, 10*time.Second)
			},
			expectTitle:   "udfconv - Batch Complete (with errors)",
			expectMessage: "Converted 2 files, 0 skipped, 1 failed in 10s",
			expectTags:    "udfconv,batch,completed",
		},
		{
			name: "batch stopped",
			notify: func(svc notifications.Service) error {
				return svc.NotifyBatchStopped(context.Background(), 2, 5)
			},
			expectTitle:   "udfconv - Batch Stopped",
			expectMessage: "Stopped after 2 of 5 files",
			expectTags:    "udfconv,batch,stopped",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("decoder failed"), "conversion")
			},
			expectTitle:    "udfconv - Error",
			expectMessage:  "Error with conversion: decoder failed",
			expectTags:     "udfconv,error,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "udfconv - Test",
			expectMessage:  "Notification system test",
			expectTags:     "udfconv,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t)
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
