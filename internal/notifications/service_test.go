package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"facade/internal/config"
	"facade/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyTransformationFailed(context.Background(), "job", "fetch_failed", "boom"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop notifier, got %v", err)
	}
}

func TestNotifyTransformationSucceeded(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyTransformationSucceeded(context.Background(), "0123456789abcdef", 40.4168, -3.70379, 12400*time.Millisecond); err != nil {
		t.Fatalf("notify returned error: %v", err)
	}
	if got.title != "Facade - Makeover Ready" {
		t.Fatalf("title = %q", got.title)
	}
	if got.tags != "facade,transform,completed" {
		t.Fatalf("tags = %q", got.tags)
	}
	if !strings.Contains(got.body, "40.41680, -3.70379") || !strings.Contains(got.body, "12s") || !strings.Contains(got.body, "job 01234567") {
		t.Fatalf("unexpected body %q", got.body)
	}
	if got.priority != "" {
		t.Fatalf("default priority should not be sent, got %q", got.priority)
	}
}

func TestNotifyTransformationFailed(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyTransformationFailed(context.Background(), "job-1", "generation_failed", "AI transformation did not return an image."); err != nil {
		t.Fatalf("notify returned error: %v", err)
	}
	want := "❌ Makeover failed (generation_failed): AI transformation did not return an image. [job job-1]"
	if got.body != want {
		t.Fatalf("body = %q, want %q", got.body, want)
	}
	if got.priority != "high" {
		t.Fatalf("priority = %q, want high", got.priority)
	}
}

func TestNtfyErrorStatus(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusInternalServerError)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL

	if err := notifications.NewService(&cfg).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx ntfy response")
	}
}
