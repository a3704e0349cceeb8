package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"facade/internal/config"
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

func TestCheckCredential(t *testing.T) {
	if r := CheckCredential("Maps API key", "  ", "GOOGLE_MAPS_API_KEY"); r.Passed || !strings.Contains(r.Detail, "GOOGLE_MAPS_API_KEY") {
		t.Fatalf("unexpected result for missing key: %+v", r)
	}
	r := CheckCredential("Maps API key", "secret-value", "GOOGLE_MAPS_API_KEY")
	if !r.Passed || strings.Contains(r.Detail, "secret") {
		t.Fatalf("unexpected result for present key: %+v", r)
	}
}

func metadataServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "good-key" {
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckMapsMetadata_OK(t *testing.T) {
	srv := metadataServer(t, `{"status":"OK"}`)
	result := CheckMapsMetadata(context.Background(), srv.URL, "good-key", 40.4, -3.7)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckMapsMetadata_ZeroResultsPasses(t *testing.T) {
	srv := metadataServer(t, `{"status":"ZERO_RESULTS"}`)
	result := CheckMapsMetadata(context.Background(), srv.URL, "good-key", 0, 0)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckMapsMetadata_BadKey(t *testing.T) {
	srv := metadataServer(t, `{"status":"OK"}`)
	result := CheckMapsMetadata(context.Background(), srv.URL, "bad-key", 40.4, -3.7)
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if !strings.Contains(result.Detail, "The provided API key is invalid.") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckMapsMetadata_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := CheckMapsMetadata(context.Background(), srv.URL, "good-key", 40.4, -3.7)
	if result.Passed || result.Detail != "request failed (500)" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckMapsMetadata_MissingInputs(t *testing.T) {
	if r := CheckMapsMetadata(context.Background(), "", "k", 0, 0); r.Passed {
		t.Fatal("expected failure for missing url")
	}
	if r := CheckMapsMetadata(context.Background(), "http://example.invalid", "", 0, 0); r.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckGeneration_MissingKey(t *testing.T) {
	cfg := config.Default()
	if r := CheckGeneration(context.Background(), &cfg); r.Passed {
		t.Fatal("expected failure without key")
	}
}

func TestRunAllSkipsNetworkChecksWithoutKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()

	results := RunAll(context.Background(), &cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := []string{"Maps API key", "Gemini API key", "Output directory", "Notifications"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("checks = %v, want %v", names, want)
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected both credential checks to fail, got %+v", failed)
	}
}

func TestRunAllProbesMapsWhenConfigured(t *testing.T) {
	srv := metadataServer(t, `{"status":"OK"}`)
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Maps.APIKey = "good-key"
	cfg.Maps.MetadataBaseURL = srv.URL

	results := RunAll(context.Background(), &cfg)
	var found bool
	for _, r := range results {
		if r.Name == "Street View metadata" {
			found = true
			if !r.Passed {
				t.Fatalf("metadata check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("metadata check missing")
	}
}

func TestCheckNotificationsFromConfig(t *testing.T) {
	cfg := config.Default()
	if r := CheckNotificationsFromConfig(&cfg); !r.Passed || r.Detail != "Disabled" {
		t.Fatalf("unexpected disabled result %+v", r)
	}
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/demo"
	if r := CheckNotificationsFromConfig(&cfg); !r.Passed || !strings.Contains(r.Detail, "ntfy.sh/demo") {
		t.Fatalf("unexpected enabled result %+v", r)
	}
}

func TestProbeService(t *testing.T) {
	cfg := config.Default()
	cfg.Server.LockDir = t.TempDir()

	if probe := ProbeService(&cfg); probe.Running || probe.Detail() != "Stopped" {
		t.Fatalf("expected stopped without lock file, got %+v", probe)
	}

	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	if probe := ProbeService(&cfg); !probe.Running || probe.Detail() != "Running" {
		t.Fatalf("expected running while lock held, got %+v", probe)
	}
}
