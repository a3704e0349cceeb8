package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"facade/internal/services"
)

func TestEnsureLoadedProbesOnceAcrossCallers(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		if r.URL.Query().Get("libraries") != "streetView,marker" {
			t.Errorf("unexpected libraries %q", r.URL.Query().Get("libraries"))
		}
		_, _ = w.Write([]byte("/* maps */"))
	}))
	defer srv.Close()

	svc := New(Config{APIKey: "key", JSBaseURL: srv.URL})

	var wg sync.WaitGroup
	results := make([]Ready, 10)
	errs := make([]error, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.EnsureLoaded(context.Background())
		}(i)
	}
	close(release)
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d got error: %v", i, errs[i])
		}
		if results[i].ScriptURL != results[0].ScriptURL || !strings.Contains(results[i].ScriptURL, "key=key") {
			t.Fatalf("caller %d got %+v", i, results[i])
		}
	}
	if _, err := svc.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("later caller got error: %v", err)
	}
	if hits.Load() != 1 || svc.Probes() != 1 {
		t.Fatalf("expected one probe, got hits=%d probes=%d", hits.Load(), svc.Probes())
	}
}

func TestEnsureLoadedMissingKey(t *testing.T) {
	svc := New(Config{JSBaseURL: "http://127.0.0.1:1"})
	_, err := svc.EnsureLoaded(context.Background())
	if !errors.Is(err, services.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
	if svc.Probes() != 0 {
		t.Fatal("missing key must not trigger a probe")
	}
	if _, again := svc.EnsureLoaded(context.Background()); !errors.Is(again, services.ErrConfigMissing) {
		t.Fatalf("outcome should be shared, got %v", again)
	}
}

func TestEnsureLoadedFailureIsShared(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	svc := New(Config{APIKey: "key", JSBaseURL: srv.URL})
	for i := 0; i < 3; i++ {
		if _, err := svc.EnsureLoaded(context.Background()); !errors.Is(err, services.ErrFetchFailed) {
			t.Fatalf("expected ErrFetchFailed, got %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one probe, got %d", hits.Load())
	}
}

func TestEnsureLoadedHonoursCallerContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	svc := New(Config{APIKey: "key", JSBaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.EnsureLoaded(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScriptURL(t *testing.T) {
	got := ScriptURL("https://maps.example/js", "abc")
	want := "https://maps.example/js?callback=initMap&key=abc&libraries=streetView%2Cmarker"
	if got != want {
		t.Fatalf("ScriptURL = %q, want %q", got, want)
	}
}
