package streetview

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"facade/internal/services"
)

var jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")

type recordingRecorder struct {
	mu      sync.Mutex
	static  []string
	lookups []string
}

func (r *recordingRecorder) StaticFetch(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.static = append(r.static, status)
}

func (r *recordingRecorder) PanoramaLookup(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, result)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:          "test-key",
		StaticBaseURL:   srv.URL + "/streetview",
		MetadataBaseURL: srv.URL + "/streetview/metadata",
	}, opts...)
}

func TestFetchStaticSuccess(t *testing.T) {
	rec := &recordingRecorder{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing key in request: %s", r.URL)
		}
		if r.URL.Query().Get("size") != "400x600" {
			t.Errorf("unexpected size: %s", r.URL.Query().Get("size"))
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(jpegBytes)
	}, WithRecorder(rec))

	img, err := client.FetchStatic(context.Background(), BuildCaptureRequest(ViewState{Lat: 40.4, Lng: -3.7}))
	if err != nil {
		t.Fatalf("FetchStatic returned error: %v", err)
	}
	if img.MIMEType != "image/jpeg" || len(img.Data) != len(jpegBytes) {
		t.Fatalf("unexpected image %+v", img)
	}
	if !strings.HasPrefix(img.String(), "data:image/jpeg;base64,") {
		t.Fatalf("unexpected data uri %q", img.String())
	}
	if len(rec.static) != 1 || rec.static[0] != "200" {
		t.Fatalf("recorded statuses = %v", rec.static)
	}
}

func TestFetchStaticClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		marker  error
		message string
	}{
		{
			name:    "forbidden",
			status:  http.StatusForbidden,
			body:    "The provided API key is invalid.",
			marker:  services.ErrFetchFailed,
			message: "Failed to fetch Street View image. Status: 403 This might be due to API key restrictions or billing issues.",
		},
		{
			name:    "forbidden with zero results body",
			status:  http.StatusForbidden,
			body:    `{"status":"ZERO_RESULTS","error_message":"key not authorized"}`,
			marker:  services.ErrFetchFailed,
			message: "Failed to fetch Street View image. Status: 403 This might be due to API key restrictions or billing issues.",
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			marker:  services.ErrNoImagery,
			message: "No Street View imagery available for this exact location/orientation.",
		},
		{
			name:    "zero results body",
			status:  http.StatusBadRequest,
			body:    `{"status":"ZERO_RESULTS"}`,
			marker:  services.ErrNoImagery,
			message: "No Street View imagery available for this exact location/orientation.",
		},
		{
			name:    "other",
			status:  http.StatusInternalServerError,
			body:    "boom",
			marker:  services.ErrFetchFailed,
			message: "Failed to fetch Street View image (500): boom",
		},
		{
			name:    "other empty body",
			status:  http.StatusBadRequest,
			marker:  services.ErrFetchFailed,
			message: "Failed to fetch Street View image (400): Bad request",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.FetchStatic(context.Background(), BuildCaptureRequest(ViewState{}))
			if !errors.Is(err, tc.marker) {
				t.Fatalf("error = %v, want marker %v", err, tc.marker)
			}
			if got := services.UserMessage(err); got != tc.message {
				t.Fatalf("message = %q, want %q", got, tc.message)
			}
		})
	}
}

func TestFetchStaticRequiresKey(t *testing.T) {
	client := NewClient(Config{StaticBaseURL: "http://127.0.0.1:1"})
	_, err := client.FetchStatic(context.Background(), BuildCaptureRequest(ViewState{}))
	if !errors.Is(err, services.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestFetchStaticTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	rec := &recordingRecorder{}
	client := NewClient(Config{APIKey: "k", StaticBaseURL: base}, WithRecorder(rec))
	_, err := client.FetchStatic(context.Background(), BuildCaptureRequest(ViewState{}))
	if !errors.Is(err, services.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if len(rec.static) != 1 || rec.static[0] != "error" {
		t.Fatalf("recorded statuses = %v", rec.static)
	}
}
