package streetview

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync/atomic"
	"testing"

	"facade/internal/services"
)

func TestLookupPanoramaSnapsAndCaches(t *testing.T) {
	var calls atomic.Int32
	rec := &recordingRecorder{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("radius") != "50" || q.Get("source") != "outdoor" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","pano_id":"abc","date":"2023-05","copyright":"© Google","location":{"lat":40.4169,"lng":-3.7038}}`))
	}, WithRecorder(rec))

	pano, err := client.LookupPanorama(context.Background(), 40.4168, -3.7038)
	if err != nil {
		t.Fatalf("LookupPanorama returned error: %v", err)
	}
	if pano.ID != "abc" || pano.Lat != 40.4169 || pano.Date != "2023-05" {
		t.Fatalf("unexpected panorama %+v", pano)
	}
	if pano.DistanceMeters < 10 || pano.DistanceMeters > 12 {
		t.Fatalf("distance = %v, want about 11m", pano.DistanceMeters)
	}

	if _, err := client.LookupPanorama(context.Background(), 40.4168, -3.7038); err != nil {
		t.Fatalf("second lookup returned error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected cached second lookup, got %d calls", calls.Load())
	}
	if len(rec.lookups) != 2 || rec.lookups[0] != "ok" || rec.lookups[1] != "cached" {
		t.Fatalf("recorded lookups = %v", rec.lookups)
	}
}

func TestLookupPanoramaUnavailable(t *testing.T) {
	cases := []struct {
		status  string
		message string
	}{
		{"ZERO_RESULTS", "No Street View imagery found for this location (even indoors). Click on a road for better results."},
		{"NOT_FOUND", "Exterior Street View imagery is not available for this location. Please try a different spot."},
		{"REQUEST_DENIED", "Street View request failed: REQUEST_DENIED. Please try again."},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_, _ = w.Write([]byte(`{"status":"` + tc.status + `"}`))
			})
			for i := 0; i < 2; i++ {
				_, err := client.LookupPanorama(context.Background(), 40, -3)
				if !errors.Is(err, services.ErrPanoramaUnavailable) {
					t.Fatalf("expected ErrPanoramaUnavailable, got %v", err)
				}
				if got := services.UserMessage(err); got != tc.message {
					t.Fatalf("message = %q, want %q", got, tc.message)
				}
			}
			if calls.Load() != 2 {
				t.Fatalf("failed lookups must not be cached, got %d calls", calls.Load())
			}
		})
	}
}

func TestLookupPanoramaHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	_, err := client.LookupPanorama(context.Background(), 40, -3)
	if !errors.Is(err, services.ErrPanoramaUnavailable) {
		t.Fatalf("expected ErrPanoramaUnavailable, got %v", err)
	}
	if got := services.UserMessage(err); got != "Street View request failed: HTTP_502. Please try again." {
		t.Fatalf("message = %q", got)
	}
}

func TestDistanceMeters(t *testing.T) {
	// One degree of latitude is about 111.2 km.
	got := DistanceMeters(40, -3, 41, -3)
	if math.Abs(got-111195) > 100 {
		t.Fatalf("DistanceMeters = %v, want about 111195", got)
	}
	if DistanceMeters(40, -3, 40, -3) != 0 {
		t.Fatal("distance to self should be zero")
	}
}
