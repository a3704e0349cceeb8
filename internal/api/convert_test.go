package api

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"facade/internal/datauri"
	"facade/internal/job"
	"facade/internal/streetview"
)

func TestFromJobIdle(t *testing.T) {
	dto := FromJob(job.Job{}, time.Now())
	if dto.Status != "idle" {
		t.Fatalf("expected idle status, got %q", dto.Status)
	}
	if dto.Request != nil || dto.Original != "" || dto.StartedAt != "" {
		t.Fatalf("idle job should be empty, got %+v", dto)
	}
}

func TestFromJobSucceededInlinesImages(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	original := datauri.New("image/jpeg", []byte("jpeg"))
	transformed := datauri.New("image/png", []byte("png"))
	j := job.Job{
		ID:          "job-1",
		Status:      job.StatusSucceeded,
		Request:     streetview.BuildCaptureRequest(streetview.ViewState{Lat: 40.4, Lng: -3.7, Zoom: 1}),
		Original:    &original,
		Transformed: &transformed,
		StartedAt:   start,
		FinishedAt:  start.Add(1500 * time.Millisecond),
	}

	dto := FromJob(j, start.Add(time.Hour))
	if !strings.HasPrefix(dto.Original, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected original %q", dto.Original)
	}
	if !strings.HasPrefix(dto.Transformed, "data:image/png;base64,") {
		t.Fatalf("unexpected transformed %q", dto.Transformed)
	}
	if dto.ElapsedMs != 1500 {
		t.Fatalf("expected 1500ms elapsed, got %d", dto.ElapsedMs)
	}
	want := &CaptureRequest{Width: 400, Height: 600, Lat: 40.4, Lng: -3.7, FOV: 90}
	if diff := cmp.Diff(want, dto.Request); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
	if dto.FinishedAt != "2024-05-01T10:00:01.500Z" {
		t.Fatalf("unexpected finishedAt %q", dto.FinishedAt)
	}
}

func TestFromJobFailedUsesPlaceholder(t *testing.T) {
	j := job.Job{
		ID:           "job-2",
		Status:       job.StatusFailed,
		Placeholder:  job.PlaceholderNoImagery,
		ErrorKind:    "no_imagery",
		ErrorMessage: "No Street View imagery available for this exact location/orientation.",
	}
	dto := FromJob(j, time.Now())
	if dto.Original != job.PlaceholderNoImagery {
		t.Fatalf("expected placeholder, got %q", dto.Original)
	}
	if dto.Transformed != "" {
		t.Fatalf("transformed should be empty, got %q", dto.Transformed)
	}
	if dto.ErrorKind != "no_imagery" {
		t.Fatalf("unexpected kind %q", dto.ErrorKind)
	}
}

func TestFromViewTriggerEnabled(t *testing.T) {
	view := &streetview.ViewState{Lat: 40.4, Lng: -3.7}
	pano := &streetview.Panorama{ID: "pano", Lat: 40.4, Lng: -3.7, DistanceMeters: 3}

	cases := []struct {
		name    string
		view    *streetview.ViewState
		err     string
		idle    bool
		enabled bool
	}{
		{"ready", view, "", true, true},
		{"no view", nil, "", true, false},
		{"panorama error", view, "no imagery", true, false},
		{"busy", view, "", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dto := FromView(tc.view, tc.err, pano, tc.idle)
			if dto.TriggerEnabled != tc.enabled {
				t.Fatalf("triggerEnabled = %v, want %v", dto.TriggerEnabled, tc.enabled)
			}
		})
	}
}

func TestFromViewHidesPanoramaOnError(t *testing.T) {
	pano := &streetview.Panorama{ID: "pano"}
	if dto := FromView(nil, "unavailable", pano, true); dto.Panorama != nil {
		t.Fatalf("panorama should be hidden on error, got %+v", dto.Panorama)
	}
	if dto := FromView(nil, "", pano, true); dto.Panorama == nil || dto.Panorama.ID != "pano" {
		t.Fatalf("expected panorama info, got %+v", dto.Panorama)
	}
}
