package api

import (
	"time"

	"facade/internal/job"
	"facade/internal/preflight"
	"facade/internal/streetview"
)

// FromJob converts a job snapshot to its API representation. A failed job
// without an original capture reports its placeholder image as the original.
func FromJob(j job.Job, now time.Time) JobResponse {
	dto := JobResponse{
		ID:           j.ID,
		Status:       string(j.Status),
		ErrorKind:    j.ErrorKind,
		ErrorMessage: j.ErrorMessage,
	}
	if dto.Status == "" {
		dto.Status = string(job.StatusIdle)
	}
	if j.ID != "" {
		req := FromCaptureRequest(j.Request)
		dto.Request = &req
	}
	switch {
	case j.Original != nil && !j.Original.Empty():
		dto.Original = j.Original.String()
	case j.Placeholder != "":
		dto.Original = j.Placeholder
	}
	if j.Transformed != nil && !j.Transformed.Empty() {
		dto.Transformed = j.Transformed.String()
	}
	if !j.StartedAt.IsZero() {
		dto.StartedAt = j.StartedAt.UTC().Format(dateTimeFormat)
		dto.ElapsedMs = j.Elapsed(now).Milliseconds()
	}
	if !j.FinishedAt.IsZero() {
		dto.FinishedAt = j.FinishedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromView converts adapter state into a ViewResponse. The trigger is enabled
// only when a view is present, no panorama error is shown and the
// orchestrator is idle.
func FromView(view *streetview.ViewState, panoErr string, pano *streetview.Panorama, idle bool) ViewResponse {
	dto := ViewResponse{Error: panoErr}
	if view != nil {
		v := FromViewState(*view)
		dto.View = &v
	}
	if pano != nil && panoErr == "" {
		dto.Panorama = &PanoramaInfo{
			ID:             pano.ID,
			Lat:            pano.Lat,
			Lng:            pano.Lng,
			Date:           pano.Date,
			Copyright:      pano.Copyright,
			DistanceMeters: pano.DistanceMeters,
		}
	}
	dto.TriggerEnabled = view != nil && panoErr == "" && idle
	return dto
}

// FromViewState converts a streetview.ViewState.
func FromViewState(v streetview.ViewState) ViewState {
	return ViewState{Lat: v.Lat, Lng: v.Lng, Heading: v.Heading, Pitch: v.Pitch, Zoom: v.Zoom}
}

// FromCaptureRequest converts a streetview.CaptureRequest.
func FromCaptureRequest(r streetview.CaptureRequest) CaptureRequest {
	return CaptureRequest{
		Width:   r.Width,
		Height:  r.Height,
		Lat:     r.Lat,
		Lng:     r.Lng,
		Heading: r.Heading,
		Pitch:   r.Pitch,
		FOV:     r.FOV,
	}
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}
