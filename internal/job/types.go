package job

import (
	"time"

	"facade/internal/datauri"
	"facade/internal/streetview"
)

// Status is the lifecycle state of a transformation job.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusCapturing    Status = "capturing"
	StatusTransforming Status = "transforming"
	StatusSucceeded    Status = "succeeded"
	StatusFailed       Status = "failed"
)

// Placeholder images shown in place of a missing original capture.
const (
	PlaceholderNoImagery  = "https://placehold.co/400x600.png?text=No+Street+View"
	PlaceholderFetchError = "https://placehold.co/400x600.png?text=Error+Fetching"
)

// Job is a snapshot of the current transformation job.
type Job struct {
	ID           string                    `json:"id,omitempty"`
	Status       Status                    `json:"status"`
	View         streetview.ViewState      `json:"view"`
	Request      streetview.CaptureRequest `json:"request"`
	Original     *datauri.Image            `json:"-"`
	Transformed  *datauri.Image            `json:"-"`
	Placeholder  string                    `json:"placeholder,omitempty"`
	ErrorKind    string                    `json:"error_kind,omitempty"`
	ErrorMessage string                    `json:"error,omitempty"`
	StartedAt    time.Time                 `json:"started_at"`
	FinishedAt   time.Time                 `json:"finished_at"`
}

// InFlight reports whether the job is capturing or transforming.
func (j Job) InFlight() bool {
	return j.Status == StatusCapturing || j.Status == StatusTransforming
}

// Terminal reports whether the job has finished.
func (j Job) Terminal() bool {
	return j.Status == StatusSucceeded || j.Status == StatusFailed
}

// Elapsed returns how long the job ran, or has been running.
func (j Job) Elapsed(now time.Time) time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if !j.FinishedAt.IsZero() {
		return j.FinishedAt.Sub(j.StartedAt)
	}
	return now.Sub(j.StartedAt)
}

func (j Job) clone() Job {
	out := j
	if j.Original != nil {
		img := *j.Original
		out.Original = &img
	}
	if j.Transformed != nil {
		img := *j.Transformed
		out.Transformed = &img
	}
	return out
}
