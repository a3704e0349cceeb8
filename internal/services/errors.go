package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfigMissing       = errors.New("configuration missing")
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrPanoramaUnavailable = errors.New("panorama unavailable")
	ErrFetchFailed         = errors.New("fetch failed")
	ErrNoImagery           = errors.New("no imagery available")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrJobInFlight         = errors.New("job in flight")
)

// Failure is the error type produced by Wrap. It keeps the user-facing message
// apart from the stage/operation detail so the UI can show one and the logs the
// other.
type Failure struct {
	marker  error
	detail  string
	message string
	cause   error
}

func (f *Failure) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %s", f.marker, f.detail, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.marker, f.detail)
}

// Unwrap exposes both the marker and the cause to errors.Is / errors.As.
func (f *Failure) Unwrap() []error {
	if f.cause == nil {
		return []error{f.marker}
	}
	return []error{f.marker, f.cause}
}

// Message returns the human-readable message supplied to Wrap.
func (f *Failure) Message() string {
	return f.message
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrFetchFailed
	}
	return &Failure{
		marker:  marker,
		detail:  buildDetail(stage, operation, message),
		message: strings.TrimSpace(message),
		cause:   err,
	}
}

// Kind maps an error to the stable identifier exposed over the API.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigMissing):
		return "config_missing"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, ErrPanoramaUnavailable):
		return "panorama_unavailable"
	case errors.Is(err, ErrNoImagery):
		return "no_imagery"
	case errors.Is(err, ErrFetchFailed):
		return "fetch_failed"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrJobInFlight):
		return "job_in_flight"
	default:
		return "unknown"
	}
}

// UserMessage returns the text shown in alerts and notifications. Errors that
// did not come through Wrap fall back to their full error string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var failure *Failure
	if errors.As(err, &failure) && failure.message != "" {
		return failure.message
	}
	return err.Error()
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
