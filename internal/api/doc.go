// Package api defines wire-format types and converters for the HTTP API
// served by facaded. It translates internal job and panorama models into
// transport-friendly DTOs that the browser page and the facade CLI can render
// without coupling to internal types.
//
// # Key Types
//
// ViewResponse: current ViewState, panorama error, snapped panorama details,
// and whether the transform trigger is enabled.
//
// JobResponse: the single transformation job with images inlined as data URIs.
//
// BootstrapResponse: Maps JavaScript loader outcome, map centre, initial POV
// and capture size.
//
// StatusResponse: service runtime information plus the current job and view.
//
// # Converters
//
// FromJob: job.Job -> JobResponse, using the placeholder image when the
// original capture is missing.
//
// FromView: adapter state -> ViewResponse.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Timestamps use
// RFC3339 with milliseconds. Errors are rendered as ErrorResponse with a
// stable kind string so the page can pick the right alert.
package api
