// Package streetview talks to the Street View imaging service.
//
// It owns three things: the capture request builder that turns the current
// panorama view into a still-image request, the static image client that
// fetches that still, and the metadata lookup that snaps a map click to the
// nearest outdoor panorama. Failures are tagged with the markers from
// internal/services so callers can classify them without string matching.
package streetview
