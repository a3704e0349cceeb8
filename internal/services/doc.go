// Package services defines shared utilities consumed by the capture pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the user-visible taxonomy (config missing, panorama unavailable,
//     fetch failed, generation failed).
//
// Use these helpers when wiring new pipeline logic so error reporting and
// observability stay uniform between the HTTP surface and the CLI.
package services
