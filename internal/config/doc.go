// Package config loads, normalizes, and validates facade service configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a local .env file, and honours
// environment fallbacks such as GOOGLE_MAPS_API_KEY and GEMINI_API_KEY. The
// Config type centralizes every knob the service and CLI need.
//
// A missing Street View credential does not fail Load: the page renders a
// blocking alert instead, so the process can still start and explain itself.
package config
