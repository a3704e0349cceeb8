// Package notifications pushes transformation job outcomes to ntfy.
//
// When no topic is configured NewService returns a no-op implementation, so
// callers never need to check whether notifications are enabled.
package notifications
