// Package job runs the capture-and-transform state machine.
//
// A job moves Idle → Capturing → Transforming → Succeeded or Failed. Only one
// job exists at a time: Trigger refuses to start while a job is in flight or
// while a finished job has not been dismissed. The job copies the view state
// when it is triggered, so later panorama movement never affects it.
//
// Every failure ends in the Failed state with a stable error kind and a
// message meant for the user; nothing in a job run panics or escapes to the
// caller.
package job
