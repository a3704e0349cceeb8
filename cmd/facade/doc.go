// Command facade is the command-line entry point for the Madrid facade
// makeover service.
//
// "facade serve" runs the HTTP service (the same runtime as facaded).
// "facade capture" performs one headless capture-and-transform for a fixed
// location and writes both images to disk. "facade url" prints the still-image
// request for a view without fetching it. "facade status" renders preflight
// checks and, when a service is running, its current job.
package main
