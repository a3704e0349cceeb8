// Package preflight provides readiness checks for the external services and
// filesystem paths facade depends on.
//
// The service runs RunAll once at startup and logs every failed check as a
// warning; failures never stop the service because a missing credential is
// surfaced to the user in the page itself. The CLI "facade status" command
// renders the same results as a table.
package preflight
