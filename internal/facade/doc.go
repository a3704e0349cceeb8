// Package facade sends a captured street image to the Gemini image model
// together with the fixed facade refresh instruction and returns the edited
// image.
//
// One request is made per call. A response without an inline image part is a
// generation failure; text parts are only logged.
package facade
