// Package panorama tracks the panorama viewer the user is looking through.
//
// An Adapter owns at most one Source at a time. Attaching a source registers
// exactly one pov_changed and one position_changed listener on it and removes
// the listeners of whatever source was attached before, so repeated attaches
// never accumulate handlers. Every change is published as an Update carrying
// the current ViewState or a location-scoped error.
//
// Remote is the Source used by the HTTP bridge: the browser reports viewer
// changes and Remote fires the registered listeners.
package panorama
