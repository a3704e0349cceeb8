package panorama

import (
	"fmt"
	"sync"
)

// Event names a viewer notification.
type Event string

const (
	EventPOVChanged      Event = "pov_changed"
	EventPositionChanged Event = "position_changed"
)

// ParseEvent validates an event name received from outside the process.
func ParseEvent(name string) (Event, error) {
	switch Event(name) {
	case EventPOVChanged, EventPositionChanged:
		return Event(name), nil
	default:
		return "", fmt.Errorf("unknown panorama event %q", name)
	}
}

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// POV is the viewer orientation.
type POV struct {
	Heading float64 `json:"heading"`
	Pitch   float64 `json:"pitch"`
	Zoom    float64 `json:"zoom"`
}

// InitialPOV is the orientation a freshly opened panorama starts with.
var InitialPOV = POV{Heading: 0, Pitch: 0, Zoom: 1}

// Listener is a registered event handler.
type Listener interface {
	Remove()
}

// Source is a panorama viewer that can be observed.
type Source interface {
	Position() (LatLng, bool)
	POV() POV
	AddListener(event Event, fn func()) Listener
}

// Remote is a Source whose state is pushed in from outside, typically by the
// browser through the HTTP API.
type Remote struct {
	mu        sync.Mutex
	panoID    string
	pos       LatLng
	hasPos    bool
	pov       POV
	listeners map[Event]map[int]func()
	nextID    int
}

// NewRemote creates a source positioned at pos with the given orientation.
func NewRemote(panoID string, pos LatLng, pov POV) *Remote {
	return &Remote{
		panoID:    panoID,
		pos:       pos,
		hasPos:    true,
		pov:       pov,
		listeners: make(map[Event]map[int]func()),
	}
}

// PanoID returns the panorama identifier the source was opened on.
func (r *Remote) PanoID() string {
	return r.panoID
}

func (r *Remote) Position() (LatLng, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos, r.hasPos
}

func (r *Remote) POV() POV {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pov
}

func (r *Remote) AddListener(event Event, fn func()) Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	if r.listeners[event] == nil {
		r.listeners[event] = make(map[int]func())
	}
	r.listeners[event][id] = fn
	return &remoteListener{remote: r, event: event, id: id}
}

// ListenerCount reports how many handlers are registered for event.
func (r *Remote) ListenerCount(event Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners[event])
}

// Notify applies a viewer change and fires the handlers registered for
// event. A nil pos or pov leaves that part of the state unchanged.
func (r *Remote) Notify(event Event, pos *LatLng, pov *POV) {
	r.mu.Lock()
	if pos != nil {
		r.pos = *pos
		r.hasPos = true
	}
	if pov != nil {
		r.pov = *pov
	}
	handlers := make([]func(), 0, len(r.listeners[event]))
	for _, fn := range r.listeners[event] {
		handlers = append(handlers, fn)
	}
	r.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

type remoteListener struct {
	remote *Remote
	event  Event
	id     int
	once   sync.Once
}

func (l *remoteListener) Remove() {
	l.once.Do(func() {
		l.remote.mu.Lock()
		defer l.remote.mu.Unlock()
		delete(l.remote.listeners[l.event], l.id)
	})
}
