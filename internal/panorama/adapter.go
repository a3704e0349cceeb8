package panorama

import (
	"sync"

	"facade/internal/streetview"
)

// Update is published whenever the observed view changes. Exactly one of
// View and Err is set, or neither when nothing is attached.
type Update struct {
	View *streetview.ViewState `json:"view,omitempty"`
	Err  string                `json:"error,omitempty"`
}

// Adapter turns panorama notifications into ViewState updates.
type Adapter struct {
	mu          sync.Mutex
	source      Source
	povListener Listener
	posListener Listener
	view        *streetview.ViewState
	err         string

	subMu  sync.Mutex
	subs   map[int]func(Update)
	nextID int
}

// NewAdapter returns an adapter with nothing attached.
func NewAdapter() *Adapter {
	return &Adapter{subs: make(map[int]func(Update))}
}

// Attach makes src the observed source. The previous source, if any, is
// detached first. The initial view is published immediately.
func (a *Adapter) Attach(src Source) {
	if src == nil {
		a.Detach()
		return
	}
	a.mu.Lock()
	a.releaseLocked()
	a.source = src
	a.err = ""
	a.povListener = src.AddListener(EventPOVChanged, func() { a.refresh(src) })
	a.posListener = src.AddListener(EventPositionChanged, func() { a.refresh(src) })
	a.view = readView(src)
	update := a.updateLocked()
	a.mu.Unlock()

	a.publish(update)
}

// Detach releases the current source and clears the view and any error.
func (a *Adapter) Detach() {
	a.mu.Lock()
	a.releaseLocked()
	a.err = ""
	update := a.updateLocked()
	a.mu.Unlock()

	a.publish(update)
}

// Unavailable detaches the current source and records message as the
// location-scoped error.
func (a *Adapter) Unavailable(message string) {
	a.mu.Lock()
	a.releaseLocked()
	a.err = message
	update := a.updateLocked()
	a.mu.Unlock()

	a.publish(update)
}

// Current returns a copy of the view state and the panorama error.
func (a *Adapter) Current() (*streetview.ViewState, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	update := a.updateLocked()
	return update.View, update.Err
}

// Source returns the attached source, or nil.
func (a *Adapter) Source() Source {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source
}

// Subscribe registers fn for every future update. The returned function
// cancels the subscription.
func (a *Adapter) Subscribe(fn func(Update)) func() {
	a.subMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	a.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
		})
	}
}

func (a *Adapter) refresh(src Source) {
	a.mu.Lock()
	if a.source != src {
		a.mu.Unlock()
		return
	}
	view := readView(src)
	if view == nil {
		a.mu.Unlock()
		return
	}
	a.view = view
	update := a.updateLocked()
	a.mu.Unlock()

	a.publish(update)
}

func (a *Adapter) releaseLocked() {
	if a.povListener != nil {
		a.povListener.Remove()
		a.povListener = nil
	}
	if a.posListener != nil {
		a.posListener.Remove()
		a.posListener = nil
	}
	a.source = nil
	a.view = nil
}

func (a *Adapter) updateLocked() Update {
	update := Update{Err: a.err}
	if a.view != nil {
		view := *a.view
		update.View = &view
	}
	return update
}

func (a *Adapter) publish(update Update) {
	a.subMu.Lock()
	subs := make([]func(Update), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.subMu.Unlock()

	for _, fn := range subs {
		fn(update)
	}
}

func readView(src Source) *streetview.ViewState {
	pos, ok := src.Position()
	if !ok {
		return nil
	}
	pov := src.POV()
	return &streetview.ViewState{
		Lat:     pos.Lat,
		Lng:     pos.Lng,
		Heading: pov.Heading,
		Pitch:   pov.Pitch,
		Zoom:    pov.Zoom,
	}
}
