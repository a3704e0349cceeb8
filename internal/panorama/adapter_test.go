package panorama

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"facade/internal/streetview"
)

type updateLog struct {
	mu      sync.Mutex
	updates []Update
}

func (l *updateLog) record(u Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, u)
}

func (l *updateLog) last() Update {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.updates) == 0 {
		return Update{}
	}
	return l.updates[len(l.updates)-1]
}

func TestAttachPublishesInitialView(t *testing.T) {
	adapter := NewAdapter()
	log := &updateLog{}
	adapter.Subscribe(log.record)

	src := NewRemote("pano-1", LatLng{Lat: 40.4, Lng: -3.7}, InitialPOV)
	adapter.Attach(src)

	want := &streetview.ViewState{Lat: 40.4, Lng: -3.7, Heading: 0, Pitch: 0, Zoom: 1}
	view, errMsg := adapter.Current()
	if diff := cmp.Diff(want, view); diff != "" || errMsg != "" {
		t.Fatalf("unexpected current view (-want +got):\n%s err=%q", diff, errMsg)
	}
	if diff := cmp.Diff(Update{View: want}, log.last()); diff != "" {
		t.Fatalf("unexpected published update (-want +got):\n%s", diff)
	}
}

func TestNotificationsUpdateView(t *testing.T) {
	adapter := NewAdapter()
	src := NewRemote("pano-1", LatLng{Lat: 40.4, Lng: -3.7}, InitialPOV)
	adapter.Attach(src)

	src.Notify(EventPOVChanged, nil, &POV{Heading: 120, Pitch: 10, Zoom: 2})
	view, _ := adapter.Current()
	if view.Heading != 120 || view.Pitch != 10 || view.Zoom != 2 {
		t.Fatalf("pov change not applied: %+v", view)
	}

	src.Notify(EventPositionChanged, &LatLng{Lat: 40.5, Lng: -3.6}, nil)
	view, _ = adapter.Current()
	if view.Lat != 40.5 || view.Lng != -3.6 || view.Heading != 120 {
		t.Fatalf("position change not applied: %+v", view)
	}
}

func TestReattachKeepsOneListenerPerEvent(t *testing.T) {
	adapter := NewAdapter()
	first := NewRemote("a", LatLng{Lat: 1, Lng: 1}, InitialPOV)
	adapter.Attach(first)
	adapter.Attach(first)
	adapter.Attach(first)

	if n := first.ListenerCount(EventPOVChanged); n != 1 {
		t.Fatalf("pov listeners = %d, want 1", n)
	}
	if n := first.ListenerCount(EventPositionChanged); n != 1 {
		t.Fatalf("position listeners = %d, want 1", n)
	}

	second := NewRemote("b", LatLng{Lat: 2, Lng: 2}, InitialPOV)
	adapter.Attach(second)
	if first.ListenerCount(EventPOVChanged) != 0 || first.ListenerCount(EventPositionChanged) != 0 {
		t.Fatal("previous source still has listeners after reattach")
	}
	if second.ListenerCount(EventPOVChanged) != 1 || second.ListenerCount(EventPositionChanged) != 1 {
		t.Fatal("new source should have exactly one listener per event")
	}
}

func TestDetachedSourceNoLongerUpdates(t *testing.T) {
	adapter := NewAdapter()
	first := NewRemote("a", LatLng{Lat: 1, Lng: 1}, InitialPOV)
	second := NewRemote("b", LatLng{Lat: 2, Lng: 2}, InitialPOV)
	adapter.Attach(first)
	adapter.Attach(second)

	first.Notify(EventPOVChanged, nil, &POV{Heading: 270})
	view, _ := adapter.Current()
	if view.Lat != 2 || view.Heading != 0 {
		t.Fatalf("stale source changed the view: %+v", view)
	}
}

func TestDetachClearsViewAndListeners(t *testing.T) {
	adapter := NewAdapter()
	src := NewRemote("a", LatLng{Lat: 1, Lng: 1}, InitialPOV)
	adapter.Attach(src)
	adapter.Detach()

	if view, errMsg := adapter.Current(); view != nil || errMsg != "" {
		t.Fatalf("expected empty state, got %+v %q", view, errMsg)
	}
	if src.ListenerCount(EventPOVChanged)+src.ListenerCount(EventPositionChanged) != 0 {
		t.Fatal("detach left listeners registered")
	}
	if adapter.Source() != nil {
		t.Fatal("detach left the source attached")
	}
}

func TestUnavailableRecordsError(t *testing.T) {
	adapter := NewAdapter()
	log := &updateLog{}
	cancel := adapter.Subscribe(log.record)
	defer cancel()

	src := NewRemote("a", LatLng{Lat: 1, Lng: 1}, InitialPOV)
	adapter.Attach(src)
	adapter.Unavailable("No Street View imagery found")

	view, errMsg := adapter.Current()
	if view != nil || errMsg != "No Street View imagery found" {
		t.Fatalf("unexpected state %+v %q", view, errMsg)
	}
	if got := log.last(); got.View != nil || got.Err != "No Street View imagery found" {
		t.Fatalf("unexpected update %+v", got)
	}

	adapter.Attach(NewRemote("b", LatLng{Lat: 2, Lng: 2}, InitialPOV))
	if _, errMsg := adapter.Current(); errMsg != "" {
		t.Fatalf("attach should clear the error, got %q", errMsg)
	}
}

func TestSubscribeCancel(t *testing.T) {
	adapter := NewAdapter()
	log := &updateLog{}
	cancel := adapter.Subscribe(log.record)
	cancel()
	cancel()

	adapter.Attach(NewRemote("a", LatLng{Lat: 1, Lng: 1}, InitialPOV))
	if len(log.updates) != 0 {
		t.Fatalf("cancelled subscriber received %d updates", len(log.updates))
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	adapter := NewAdapter()
	adapter.Attach(NewRemote("a", LatLng{Lat: 1, Lng: 1}, InitialPOV))
	view, _ := adapter.Current()
	view.Lat = 99
	again, _ := adapter.Current()
	if again.Lat != 1 {
		t.Fatal("Current exposed internal state")
	}
}

func TestParseEvent(t *testing.T) {
	if ev, err := ParseEvent("pov_changed"); err != nil || ev != EventPOVChanged {
		t.Fatalf("ParseEvent(pov_changed) = %v, %v", ev, err)
	}
	if _, err := ParseEvent("zoom_changed"); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestConcurrentNotifyAndAttach(t *testing.T) {
	adapter := NewAdapter()
	src := NewRemote("a", LatLng{Lat: 1, Lng: 1}, InitialPOV)
	adapter.Attach(src)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			src.Notify(EventPOVChanged, nil, &POV{Heading: float64(i)})
		}(i)
		go func() {
			defer wg.Done()
			adapter.Attach(src)
		}()
	}
	wg.Wait()

	if src.ListenerCount(EventPOVChanged) != 1 || src.ListenerCount(EventPositionChanged) != 1 {
		t.Fatal("concurrent attaches leaked listeners")
	}
}
