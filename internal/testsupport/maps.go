package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// MapsServer is a fake of the Street View static, metadata and Maps
// JavaScript endpoints.
type MapsServer struct {
	*httptest.Server

	mu             sync.Mutex
	metadataStatus string
	panoLat        float64
	panoLng        float64
	staticStatus   int
	staticBody     []byte

	MetadataCalls atomic.Int32
	StaticCalls   atomic.Int32
	ScriptCalls   atomic.Int32
}

// NewMapsServer starts a fake that reports a panorama at every location and
// serves image as the still frame.
func NewMapsServer(t testing.TB, image []byte) *MapsServer {
	t.Helper()

	m := &MapsServer{
		metadataStatus: "OK",
		staticStatus:   http.StatusOK,
		staticBody:     image,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/streetview/metadata", m.handleMetadata)
	mux.HandleFunc("/streetview", m.handleStatic)
	mux.HandleFunc("/js", func(w http.ResponseWriter, _ *http.Request) {
		m.ScriptCalls.Add(1)
		w.Header().Set("Content-Type", "text/javascript")
		_, _ = w.Write([]byte("/* maps */"))
	})
	m.Server = httptest.NewServer(mux)
	t.Cleanup(m.Close)
	return m
}

// SetMetadataStatus changes the status returned by the metadata endpoint.
func (m *MapsServer) SetMetadataStatus(status string) {
	m.mu.Lock()
	m.metadataStatus = status
	m.mu.Unlock()
}

// SetPanoramaLocation fixes the snapped panorama location; zero values echo
// the requested point.
func (m *MapsServer) SetPanoramaLocation(lat, lng float64) {
	m.mu.Lock()
	m.panoLat, m.panoLng = lat, lng
	m.mu.Unlock()
}

// SetStatic changes the static endpoint response.
func (m *MapsServer) SetStatic(status int, body []byte) {
	m.mu.Lock()
	m.staticStatus = status
	m.staticBody = body
	m.mu.Unlock()
}

func (m *MapsServer) handleMetadata(w http.ResponseWriter, r *http.Request) {
	m.MetadataCalls.Add(1)
	m.mu.Lock()
	status, lat, lng := m.metadataStatus, m.panoLat, m.panoLng
	m.mu.Unlock()

	payload := map[string]any{"status": status}
	if status == "OK" {
		if lat == 0 && lng == 0 {
			var reqLat, reqLng float64
			if _, err := fmt.Sscanf(r.URL.Query().Get("location"), "%g,%g", &reqLat, &reqLng); err == nil {
				lat, lng = reqLat, reqLng
			}
		}
		payload["pano_id"] = "pano-test"
		payload["date"] = "2023-06"
		payload["copyright"] = "© Test"
		payload["location"] = map[string]float64{"lat": lat, "lng": lng}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (m *MapsServer) handleStatic(w http.ResponseWriter, _ *http.Request) {
	m.StaticCalls.Add(1)
	m.mu.Lock()
	status, body := m.staticStatus, m.staticBody
	m.mu.Unlock()

	if status == http.StatusOK {
		w.Header().Set("Content-Type", "image/jpeg")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
