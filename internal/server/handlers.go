package server

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"facade/internal/api"
	"facade/internal/logging"
	"facade/internal/panorama"
	"facade/internal/services"
	"facade/internal/streetview"
)

const maxRequestBody = 64 << 10

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload := api.BootstrapResponse{
		Center: api.MapCenter{
			Lat:  s.cfg.Maps.CenterLat,
			Lng:  s.cfg.Maps.CenterLng,
			Zoom: s.cfg.Maps.CenterZoom,
		},
		InitialPOV: api.POV{
			Heading: panorama.InitialPOV.Heading,
			Pitch:   panorama.InitialPOV.Pitch,
			Zoom:    panorama.InitialPOV.Zoom,
		},
		Capture: api.CaptureSize{Width: streetview.CaptureWidth, Height: streetview.CaptureHeight},
	}
	ready, err := s.loader.EnsureLoaded(r.Context())
	if err != nil {
		payload.Error = services.UserMessage(err)
		payload.ErrorKind = services.Kind(err)
		s.writeJSON(w, http.StatusServiceUnavailable, payload)
		return
	}
	payload.ScriptURL = ready.ScriptURL
	payload.Libraries = ready.Libraries
	payload.Callback = ready.Callback
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.LocationRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validCoordinate(req.Lat, req.Lng) {
		s.writeError(w, http.StatusBadRequest, "invalid coordinate")
		return
	}

	if s.orchestrator.DismissIfTerminal() {
		s.logger.Debug("finished job dismissed by map click")
	}

	pano, err := s.locator.LookupPanorama(r.Context(), req.Lat, req.Lng)
	if err != nil {
		s.markUnavailable(services.UserMessage(err))
		if errors.Is(err, services.ErrConfigMissing) {
			s.writeServiceError(w, err)
			return
		}
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "panorama lookup failed", "panorama_unavailable",
			logging.Float64("lat", req.Lat),
			logging.Float64("lng", req.Lng),
			logging.String("kind", services.Kind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "click closer to a street"),
			logging.String(logging.FieldImpact, "transform disabled until a panorama loads"),
		)
		s.writeJSON(w, http.StatusOK, s.viewResponse())
		return
	}

	remote := panorama.NewRemote(pano.ID, panorama.LatLng{Lat: pano.Lat, Lng: pano.Lng}, panorama.InitialPOV)
	s.attachPanorama(remote, &pano)
	logging.WithContext(r.Context(), s.logger).Info("panorama attached",
		logging.String("pano_id", pano.ID),
		logging.Float64("distance_m", pano.DistanceMeters),
	)
	s.writeJSON(w, http.StatusOK, s.viewResponse())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.viewResponse())
	case http.MethodPost:
		var req api.ViewEventRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		event, err := panorama.ParseEvent(req.Event)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		remote, _ := s.currentPanorama()
		if remote == nil {
			s.writeKindError(w, http.StatusConflict, "no panorama attached", services.ErrPreconditionFailed)
			return
		}
		if req.PanoID != "" && req.PanoID != remote.PanoID() {
			s.writeKindError(w, http.StatusConflict, "stale panorama notification", services.ErrPreconditionFailed)
			return
		}
		var pos *panorama.LatLng
		if req.Position != nil {
			if !validCoordinate(req.Position.Lat, req.Position.Lng) {
				s.writeError(w, http.StatusBadRequest, "invalid coordinate")
				return
			}
			pos = &panorama.LatLng{Lat: req.Position.Lat, Lng: req.Position.Lng}
		}
		var pov *panorama.POV
		if req.POV != nil {
			pov = &panorama.POV{Heading: req.POV.Heading, Pitch: req.POV.Pitch, Zoom: req.POV.Zoom}
		}
		remote.Notify(event, pos, pov)
		s.writeJSON(w, http.StatusOK, s.viewResponse())
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snapshot, err := s.orchestrator.Trigger(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.FromJob(snapshot, time.Now()))
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, api.FromJob(s.orchestrator.Snapshot(), time.Now()))
	case http.MethodDelete:
		if err := s.orchestrator.Dismiss(); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.FromJob(s.orchestrator.Snapshot(), time.Now()))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload := api.StatusResponse{
		Running:              true,
		PID:                  os.Getpid(),
		StartedAt:            s.startedAt.UTC().Format(time.RFC3339),
		LockFilePath:         s.lockPath,
		MapsConfigured:       s.cfg.MapsConfigured(),
		GenerationConfigured: s.cfg.GenerationConfigured(),
		Model:                s.model,
		View:                 s.viewResponse(),
		Job:                  api.FromJob(s.orchestrator.Snapshot(), time.Now()),
		Checks:               api.FromChecks(s.checks),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) viewResponse() api.ViewResponse {
	view, panoErr := s.adapter.Current()
	_, pano := s.currentPanorama()
	return api.FromView(view, panoErr, pano, s.orchestrator.Idle())
}

// attachPanorama swaps the notified remote and the adapter source under one
// lock so overlapping map clicks cannot leave them pointing at different
// panoramas.
func (s *Server) attachPanorama(remote *panorama.Remote, pano *streetview.Panorama) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = remote
	s.pano = pano
	s.adapter.Attach(remote)
}

func (s *Server) markUnavailable(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = nil
	s.pano = nil
	s.adapter.Unavailable(message)
}

func decodeBody(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrJobInFlight):
		return http.StatusConflict
	case errors.Is(err, services.ErrConfigMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, services.ErrPanoramaUnavailable), errors.Is(err, services.ErrNoImagery):
		return http.StatusNotFound
	case errors.Is(err, services.ErrFetchFailed), errors.Is(err, services.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusForError(err), api.ErrorResponse{
		Error: services.UserMessage(err),
		Kind:  services.Kind(err),
	})
}

func (s *Server) writeKindError(w http.ResponseWriter, status int, message string, marker error) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Kind: services.Kind(marker)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
