package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"facade/internal/config"
	"facade/internal/job"
	"facade/internal/loader"
	"facade/internal/logging"
	"facade/internal/metrics"
	"facade/internal/notifications"
	"facade/internal/panorama"
	"facade/internal/preflight"
	"facade/internal/streetview"
)

// Loader resolves the Maps JavaScript bootstrap.
type Loader interface {
	EnsureLoaded(ctx context.Context) (loader.Ready, error)
}

// Locator finds the panorama nearest a clicked point.
type Locator interface {
	LookupPanorama(ctx context.Context, lat, lng float64) (streetview.Panorama, error)
}

// Deps are the collaborators the server drives. Loader, Locator and Fetcher
// are required; a nil Transformer makes every job fail at the transform stage
// with a missing-credential error.
type Deps struct {
	Loader      Loader
	Locator     Locator
	Fetcher     job.Fetcher
	Transformer job.Transformer
	Metrics     *metrics.Metrics
	Notifier    notifications.Service
	Checks      []preflight.Result
	Model       string
}

// Server owns the panorama adapter, the orchestrator and the HTTP surface.
type Server struct {
	cfg          *config.Config
	logger       *slog.Logger
	loader       Loader
	locator      Locator
	adapter      *panorama.Adapter
	orchestrator *job.Orchestrator
	metrics      *metrics.Metrics
	checks       []preflight.Result
	model        string
	handler      http.Handler
	startedAt    time.Time

	mu     sync.Mutex
	remote *panorama.Remote
	pano   *streetview.Panorama

	lockPath string
	lock     *flock.Flock
	listener net.Listener
	server   *http.Server
	running  atomic.Bool
	unsubs   []func()
}

// New constructs a server with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) (*Server, error) {
	if cfg == nil || deps.Loader == nil || deps.Locator == nil || deps.Fetcher == nil {
		return nil, errors.New("server requires config, loader, locator, and fetcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}

	adapter := panorama.NewAdapter()
	orchestrator := job.New(adapter, deps.Fetcher, deps.Transformer,
		job.WithLogger(logger),
		job.WithRecorder(deps.Metrics),
		job.WithNotifier(deps.Notifier),
	)

	lockPath := cfg.LockPath()
	s := &Server{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "server"),
		loader:       deps.Loader,
		locator:      deps.Locator,
		adapter:      adapter,
		orchestrator: orchestrator,
		metrics:      deps.Metrics,
		checks:       deps.Checks,
		model:        deps.Model,
		startedAt:    time.Now(),
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}
	s.handler = s.routes()
	s.unsubs = append(s.unsubs,
		adapter.Subscribe(func(u panorama.Update) {
			if u.Err != "" {
				s.logger.Debug("panorama unavailable", logging.String("reason", u.Err))
				return
			}
			if u.View != nil {
				s.logger.Debug("view updated",
					logging.Float64("lat", u.View.Lat),
					logging.Float64("lng", u.View.Lng),
					logging.Float64("heading", u.View.Heading),
					logging.Float64("pitch", u.View.Pitch),
					logging.Float64("zoom", u.View.Zoom),
				)
			}
		}),
		orchestrator.Subscribe(func(j job.Job) {
			s.logger.Debug("job state",
				logging.String(logging.FieldJobID, j.ID),
				logging.String("status", string(j.Status)),
			)
		}),
	)
	return s, nil
}

// Handler returns the HTTP handler for the service.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Orchestrator exposes the job orchestrator.
func (s *Server) Orchestrator() *job.Orchestrator {
	return s.orchestrator
}

// Adapter exposes the panorama adapter.
func (s *Server) Adapter() *panorama.Adapter {
	return s.adapter
}

// LockPath returns the single-instance lock file path.
func (s *Server) LockPath() string {
	return s.lockPath
}

// Start acquires the single-instance lock and begins serving on the
// configured bind address. The server shuts down when ctx ends.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another facade instance is already running")
	}

	bind := strings.TrimSpace(s.cfg.Server.Bind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.running.Store(true)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("facade server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
	)
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down and releases the lock.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release server lock", logging.Error(err))
	}
	s.logger.Info("facade server stopped")
}

// Close stops the server and drops internal subscriptions.
func (s *Server) Close() error {
	s.Stop()
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	s.adapter.Detach()
	return nil
}

func (s *Server) routes() http.Handler {
	token := strings.TrimSpace(s.cfg.Server.APIToken)
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/static/", http.StripPrefix("/static/", staticHandler()))
	mux.Handle("/metrics", s.metrics.Handler())

	mux.HandleFunc("/api/bootstrap", authMiddleware(token, s.handleBootstrap))
	mux.HandleFunc("/api/location", authMiddleware(token, s.handleLocation))
	mux.HandleFunc("/api/view", authMiddleware(token, s.handleView))
	mux.HandleFunc("/api/transform", authMiddleware(token, s.handleTransform))
	mux.HandleFunc("/api/job", authMiddleware(token, s.handleJob))
	mux.HandleFunc("/api/status", authMiddleware(token, s.handleStatus))

	return requestIDMiddleware(s.logger, mux)
}

func (s *Server) currentPanorama() (*panorama.Remote, *streetview.Panorama) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote, s.pano
}
