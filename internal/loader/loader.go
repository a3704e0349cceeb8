// Package loader prepares the Maps JavaScript bootstrap once per process.
//
// EnsureLoaded may be called from any number of goroutines; the first call
// performs the credential check and a single probe of the script endpoint,
// and every caller, concurrent or later, receives that same outcome.
package loader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"facade/internal/logging"
	"facade/internal/services"
)

const (
	stageLoad        = "load"
	defaultJSBaseURL = "https://maps.googleapis.com/maps/api/js"
	defaultTimeout   = 15 * time.Second
	callbackName     = "initMap"
)

// Libraries are the Maps JavaScript libraries the page needs.
var Libraries = []string{"streetView", "marker"}

// Ready describes a usable Maps bootstrap.
type Ready struct {
	ScriptURL string    `json:"script_url"`
	Libraries []string  `json:"libraries"`
	Callback  string    `json:"callback"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Config captures the loader settings.
type Config struct {
	APIKey         string
	JSBaseURL      string
	TimeoutSeconds int
}

// Service is the process-wide Maps loader.
type Service struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration

	mu     sync.Mutex
	done   chan struct{}
	ready  Ready
	err    error
	probes int
}

// Option customizes the service.
type Option func(*Service)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a loader service.
func New(cfg Config, opts ...Option) *Service {
	s := &Service{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			JSBaseURL:      strings.TrimSpace(cfg.JSBaseURL),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: http.DefaultClient,
		logger:     logging.NewNop(),
		timeout:    defaultTimeout,
	}
	if cfg.TimeoutSeconds > 0 {
		s.timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if s.cfg.JSBaseURL == "" {
		s.cfg.JSBaseURL = defaultJSBaseURL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureLoaded returns the shared load outcome, performing the load on first
// use. A caller whose ctx ends before the load finishes gets ctx.Err(); the
// load itself keeps running for the other callers.
func (s *Service) EnsureLoaded(ctx context.Context) (Ready, error) {
	s.mu.Lock()
	if s.done == nil {
		s.done = make(chan struct{})
		go s.load(context.WithoutCancel(ctx))
	}
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.ready, s.err
	case <-ctx.Done():
		return Ready{}, ctx.Err()
	}
}

// Probes reports how many probe requests have been issued.
func (s *Service) Probes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probes
}

// ScriptURL renders the bootstrap URL for key.
func ScriptURL(base, key string) string {
	values := url.Values{}
	values.Set("key", key)
	values.Set("libraries", strings.Join(Libraries, ","))
	values.Set("callback", callbackName)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + values.Encode()
}

func (s *Service) load(ctx context.Context) {
	ready, err := s.probe(ctx)

	s.mu.Lock()
	s.ready = ready
	s.err = err
	close(s.done)
	s.mu.Unlock()

	if err != nil {
		logging.WarnWithContext(s.logger, "maps script unavailable", "maps_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set maps.api_key or GOOGLE_MAPS_API_KEY and check network access"),
			logging.String(logging.FieldImpact, "map and panorama cannot be shown"),
		)
		return
	}
	s.logger.Info("maps script ready", logging.String("libraries", strings.Join(Libraries, ",")))
}

func (s *Service) probe(ctx context.Context) (Ready, error) {
	if s.cfg.APIKey == "" {
		return Ready{}, services.Wrap(services.ErrConfigMissing, stageLoad, "check credential",
			"Google Maps API key is missing. Please set GOOGLE_MAPS_API_KEY.", nil)
	}
	scriptURL := ScriptURL(s.cfg.JSBaseURL, s.cfg.APIKey)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scriptURL, nil)
	if err != nil {
		return Ready{}, services.Wrap(services.ErrFetchFailed, stageLoad, "build request", "Failed to load Google Maps script.", err)
	}

	s.mu.Lock()
	s.probes++
	s.mu.Unlock()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Ready{}, services.Wrap(services.ErrFetchFailed, stageLoad, "probe script", "Failed to load Google Maps script.", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return Ready{}, services.Wrap(services.ErrFetchFailed, stageLoad, "probe script",
			"Failed to load Google Maps script (status "+resp.Status+").", nil)
	}
	return Ready{
		ScriptURL: scriptURL,
		Libraries: append([]string(nil), Libraries...),
		Callback:  callbackName,
		LoadedAt:  time.Now().UTC(),
	}, nil
}
