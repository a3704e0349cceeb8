package streetview

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"facade/internal/logging"
)

const (
	defaultHTTPTimeout   = 15 * time.Second
	defaultCacheSize     = 256
	defaultCacheTTL      = 30 * time.Minute
	defaultStaticBaseURL = "https://maps.googleapis.com/maps/api/streetview"
	defaultMetadataURL   = "https://maps.googleapis.com/maps/api/streetview/metadata"
)

// Config captures the runtime settings for the Street View endpoints.
type Config struct {
	APIKey          string
	StaticBaseURL   string
	MetadataBaseURL string
	TimeoutSeconds  int
}

// Recorder receives per-request outcomes. Implemented by internal/metrics.
type Recorder interface {
	StaticFetch(status string)
	PanoramaLookup(result string)
}

type nopRecorder struct{}

func (nopRecorder) StaticFetch(string)    {}
func (nopRecorder) PanoramaLookup(string) {}

// Client fetches still images and panorama metadata.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	recorder   Recorder
	cache      *expirable.LRU[string, Panorama]
	cacheTTL   time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder attaches an outcome recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		if recorder != nil {
			c.recorder = recorder
		}
	}
}

// WithCacheTTL overrides how long metadata lookups are remembered. Zero
// disables expiry.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// NewClient constructs a Street View client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:          strings.TrimSpace(cfg.APIKey),
			StaticBaseURL:   strings.TrimSpace(cfg.StaticBaseURL),
			MetadataBaseURL: strings.TrimSpace(cfg.MetadataBaseURL),
			TimeoutSeconds:  cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
		recorder:   nopRecorder{},
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.StaticBaseURL == "" {
		client.cfg.StaticBaseURL = defaultStaticBaseURL
	}
	if client.cfg.MetadataBaseURL == "" {
		client.cfg.MetadataBaseURL = defaultMetadataURL
	}
	client.cache = expirable.NewLRU[string, Panorama](defaultCacheSize, nil, client.cacheTTL)
	return client
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// StaticBaseURL returns the configured still-image endpoint.
func (c *Client) StaticBaseURL() string {
	return c.cfg.StaticBaseURL
}
