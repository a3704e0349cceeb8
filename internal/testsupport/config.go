package testsupport

import (
	"path/filepath"
	"testing"

	"facade/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials are left empty unless an option sets them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.LockDir = filepath.Join(base, "run")
	cfgVal.Paths.OutputDir = filepath.Join(base, "captures")
	cfgVal.Logging.Dir = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithMapsKey sets the Street View credential.
func WithMapsKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Maps.APIKey = key
	}
}

// WithGenerationKey sets the Gemini credential.
func WithGenerationKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generation.APIKey = key
	}
}

// WithAPIToken enables bearer-token auth on the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithMapsServer points every Maps endpoint at a fake backend.
func WithMapsServer(srv *MapsServer) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Maps.StaticBaseURL = srv.URL + "/streetview"
		b.cfg.Maps.MetadataBaseURL = srv.URL + "/streetview/metadata"
		b.cfg.Maps.JSBaseURL = srv.URL + "/js"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
