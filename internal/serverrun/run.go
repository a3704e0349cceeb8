package serverrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"facade/internal/config"
	"facade/internal/facade"
	"facade/internal/job"
	"facade/internal/loader"
	"facade/internal/logging"
	"facade/internal/metrics"
	"facade/internal/notifications"
	"facade/internal/preflight"
	"facade/internal/server"
	"facade/internal/streetview"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the facade service and blocks until SIGINT/SIGTERM or ctx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := newLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Server.LockDir, "facaded.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	deps, err := BuildDeps(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	logCredentialSnapshot(logger, cfg, deps.Model)

	deps.Checks = preflight.RunAll(signalCtx, cfg)
	for _, failed := range preflight.Failed(deps.Checks) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "run facade status for details"),
			logging.String(logging.FieldImpact, "related features report errors in the page"),
		)
	}

	srv, err := server.New(cfg, logger, deps)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	if err := srv.Start(signalCtx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("facade server shutting down")
	return nil
}

// BuildDeps wires the production collaborators for the server and the
// headless capture command. A missing generation credential leaves the
// transformer nil; jobs then fail at the transform stage.
func BuildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (server.Deps, error) {
	if cfg == nil {
		return server.Deps{}, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := metrics.New()

	sv := streetview.NewClient(streetview.Config{
		APIKey:          cfg.Maps.APIKey,
		StaticBaseURL:   cfg.Maps.StaticBaseURL,
		MetadataBaseURL: cfg.Maps.MetadataBaseURL,
		TimeoutSeconds:  cfg.Maps.TimeoutSeconds,
	},
		streetview.WithLogger(logging.NewComponentLogger(logger, "streetview")),
		streetview.WithRecorder(m),
	)

	ld := loader.New(loader.Config{
		APIKey:         cfg.Maps.APIKey,
		JSBaseURL:      cfg.Maps.JSBaseURL,
		TimeoutSeconds: cfg.Maps.TimeoutSeconds,
	}, loader.WithLogger(logging.NewComponentLogger(logger, "loader")))

	deps := server.Deps{
		Loader:   ld,
		Locator:  sv,
		Fetcher:  sv,
		Metrics:  m,
		Notifier: notifications.NewService(cfg),
		Model:    cfg.Generation.Model,
	}

	var transformer job.Transformer
	client, err := facade.NewClient(ctx, facade.Config{
		APIKey:         cfg.Generation.APIKey,
		Model:          cfg.Generation.Model,
		BaseURL:        cfg.Generation.BaseURL,
		TimeoutSeconds: cfg.Generation.TimeoutSeconds,
	}, facade.WithLogger(logging.NewComponentLogger(logger, "generation")))
	if err != nil {
		logging.WarnWithContext(logger, "generation client unavailable", "generation_unconfigured",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set GEMINI_API_KEY or generation.api_key"),
			logging.String(logging.FieldImpact, "transformations fail after capture"),
		)
	} else {
		transformer = client
		deps.Model = client.Model()
	}
	deps.Transformer = transformer
	return deps, nil
}

func newLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	paths := []string{"stderr"}
	if dir := strings.TrimSpace(cfg.Logging.Dir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		paths = append(paths, filepath.Join(dir, "facade.log"))
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: paths,
		Development: opts.Development,
	})
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logCredentialSnapshot(logger *slog.Logger, cfg *config.Config, model string) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("credential snapshot",
		logging.String(logging.FieldEventType, "credential_snapshot"),
		logging.Bool("maps_key_present", cfg.MapsConfigured()),
		logging.Bool("generation_key_present", cfg.GenerationConfigured()),
		logging.String("model", model),
		logging.Bool("notifications_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("bind", cfg.Server.Bind),
	)
}
