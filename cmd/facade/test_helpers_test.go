package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"facade/internal/config"
	"facade/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	maps       *testsupport.MapsServer
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	for _, name := range []string{
		"GOOGLE_MAPS_API_KEY",
		"NEXT_PUBLIC_GOOGLE_MAPS_API_KEY",
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
		"FACADE_API_TOKEN",
		"FACADE_NTFY_TOPIC",
	} {
		t.Setenv(name, "")
	}

	maps := testsupport.NewMapsServer(t, testsupport.JPEG(t))
	cfg := testsupport.NewConfig(t,
		testsupport.WithMapsKey("maps-test-key-123"),
		testsupport.WithMapsServer(maps),
	)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		maps:       maps,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[server]\nbind = %q\nlock_dir = %q\n\n"+
			"[maps]\napi_key = %q\nstatic_base_url = %q\nmetadata_base_url = %q\njs_base_url = %q\n\n"+
			"[paths]\noutput_dir = %q\n\n"+
			"[logging]\nlevel = %q\n",
		cfg.Server.Bind,
		cfg.Server.LockDir,
		cfg.Maps.APIKey,
		cfg.Maps.StaticBaseURL,
		cfg.Maps.MetadataBaseURL,
		cfg.Maps.JSBaseURL,
		cfg.Paths.OutputDir,
		"warn",
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
