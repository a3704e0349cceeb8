package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeMaps()
	c.normalizeGeneration()
	c.normalizeNotifications()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("FACADE_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Server.LockDir) == "" {
		c.Server.LockDir = defaultLockDir
	}
	var err error
	if c.Server.LockDir, err = expandPath(c.Server.LockDir); err != nil {
		return fmt.Errorf("server.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMaps() {
	c.Maps.APIKey = strings.TrimSpace(c.Maps.APIKey)
	if c.Maps.APIKey == "" {
		c.Maps.APIKey = firstEnv("GOOGLE_MAPS_API_KEY", "NEXT_PUBLIC_GOOGLE_MAPS_API_KEY")
	}
	c.Maps.StaticBaseURL = strings.TrimSpace(c.Maps.StaticBaseURL)
	if c.Maps.StaticBaseURL == "" {
		c.Maps.StaticBaseURL = defaultStaticBaseURL
	}
	c.Maps.MetadataBaseURL = strings.TrimSpace(c.Maps.MetadataBaseURL)
	if c.Maps.MetadataBaseURL == "" {
		c.Maps.MetadataBaseURL = defaultMetadataBaseURL
	}
	c.Maps.JSBaseURL = strings.TrimSpace(c.Maps.JSBaseURL)
	if c.Maps.JSBaseURL == "" {
		c.Maps.JSBaseURL = defaultJSBaseURL
	}
	if c.Maps.CenterLat == 0 && c.Maps.CenterLng == 0 {
		c.Maps.CenterLat = defaultCenterLat
		c.Maps.CenterLng = defaultCenterLng
	}
	if c.Maps.CenterZoom <= 0 {
		c.Maps.CenterZoom = defaultCenterZoom
	}
	if c.Maps.TimeoutSeconds <= 0 {
		c.Maps.TimeoutSeconds = defaultMapsTimeout
	}
}

func (c *Config) normalizeGeneration() {
	c.Generation.APIKey = strings.TrimSpace(c.Generation.APIKey)
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	c.Generation.Model = strings.TrimSpace(c.Generation.Model)
	if c.Generation.Model == "" {
		c.Generation.Model = defaultGenerationModel
	}
	c.Generation.BaseURL = strings.TrimSpace(c.Generation.BaseURL)
	if c.Generation.TimeoutSeconds <= 0 {
		c.Generation.TimeoutSeconds = defaultGenerationTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = firstEnv("FACADE_NTFY_TOPIC")
	}
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = ""
		return nil
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
