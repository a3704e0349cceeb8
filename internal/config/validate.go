package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Missing credentials are not
// validation failures; callers check MapsConfigured / GenerationConfigured.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateMaps(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if c.Notifications.NtfyTopic != "" {
		if err := ensureHTTPURL("notifications.ntfy_topic", c.Notifications.NtfyTopic); err != nil {
			return err
		}
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateMaps() error {
	for key, value := range map[string]string{
		"maps.static_base_url":   c.Maps.StaticBaseURL,
		"maps.metadata_base_url": c.Maps.MetadataBaseURL,
		"maps.js_base_url":       c.Maps.JSBaseURL,
	} {
		if err := ensureHTTPURL(key, value); err != nil {
			return err
		}
	}
	if c.Maps.CenterLat < -90 || c.Maps.CenterLat > 90 {
		return errors.New("maps.center_lat must be between -90 and 90")
	}
	if c.Maps.CenterLng < -180 || c.Maps.CenterLng > 180 {
		return errors.New("maps.center_lng must be between -180 and 180")
	}
	if c.Maps.CenterZoom > 22 {
		return errors.New("maps.center_zoom must be 22 or lower")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.BaseURL != "" {
		if err := ensureHTTPURL("generation.base_url", c.Generation.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensureHTTPURL(key, value string) error {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", key)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}
