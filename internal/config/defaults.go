package config

const (
	defaultConfigPath        = "~/.config/facade/config.toml"
	defaultBind              = "127.0.0.1:7488"
	defaultLockDir           = "~/.local/share/facade"
	defaultOutputDir         = "~/.local/share/facade/captures"
	defaultStaticBaseURL     = "https://maps.googleapis.com/maps/api/streetview"
	defaultMetadataBaseURL   = "https://maps.googleapis.com/maps/api/streetview/metadata"
	defaultJSBaseURL         = "https://maps.googleapis.com/maps/api/js"
	defaultCenterLat         = 40.416775
	defaultCenterLng         = -3.703790
	defaultCenterZoom        = 15
	defaultMapsTimeout       = 15
	defaultGenerationModel   = "gemini-2.0-flash-exp"
	defaultGenerationTimeout = 120
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:    defaultBind,
			LockDir: defaultLockDir,
		},
		Maps: Maps{
			StaticBaseURL:   defaultStaticBaseURL,
			MetadataBaseURL: defaultMetadataBaseURL,
			JSBaseURL:       defaultJSBaseURL,
			CenterLat:       defaultCenterLat,
			CenterLng:       defaultCenterLng,
			CenterZoom:      defaultCenterZoom,
			TimeoutSeconds:  defaultMapsTimeout,
		},
		Generation: Generation{
			Model:          defaultGenerationModel,
			TimeoutSeconds: defaultGenerationTimeout,
		},
		Paths: Paths{
			OutputDir: defaultOutputDir,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
