package domain

import "time"

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendFile   = "file"
	CacheBackendRedis  = "redis"
)

// Telemetry exporters.
const (
	TelemetryNone     = "none"
	TelemetryOTel     = "otel"
	TelemetryProgrock = "progrock"
)

// Config is the project configuration read from sift.yaml.
type Config struct {
	// Root is the directory containing the configuration file.
	Root string

	Evaluate       bool
	DisplayName    bool
	Extension      string
	OutDir         string
	Runtime        string
	TagSources     []string
	Pure           []string
	Globals        map[string]any
	SandboxTimeout time.Duration

	Cache       CacheConfig
	Telemetry   string
	MetricsAddr string
}

// CacheConfig selects the persistent cache backend.
type CacheConfig struct {
	Backend  string
	Dir      string
	RedisURL string
}

// DefaultConfig returns the configuration used when no sift.yaml exists.
func DefaultConfig(root string) *Config {
	return &Config{
		Root:           root,
		Evaluate:       true,
		Extension:      DefaultExtension,
		OutDir:         DefaultOutPath(),
		Runtime:        DefaultRuntimeModule,
		TagSources:     []string{DefaultTagSource},
		SandboxTimeout: DefaultSandboxTimeout,
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
			Dir:     DefaultCachePath(),
		},
		Telemetry: TelemetryNone,
	}
}

// Options derives transform options from the configuration.
func (c *Config) Options() Options {
	return Options{
		Evaluate:      c.Evaluate,
		DisplayName:   c.DisplayName,
		Extension:     c.Extension,
		TagSources:    c.TagSources,
		RuntimeModule: c.Runtime,
		Globals:       c.Globals,
		PureCallees:   c.Pure,
		Timeout:       c.SandboxTimeout,
	}.WithDefaults()
}
