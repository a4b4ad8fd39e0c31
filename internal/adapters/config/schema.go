package config

// Siftfile represents the structure of the sift.yaml configuration file.
type Siftfile struct {
	Version     string         `yaml:"version"`
	Evaluate    *bool          `yaml:"evaluate"`
	DisplayName bool           `yaml:"displayName"`
	Extension   string         `yaml:"extension"`
	OutDir      string         `yaml:"outDir"`
	Runtime     string         `yaml:"runtime"`
	Tags        TagsDTO        `yaml:"tags"`
	Pure        []string       `yaml:"pure"`
	Globals     map[string]any `yaml:"globals"`
	Sandbox     SandboxDTO     `yaml:"sandbox"`
	Cache       CacheDTO       `yaml:"cache"`
	Telemetry   string         `yaml:"telemetry"`
	Metrics     MetricsDTO     `yaml:"metrics"`
}

// TagsDTO selects the modules whose css and styled exports are extracted.
type TagsDTO struct {
	Sources []string `yaml:"sources"`
}

// SandboxDTO configures the JavaScript execution host.
type SandboxDTO struct {
	Timeout string `yaml:"timeout"`
}

// CacheDTO configures the persistent cache backend.
type CacheDTO struct {
	Backend  string `yaml:"backend"`
	Dir      string `yaml:"dir"`
	RedisURL string `yaml:"redisURL"`
}

// MetricsDTO configures the metrics endpoint served in watch mode.
type MetricsDTO struct {
	Addr string `yaml:"addr"`
}
