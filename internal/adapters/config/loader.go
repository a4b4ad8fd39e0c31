// Package config provides the configuration loader for sift.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the sift.yaml schema version this loader understands.
const SupportedVersion = "1"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load walks up from cwd to the nearest sift.yaml and returns its configuration.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	configPath, ok := findConfiguration(cwd)
	if !ok {
		l.Logger.Debug(fmt.Sprintf("no %s found above %s, using defaults", domain.SiftFileName, cwd))
		cfg := domain.DefaultConfig(cwd)
		resolvePaths(cfg)
		return cfg, nil
	}

	var siftfile Siftfile
	if err := readAndUnmarshalYAML(configPath, &siftfile); err != nil {
		return nil, domain.Fail(err, "path", configPath)
	}

	if siftfile.Version != "" && siftfile.Version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q, expected %q", configPath, siftfile.Version, SupportedVersion))
	}

	cfg, err := buildConfig(filepath.Dir(configPath), &siftfile)
	if err != nil {
		return nil, domain.Fail(err, "path", configPath)
	}
	return cfg, nil
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.SiftFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

func buildConfig(root string, f *Siftfile) (*domain.Config, error) {
	cfg := domain.DefaultConfig(root)

	if f.Evaluate != nil {
		cfg.Evaluate = *f.Evaluate
	}
	cfg.DisplayName = f.DisplayName
	if f.Extension != "" {
		if !strings.HasPrefix(f.Extension, ".") {
			return nil, domain.Fail(domain.ErrInvalidConfig, "extension", f.Extension)
		}
		cfg.Extension = f.Extension
	}
	if f.OutDir != "" {
		cfg.OutDir = f.OutDir
	}
	if f.Runtime != "" {
		cfg.Runtime = f.Runtime
	}
	if len(f.Tags.Sources) > 0 {
		cfg.TagSources = canonicalizeStrings(f.Tags.Sources)
	}
	cfg.Pure = canonicalizeStrings(f.Pure)
	cfg.Globals = f.Globals

	if f.Sandbox.Timeout != "" {
		timeout, err := time.ParseDuration(f.Sandbox.Timeout)
		if err != nil || timeout <= 0 {
			return nil, domain.Fail(domain.ErrInvalidConfig, "sandbox.timeout", f.Sandbox.Timeout)
		}
		cfg.SandboxTimeout = timeout
	}

	if f.Cache.Backend != "" {
		cfg.Cache.Backend = f.Cache.Backend
	}
	if f.Cache.Dir != "" {
		cfg.Cache.Dir = f.Cache.Dir
	}
	cfg.Cache.RedisURL = f.Cache.RedisURL
	if err := validateCache(cfg.Cache); err != nil {
		return nil, err
	}

	if f.Telemetry != "" {
		cfg.Telemetry = f.Telemetry
	}
	if !slices.Contains([]string{domain.TelemetryNone, domain.TelemetryOTel, domain.TelemetryProgrock}, cfg.Telemetry) {
		return nil, domain.Fail(domain.ErrInvalidConfig, "telemetry", cfg.Telemetry)
	}
	cfg.MetricsAddr = f.Metrics.Addr

	resolvePaths(cfg)
	return cfg, nil
}

func validateCache(c domain.CacheConfig) error {
	switch c.Backend {
	case domain.CacheBackendMemory, domain.CacheBackendFile:
		return nil
	case domain.CacheBackendRedis:
		if c.RedisURL == "" {
			return domain.Fail(domain.ErrInvalidConfig, "cache.backend", c.Backend, "missing", "cache.redisURL")
		}
		return nil
	default:
		return domain.Fail(domain.ErrInvalidConfig, "cache.backend", c.Backend)
	}
}

// resolvePaths makes the output and cache directories absolute against the
// configuration root.
func resolvePaths(cfg *domain.Config) {
	if !filepath.IsAbs(cfg.OutDir) {
		cfg.OutDir = filepath.Join(cfg.Root, cfg.OutDir)
	}
	if !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(cfg.Root, cfg.Cache.Dir)
	}
}

func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is found by walking up from the working directory
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return domain.Because(domain.ErrConfigRead, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(configFile))
	dec.KnownFields(true)
	if parseErr := dec.Decode(target); parseErr != nil && !errors.Is(parseErr, io.EOF) {
		return domain.Because(domain.ErrConfigParse, parseErr)
	}

	return nil
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}

	sorted := make([]string, len(strs))
	copy(sorted, strs)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
