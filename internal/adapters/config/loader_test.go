package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/config"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func createFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), domain.PrivateFilePerm))
}

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	return config.NewLoader(mockLogger)
}

func TestLoader_Load_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := newLoader(t).Load(root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.True(t, cfg.Evaluate)
	assert.Equal(t, domain.DefaultExtension, cfg.Extension)
	assert.Equal(t, filepath.Join(root, domain.DefaultOutPath()), cfg.OutDir)
	assert.Equal(t, filepath.Join(root, domain.DefaultCachePath()), cfg.Cache.Dir)
	assert.Equal(t, domain.CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, domain.TelemetryNone, cfg.Telemetry)
	assert.Equal(t, domain.DefaultSandboxTimeout, cfg.SandboxTimeout)
}

func TestLoader_Load_Full(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, domain.SiftFileName, `
version: "1"
evaluate: false
displayName: true
extension: .styles.css
outDir: dist/css
runtime: "@acme/runtime"
tags:
  sources: ["@acme/css", "@sift/core", "@acme/css"]
pure: [clsx, classnames]
globals:
  BRAND: "#123456"
  spacing: 8
sandbox:
  timeout: 250ms
cache:
  backend: redis
  redisURL: redis://localhost:6379/1
telemetry: otel
metrics:
  addr: ":9464"
`)

	cfg, err := newLoader(t).Load(root)
	require.NoError(t, err)

	assert.False(t, cfg.Evaluate)
	assert.True(t, cfg.DisplayName)
	assert.Equal(t, ".styles.css", cfg.Extension)
	assert.Equal(t, filepath.Join(root, "dist", "css"), cfg.OutDir)
	assert.Equal(t, "@acme/runtime", cfg.Runtime)
	assert.Equal(t, []string{"@acme/css", "@sift/core"}, cfg.TagSources)
	assert.Equal(t, []string{"classnames", "clsx"}, cfg.Pure)
	assert.Equal(t, map[string]any{"BRAND": "#123456", "spacing": 8}, cfg.Globals)
	assert.Equal(t, 250*time.Millisecond, cfg.SandboxTimeout)
	assert.Equal(t, domain.CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Cache.RedisURL)
	assert.Equal(t, domain.TelemetryOTel, cfg.Telemetry)
	assert.Equal(t, ":9464", cfg.MetricsAddr)

	opts := cfg.Options()
	assert.False(t, opts.Evaluate)
	assert.Equal(t, 250*time.Millisecond, opts.Timeout)
}

func TestLoader_Load_WalksUp(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, domain.SiftFileName, "displayName: true\n")
	nested := filepath.Join(root, "packages", "ui", "src")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	cfg, err := newLoader(t).Load(nested)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.True(t, cfg.DisplayName)
	assert.True(t, cfg.Evaluate)
}

func TestLoader_Load_EmptyFile(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, domain.SiftFileName, "")

	cfg, err := newLoader(t).Load(root)
	require.NoError(t, err)
	assert.Equal(t, domain.CacheBackendMemory, cfg.Cache.Backend)
}

func TestLoader_Load_VersionWarning(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, domain.SiftFileName, "version: \"2\"\n")

	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).Times(1)

	_, err := config.NewLoader(mockLogger).Load(root)
	require.NoError(t, err)
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"malformed", "evaluate: [", domain.ErrConfigParse},
		{"unknown key", "evalute: true\n", domain.ErrConfigParse},
		{"bad timeout", "sandbox:\n  timeout: soon\n", domain.ErrInvalidConfig},
		{"negative timeout", "sandbox:\n  timeout: -1s\n", domain.ErrInvalidConfig},
		{"bad backend", "cache:\n  backend: s3\n", domain.ErrInvalidConfig},
		{"redis without url", "cache:\n  backend: redis\n", domain.ErrInvalidConfig},
		{"bad telemetry", "telemetry: jaeger\n", domain.ErrInvalidConfig},
		{"bad extension", "extension: css\n", domain.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			createFile(t, root, domain.SiftFileName, tt.content)

			_, err := newLoader(t).Load(root)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoader_Load_Unreadable(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, domain.SiftFileName), domain.DirPerm))

	cfg, err := newLoader(t).Load(root)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
}
