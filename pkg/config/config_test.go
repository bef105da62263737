package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no config.yaml is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.Equal(t, 30, cfg.Detection.ReferenceSize)
	assert.Equal(t, 20, cfg.Detection.DetectionSize)
	assert.Equal(t, 0.5, cfg.Detection.DriftThreshold)
	assert.Equal(t, 30, cfg.VQA.ReferenceSize)
	assert.Equal(t, 20, cfg.VQA.DetectionSize)

	assert.Equal(t, "http://localhost:8085", cfg.Evidently.BaseURL)
	assert.Equal(t, "http://localhost:9090", cfg.Upstream.Detection.BaseURL)
	assert.Equal(t, 0.25, cfg.Upstream.Detection.ConfThreshold)
	assert.Equal(t, 50, cfg.Upstream.VQA.MaxLength)

	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INFERWATCH_SERVER_PORT", "9999")
	t.Setenv("INFERWATCH_DETECTION_REFERENCESIZE", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Detection.ReferenceSize)
}
