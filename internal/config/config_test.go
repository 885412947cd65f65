package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "ffprobe", cfg.Probe.FFprobePath)
	assert.Equal(t, 30*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.GreaterOrEqual(t, cfg.Scanner.WorkerCount, 1)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
scanner:
  parallel_scanning: true
  worker_count: 8
probe:
  ffprobe_path: /opt/ffmpeg/bin/ffprobe
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m := &Manager{}
	require.NoError(t, m.Load(path))

	cfg := m.Get()
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.Scanner.ParallelScanning)
	assert.Equal(t, 8, cfg.Scanner.WorkerCount)
	assert.Equal(t, "/opt/ffmpeg/bin/ffprobe", cfg.Probe.FFprobePath)
	// Untouched sections keep defaults.
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m := &Manager{}
	require.NoError(t, m.Load(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, 8080, m.Get().Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VIDVAULT_PORT", "7070")
	t.Setenv("VIDVAULT_PARALLEL_SCANNING", "true")
	t.Setenv("VIDVAULT_CPU_THRESHOLD", "70.5")
	t.Setenv("VIDVAULT_PROBE_TIMEOUT", "45s")

	m := &Manager{}
	require.NoError(t, m.Load(""))

	cfg := m.Get()
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Scanner.ParallelScanning)
	assert.Equal(t, 70.5, cfg.Scanner.CPUThreshold)
	assert.Equal(t, 45*time.Second, cfg.Probe.Timeout)
}

func TestEnvOverrideInvalidValue(t *testing.T) {
	t.Setenv("VIDVAULT_PORT", "not-a-number")

	m := &Manager{}
	assert.Error(t, m.Load(""))
}

func TestValidation(t *testing.T) {
	m := &Manager{}
	t.Setenv("VIDVAULT_PORT", "0")
	assert.Error(t, m.Load(""))

	t.Setenv("VIDVAULT_PORT", "8080")
	t.Setenv("DATABASE_TYPE", "oracle")
	assert.Error(t, m.Load(""))
}

func TestDatabasePathDerivation(t *testing.T) {
	t.Setenv("VIDVAULT_DATA_DIR", "/tmp/catalog-data")

	m := &Manager{}
	require.NoError(t, m.Load(""))
	assert.Equal(t, filepath.Join("/tmp/catalog-data", "vidvault.db"), m.Get().Database.DatabasePath)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	m := &Manager{}
	require.NoError(t, m.Load(path))
	m.Get().Server.Port = 6060
	require.NoError(t, m.Save())

	reloaded := &Manager{}
	require.NoError(t, reloaded.Load(path))
	assert.Equal(t, 6060, reloaded.Get().Server.Port)
}
