package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
sim:
  units: 4
  levels: 12
  speed_levels_per_sec: 2
mqtt:
  broker: tcp://localhost:1883
  client_id: test
metrics:
  prometheus_enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Sim.Units)
	assert.Equal(t, 12, cfg.Sim.Levels)
	assert.Equal(t, 2.0, cfg.Sim.SpeedLevelsPerSec)
	// defaults fill the rest
	assert.Equal(t, 100, cfg.Sim.TickMS)
	assert.Equal(t, "lift/fleet/state", cfg.MQTT.StateTopic)
	assert.Equal(t, ":9090", cfg.Metrics.PrometheusAddr)
	assert.Equal(t, ":8080", cfg.API.Addr)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"sim":{"units":1,"levels":5}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Sim.Units)
	assert.Equal(t, 5, cfg.Sim.Levels)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "sim = 1")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidSim(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
sim:
  units: -1
  levels: 10
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
sim:
  units: 2
  levels: 8
`)
	t.Setenv("K_SIM__LEVELS", "16")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Sim.Levels)
}
