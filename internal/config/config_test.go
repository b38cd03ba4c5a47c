package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
game:
  spawn_phase_turns: 50
  win_threshold_percent: 70
  alliance:
    duration_ticks: 1200
  units:
    city:
      cost: 1000
      construction_ticks: 3
map:
  width: 64
  height: 48
  seed: 7
server:
  port: 8080
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	// Reset global state
	cfg = nil
	v = nil

	err = Init(configFile)
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 50, c.Game.SpawnPhaseTurns)
	assert.Equal(t, 70, c.Game.WinThresholdPercent)
	assert.Equal(t, 1200, c.Game.Alliance.DurationTicks)
	assert.Equal(t, 1000, c.Game.Units.City.Cost)
	assert.Equal(t, 3, c.Game.Units.City.ConstructionTicks)
	assert.Equal(t, 64, c.Map.Width)
	assert.Equal(t, int64(7), c.Map.Seed)
	assert.Equal(t, 8080, c.Server.Port)

	// Unset keys keep their defaults
	assert.Equal(t, 10, c.Game.WinCheckInterval)
	assert.Equal(t, 256, c.Runtime.InboxCapacity)
	assert.Equal(t, ConfigFilePath(), configFile)
}

func TestInitWithDefaults(t *testing.T) {
	cfg = nil
	v = nil

	err := Init("/non/existent/path/config.yaml")
	require.NoError(t, err)

	c := Get()
	require.NotNil(t, c)
	assert.Equal(t, DefaultGameConfig(), c.Game)
	assert.Equal(t, 100, c.Game.SpawnPhaseTurns)
	assert.Equal(t, 80, c.Game.WinThresholdPercent)
}

func TestEnvironmentVariables(t *testing.T) {
	cfg = nil
	v = nil

	t.Setenv("FRONTSIM_GAME_SPAWN_PHASE_TURNS", "30")
	t.Setenv("FRONTSIM_SERVER_PORT", "9090")

	err := Init("/non/existent/path/config.yaml")
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 30, c.Game.SpawnPhaseTurns)
	assert.Equal(t, 9090, c.Server.Port)
}

func TestSet(t *testing.T) {
	cfg = nil
	v = nil
	require.NoError(t, Init("/non/existent/path/config.yaml"))

	Set("game.num_bots", 3)
	assert.Equal(t, 3, Get().Game.NumBots)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero win threshold", func(c *Config) { c.Game.WinThresholdPercent = 0 }, true},
		{"threshold above 100", func(c *Config) { c.Game.WinThresholdPercent = 101 }, true},
		{"zero win interval", func(c *Config) { c.Game.WinCheckInterval = 0 }, true},
		{"negative spawn phase", func(c *Config) { c.Game.SpawnPhaseTurns = -1 }, true},
		{"min tiles above max", func(c *Config) { c.Game.Attack.MinTilesPerTick = 100 }, true},
		{"map too wide", func(c *Config) { c.Map.Width = 1 << 17 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"archive without path", func(c *Config) { c.Archive.Enabled = true; c.Archive.Path = "" }, true},
		{"zero inbox", func(c *Config) { c.Runtime.InboxCapacity = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUnitsConfig_Spec(t *testing.T) {
	units := DefaultGameConfig().Units

	spec, ok := units.Spec("City")
	require.True(t, ok)
	assert.Equal(t, units.City, spec)

	_, ok = units.Spec("Shell")
	assert.False(t, ok)
}
