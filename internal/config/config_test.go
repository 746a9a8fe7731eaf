package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Game: GameConfig{
			TickRate:          20,
			MaxPlayersPerRoom: 32,
			InactivityTimeout: 15 * time.Minute,
			HeartbeatInterval: 30 * time.Second,
			CleanupDelay:      5 * time.Second,
		},
		Limits: LimitsConfig{
			ConnectionWindow: time.Minute,
			ConnectionMax:    30,
			MessageWindow:    10 * time.Second,
			MessageMax:       300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestInvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestInvalidTickRate(t *testing.T) {
	for _, rate := range []int{0, -1, 121} {
		cfg := validConfig()
		cfg.Game.TickRate = rate
		err := cfg.Validate()
		require.Error(t, err, "tick rate %d should be rejected", rate)
		assert.Contains(t, err.Error(), "game.tick_rate")
	}
}

func TestInvalidLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Limits.MessageMax = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limits.message_max")
}

func TestInvalidLogging(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = -1
	cfg.Game.MaxPlayersPerRoom = 0
	cfg.Limits.ConnectionMax = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "game.max_players_per_room")
	assert.Contains(t, err.Error(), "limits.connection_max")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
game:
  tick_rate: 10
  max_players_per_room: 8
  inactivity_timeout: 5m
  cleanup_delay: 2s
limits:
  message_max: 100
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Game.TickRate)
	assert.Equal(t, 8, cfg.Game.MaxPlayersPerRoom)
	assert.Equal(t, 5*time.Minute, cfg.Game.InactivityTimeout)
	assert.Equal(t, 2*time.Second, cfg.Game.CleanupDelay)
	assert.Equal(t, 100, cfg.Limits.MessageMax)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Game.TickRate)
	assert.Equal(t, 15*time.Minute, cfg.Game.InactivityTimeout)
	assert.Equal(t, 30*time.Second, cfg.Game.HeartbeatInterval)
	assert.Equal(t, 300, cfg.Limits.MessageMax)
	assert.Equal(t, 10*time.Second, cfg.Limits.MessageWindow)
	assert.Equal(t, 30, cfg.Limits.ConnectionMax)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
