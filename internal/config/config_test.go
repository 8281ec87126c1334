package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "letters2024", cfg.Leaderboard.Ruleset)
	assert.Equal(t, 10*time.Minute, cfg.Dataset.RefreshInterval.Std())
	assert.Equal(t, 120, cfg.RateLimit.IPLimitPerMin)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
logger:
  level: debug
dataset:
  submissions_path: /var/lib/scoreboard/submissions.json
  handles_path: /var/lib/scoreboard/handles.json
  refresh_interval: 30m
leaderboard:
  ruleset: rating2023
  cache_ttl: 90s
redis:
  addr: localhost:6379
  db: 2
rate_limit:
  ip_limit_per_min: 30
cors:
  allowed_origins:
    - https://scoreboard.example.org
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "rating2023", cfg.Leaderboard.Ruleset)
	assert.Equal(t, 30*time.Minute, cfg.Dataset.RefreshInterval.Std())
	assert.Equal(t, 90*time.Second, cfg.Leaderboard.CacheTTL.Std())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30, cfg.RateLimit.IPLimitPerMin)
	assert.Equal(t, []string{"https://scoreboard.example.org"}, cfg.CORS.AllowedOrigins)

	// Fields the file omits keep their defaults.
	assert.Equal(t, 2, cfg.RateLimit.RefreshLimitPerMin)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCOREBOARD_LISTEN", ":7070")
	t.Setenv("SCOREBOARD_RULESET", "rating2022")
	t.Setenv("SCOREBOARD_REDIS_DB", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, "rating2022", cfg.Leaderboard.Ruleset)
	assert.Equal(t, 5, cfg.Redis.DB)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("leaderboard:\n  cache_ttl: soon\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
