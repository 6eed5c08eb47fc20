package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.TopN)
	assert.Equal(t, 45, cfg.Retention)
	assert.Equal(t, 8*time.Second, cfg.FetchTimeout())
	assert.Len(t, cfg.Sources, 2)
	assert.True(t, cfg.Sources[0].Filtered)
	assert.False(t, cfg.Sources[1].Filtered)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsdesk.yaml")
	data := `
top_n: 10
retention: 50
fetch_timeout_sec: 3
sources:
  - label: only
    url: https://example.com/rss
    filtered: true
keywords: ["robotics"]
store:
  driver: postgres
  pg_host: db.internal
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, 50, cfg.Retention)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout())
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "only", cfg.Sources[0].Label)
	assert.Equal(t, []string{"robotics"}, cfg.Keywords)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "db.internal", cfg.Store.PGHost)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NEWS_UPDATE_KEY", "from-env")
	t.Setenv("POSTGRES_PORT", "5433")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TriggerSecret)
	assert.Equal(t, 5433, cfg.Store.PGPort)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: oracle\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: [not an int"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
