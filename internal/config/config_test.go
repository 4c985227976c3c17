package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "vrchat"), cfg.DataDir)
	assert.Equal(t, "file", cfg.Storage)
	assert.Equal(t, "https://api.vrchat.cloud/api/1", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2.0, cfg.API.Rate)
	assert.Equal(t, 4, cfg.API.Burst)
	assert.Equal(t, 120*time.Second, cfg.Session.ExpireTimeout)
	assert.Equal(t, 10*time.Second, cfg.Session.ProbeTTL)
	assert.True(t, cfg.Session.PruneStaleCookies)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "en", cfg.Locale)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vrchatbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/vrchatbot
storage: bbolt
api:
  rate: 0.5
  timeout: 3s
session:
  expire_timeout: 30s
  prune_stale_cookies: false
log:
  level: debug
  format: json
`), 0o600))

	cfg, err := Load(New(path))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/vrchatbot", cfg.DataDir)
	assert.Equal(t, "bbolt", cfg.Storage)
	assert.Equal(t, 0.5, cfg.API.Rate)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Session.ExpireTimeout)
	assert.False(t, cfg.Session.PruneStaleCookies)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VRCHATBOT_STORAGE", "memory")
	t.Setenv("VRCHATBOT_SERVER_ADDR", "127.0.0.1:9000")

	cfg, err := Load(New(""))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	v := New("")
	v.Set("storage", "postgres")
	v.Set("log.level", "loud")
	v.Set("alerts.webhook_url", "not a url")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Storage must be one of: file bbolt memory")
	assert.Contains(t, err.Error(), "Config.Log.Level")
	assert.Contains(t, err.Error(), "Config.Alerts.WebhookURL must be a valid URL")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vrchatbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unterminated"), 0o600))
	_, err := Load(New(path))
	assert.ErrorContains(t, err, "failed to read config file")
}
