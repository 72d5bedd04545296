package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, "", cfg.API.AssetBaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Upload.PollInterval)
	assert.Equal(t, 60, cfg.Upload.PollMaxAttempts)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VG_API_BASE_URL", "https://gallery.example.com/")
	t.Setenv("VG_ASSET_BASE_URL", "cdn.example.com")
	t.Setenv("VG_POLL_INTERVAL", "250ms")
	t.Setenv("VG_POLL_MAX_ATTEMPTS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gallery.example.com", cfg.API.BaseURL)
	assert.Equal(t, "http://cdn.example.com", cfg.API.AssetBaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Upload.PollInterval)
	assert.Equal(t, 8, cfg.Upload.PollMaxAttempts)
}

func TestNormalizeOrigin(t *testing.T) {
	assert.Equal(t, "", normalizeOrigin(""))
	assert.Equal(t, "https://a.example.com", normalizeOrigin("https://a.example.com/"))
	assert.Equal(t, "http://bare-host:9000", normalizeOrigin("bare-host:9000"))
}
