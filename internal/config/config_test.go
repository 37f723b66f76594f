package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NOTEBOOKLM_HOME", filepath.Join(t.TempDir(), "state"))
	t.Setenv("NOTEBOOKLM_BASE_URL", "")
	t.Setenv("NOTEBOOKLM_BL", "")
	t.Setenv("NOTEBOOKLM_QUERY_TIMEOUT", "")
	t.Setenv("NOTEBOOKLM_DEBUG", "")
	t.Setenv("DEBUG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://notebooklm.google.com", cfg.BaseURL)
	require.Equal(t, defaultBuildLabel, cfg.BuildLabel)
	require.Equal(t, 120*time.Second, cfg.QueryTimeout)
	require.False(t, cfg.Debug)
	require.DirExists(t, cfg.Home)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NOTEBOOKLM_HOME", t.TempDir())
	t.Setenv("NOTEBOOKLM_BASE_URL", "http://localhost:8080")
	t.Setenv("NOTEBOOKLM_BL", "boq_custom_label")
	t.Setenv("NOTEBOOKLM_QUERY_TIMEOUT", "45")
	t.Setenv("NOTEBOOKLM_DEBUG", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.Equal(t, "boq_custom_label", cfg.BuildLabel)
	require.Equal(t, 45*time.Second, cfg.QueryTimeout)
	require.True(t, cfg.Debug)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("NOTEBOOKLM_HOME", t.TempDir())
	t.Setenv("NOTEBOOKLM_QUERY_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "NOTEBOOKLM_QUERY_TIMEOUT")
}
