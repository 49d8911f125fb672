package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LINEAR_API_KEY", "lin_api_test")
	t.Setenv("LINSYNC_CONFIG", "")
	t.Setenv("LINEAR_ENDPOINT", "")
	t.Setenv("LINSYNC_PACING", "")
	t.Setenv("LINSYNC_PAGE_SIZE", "")
	t.Setenv("REST_PORT", "")
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "lin_api_test", cfg.APIKey)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, 100*time.Millisecond, cfg.Pacing)
	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, "8080", cfg.RESTPort)
}

func TestLoad_MissingAPIKeyIsFatal(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LINEAR_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINEAR_API_KEY")
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LINEAR_ENDPOINT", "http://localhost:9999/graphql")
	t.Setenv("LINSYNC_PACING", "250ms")
	t.Setenv("LINSYNC_PAGE_SIZE", "50")
	t.Setenv("REST_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/graphql", cfg.Endpoint)
	assert.Equal(t, 250*time.Millisecond, cfg.Pacing)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, "9090", cfg.RESTPort)
}

func TestLoad_InvalidPacing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LINSYNC_PACING", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "linsync.yaml")
	yaml := "endpoint: http://yaml:1234/graphql\npacing_ms: 500\npage_size: 10\nrest_port: \"7070\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("LINSYNC_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://yaml:1234/graphql", cfg.Endpoint)
	assert.Equal(t, 500*time.Millisecond, cfg.Pacing)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "7070", cfg.RESTPort)
}

func TestLoad_EnvWinsOverYAML(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "linsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pacing_ms: 500\n"), 0o644))
	t.Setenv("LINSYNC_CONFIG", path)
	t.Setenv("LINSYNC_PACING", "50ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Pacing)
}

func TestLoad_ExplicitConfigFileMustExist(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LINSYNC_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
