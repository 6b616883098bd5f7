package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "LOG_FORMAT", "GRADING_MAX_DEPTH", "SITE_ID"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ModeOffline, c.Mode)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, 2, c.GradingMaxDepth)
	assert.Equal(t, "local", c.SiteID)
	assert.Equal(t, c.CORSOriginsOffline, c.CORSOrigins())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("GRADING_MAX_DEPTH", "4")
	t.Setenv("ENABLE_LOCAL_AUTH", "no")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")

	c := FromEnv()
	assert.Equal(t, ModeOnline, c.Mode)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, 4, c.GradingMaxDepth)
	assert.False(t, c.EnableLocalAuth)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins())
}

func TestEnvIntFallsBack(t *testing.T) {
	t.Setenv("GRADING_MAX_DEPTH", "deep")
	assert.Equal(t, 2, FromEnv().GradingMaxDepth)
	t.Setenv("GRADING_MAX_DEPTH", "-1")
	assert.Equal(t, 2, FromEnv().GradingMaxDepth)
}

func TestLoadDotEnv(t *testing.T) {
	// Setenv restores the original value; unset so the file can provide it.
	t.Setenv("SITE_ID", "")
	require.NoError(t, os.Unsetenv("SITE_ID"))
	t.Setenv("HTTP_ADDR", ":9999")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SITE_ID=lab-3\nHTTP_ADDR=:7000\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lab-3", c.SiteID)
	// the process environment wins
	assert.Equal(t, ":9999", c.HTTPAddr)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
