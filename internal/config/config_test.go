// ABOUTME: Tests for configuration loading
// ABOUTME: Covers YAML parsing, env expansion, durations, and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "/tmp/offscreen.db"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  token_ttl: "12h"
engine:
  timezone: "Europe/Madrid"
  overuse_threshold_seconds: 5400
  encourage_completed_count: 5
  dedupe_window: "2m"
logging:
  level: "debug"
  format: "json"
metrics:
  enabled: true
  path: "/metrics"
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/offscreen.db", cfg.Database.Path)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "Europe/Madrid", cfg.Engine.Timezone)
	assert.Equal(t, int64(5400), cfg.Engine.OveruseThresholdSeconds)
	assert.Equal(t, 5, cfg.Engine.EncourageCompletedCount)
	assert.Equal(t, 2*time.Minute, cfg.Engine.DedupeWindow)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "Europe/Madrid", cfg.Location().String())
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("OFFSCREEN_TEST_SECRET", "0123456789abcdef0123456789abcdef")
	path := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "/tmp/offscreen.db"
auth:
  jwt_secret: "${OFFSCREEN_TEST_SECRET}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Auth.JWTSecret)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "/tmp/offscreen.db"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Zero(t, cfg.Engine.DedupeWindow)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"missing http addr",
			`
database:
  path: "/tmp/offscreen.db"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
`,
		},
		{
			"missing database path",
			`
server:
  http_addr: "127.0.0.1:8080"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
`,
		},
		{
			"short jwt secret",
			`
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "/tmp/offscreen.db"
auth:
  jwt_secret: "short"
`,
		},
		{
			"bad timezone",
			`
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "/tmp/offscreen.db"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
engine:
  timezone: "Mars/Olympus"
`,
		},
		{
			"metrics enabled without path",
			`
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "/tmp/offscreen.db"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
metrics:
  enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "/tmp/offscreen.db"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
engine:
  dedupe_window: "soon"
`)

	_, err := Load(path)
	assert.Error(t, err)
}
