package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 2, cfg.Scanner.MaxSessionHours)
	assert.Equal(t, 8, cfg.Scanner.MaxDailyHours)
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 8181
cors_allowed_origins = ["http://localhost:5173"]

[logging]
level = "debug"
format = "json"

[storage]
sqlite_path = "/tmp/lplate-test.db"

[openai]
api_key = "sk-from-file"
model = "gpt-4o-mini"
timeout_seconds = 60

[scanner]
max_session_hours = 3
min_session_minutes = 10
earliest_plausible_date = "2015-01-01"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/lplate-test.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "sk-from-file", cfg.OpenAI.APIKey)
	assert.Equal(t, 60, cfg.OpenAI.TimeoutSeconds)
	assert.Equal(t, 3, cfg.Scanner.MaxSessionHours)
	assert.Equal(t, "2015-01-01", cfg.Scanner.EarliestPlausibleDate)
	// Unset scanner keys still fall back to defaults.
	assert.Equal(t, 8, cfg.Scanner.MaxDailyHours)
}

func TestLoadEnvOverridesFileKey(t *testing.T) {
	path := writeConfig(t, `
[openai]
api_key = "sk-from-file"
`)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.OpenAI.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "[server]\nport = 99999\n"},
		{"empty sqlite path", "[storage]\nsqlite_path = \"\"\n"},
		{"zero session minutes", "[scanner]\nmin_session_minutes = -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestRedactedMasksAPIKey(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.APIKey = "sk-secret"

	out := cfg.Redacted()
	assert.Equal(t, "***", out.OpenAI.APIKey)
	assert.Equal(t, "sk-secret", cfg.OpenAI.APIKey, "the original is untouched")
}

func TestRedactedEmptyKeyStaysEmpty(t *testing.T) {
	out := Default().Redacted()
	assert.Empty(t, out.OpenAI.APIKey)
}
