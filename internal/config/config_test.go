package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"OUTFIT_API_URL",
	"OUTFIT_REQUEST_TIMEOUT",
	"OUTFIT_POLL_MAX_ATTEMPTS",
	"OUTFIT_POLL_INTERVAL",
	"OUTFIT_MAX_IMAGE_SIZE",
	"OUTFIT_DB_PATH",
	"OUTFIT_JOB_LOG_DIR",
	"OUTFIT_LOG_LEVEL",
}

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxImageSize)
	assert.Equal(t, "outfit-finder.db", cfg.DBPath)
	assert.Empty(t, cfg.JobLogDir)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTFIT_API_URL", "https://outfits.example.com/api/")
	t.Setenv("OUTFIT_REQUEST_TIMEOUT", "5s")
	t.Setenv("OUTFIT_POLL_MAX_ATTEMPTS", "10")
	t.Setenv("OUTFIT_POLL_INTERVAL", "500ms")
	t.Setenv("OUTFIT_MAX_IMAGE_SIZE", "1024")
	t.Setenv("OUTFIT_DB_PATH", "/tmp/jobs.db")
	t.Setenv("OUTFIT_JOB_LOG_DIR", "/tmp/logs")
	t.Setenv("OUTFIT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://outfits.example.com/api", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, int64(1024), cfg.MaxImageSize)
	assert.Equal(t, "/tmp/jobs.db", cfg.DBPath)
	assert.Equal(t, "/tmp/logs", cfg.JobLogDir)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoad_EmptyDBPathDisablesLedger(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTFIT_DB_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DBPath)
}

func TestLoad_ZeroIntervalAllowed(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTFIT_POLL_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.PollInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad scheme", "OUTFIT_API_URL", "ftp://example.com"},
		{"zero attempts", "OUTFIT_POLL_MAX_ATTEMPTS", "0"},
		{"negative attempts", "OUTFIT_POLL_MAX_ATTEMPTS", "-3"},
		{"negative interval", "OUTFIT_POLL_INTERVAL", "-1s"},
		{"zero timeout", "OUTFIT_REQUEST_TIMEOUT", "0s"},
		{"bad log level", "OUTFIT_LOG_LEVEL", "chatty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/api", NormalizeBaseURL("http://localhost:8080"))
	assert.Equal(t, "http://localhost:8080/api", NormalizeBaseURL("http://localhost:8080/"))
	assert.Equal(t, "http://localhost:8080/api", NormalizeBaseURL("http://localhost:8080/api"))
	assert.Equal(t, "http://localhost:8080/api", NormalizeBaseURL(" http://localhost:8080/api/ "))
}

func TestConfigPath_UsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, AppName, EnvFileName), ConfigPath())
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, AppName), 0755))
	require.NoError(t, os.WriteFile(ConfigPath(), []byte("OUTFIT_POLL_MAX_ATTEMPTS=7\nOUTFIT_LOG_LEVEL=warn\n"), 0600))
	// Already set variables take precedence over the file.
	t.Setenv("OUTFIT_LOG_LEVEL", "error")

	LoadEnvFile()
	t.Cleanup(func() { os.Unsetenv("OUTFIT_POLL_MAX_ATTEMPTS") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxAttempts)
	assert.Equal(t, zerolog.ErrorLevel, cfg.LogLevel)
}

func TestLoadEnvFile_MissingFileIsIgnored(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.NotPanics(t, LoadEnvFile)
}

func TestWriteEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := WriteEnvFile(map[string]string{
		"OUTFIT_POLL_INTERVAL": "1s",
		"OUTFIT_API_URL":       "https://outfits.example.com",
		"UNRELATED":            "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, ConfigPath(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "OUTFIT_API_URL=\"https://outfits.example.com\"\nOUTFIT_POLL_INTERVAL=\"1s\"\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	LoadEnvFile()
	t.Cleanup(func() {
		os.Unsetenv("OUTFIT_API_URL")
		os.Unsetenv("OUTFIT_POLL_INTERVAL")
	})
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://outfits.example.com/api", cfg.APIURL)
	assert.Equal(t, time.Second, cfg.PollInterval)
}

func TestValidateAPIURL(t *testing.T) {
	assert.NoError(t, ValidateAPIURL("http://localhost:8080"))
	assert.NoError(t, ValidateAPIURL(" https://example.com/api "))
	assert.Error(t, ValidateAPIURL("localhost:8080"))
	assert.Error(t, ValidateAPIURL(""))
}
