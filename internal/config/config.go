package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	AppName     = "outfit-finder"
	EnvFileName = "config.env"
)

// Config holds everything the CLI needs to run a workflow.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	MaxAttempts    int
	PollInterval   time.Duration
	MaxImageSize   int64
	DBPath         string
	JobLogDir      string
	LogLevel       zerolog.Level
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment take precedence.
func LoadEnvFile() {
	_ = godotenv.Load(ConfigPath())
}

// ConfigPath returns the location of config.env.
// Uses $XDG_CONFIG_HOME/outfit-finder or the OS user config dir.
func ConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, EnvFileName)
	}
	configBase, err := os.UserConfigDir()
	if err != nil {
		return EnvFileName
	}
	return filepath.Join(configBase, AppName, EnvFileName)
}

// Load reads configuration from environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:         envString("OUTFIT_API_URL", "http://localhost:8080"),
		RequestTimeout: envDuration("OUTFIT_REQUEST_TIMEOUT", 30*time.Second),
		MaxAttempts:    envInt("OUTFIT_POLL_MAX_ATTEMPTS", 30),
		PollInterval:   envDuration("OUTFIT_POLL_INTERVAL", 2*time.Second),
		MaxImageSize:   int64(envInt("OUTFIT_MAX_IMAGE_SIZE", 10*1024*1024)),
		DBPath:         envStringAllowEmpty("OUTFIT_DB_PATH", "outfit-finder.db"),
		JobLogDir:      os.Getenv("OUTFIT_JOB_LOG_DIR"),
	}

	level, err := zerolog.ParseLevel(envString("OUTFIT_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("OUTFIT_LOG_LEVEL is invalid: %w", err)
	}
	cfg.LogLevel = level

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.APIURL = NormalizeBaseURL(cfg.APIURL)

	return cfg, nil
}

func (c *Config) validate() error {
	if err := ValidateAPIURL(c.APIURL); err != nil {
		return err
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("OUTFIT_POLL_MAX_ATTEMPTS must be positive, got %d", c.MaxAttempts)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("OUTFIT_POLL_INTERVAL must not be negative, got %s", c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("OUTFIT_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxImageSize <= 0 {
		return fmt.Errorf("OUTFIT_MAX_IMAGE_SIZE must be positive, got %d", c.MaxImageSize)
	}
	return nil
}

// NormalizeBaseURL makes sure the API base URL ends in /api.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if strings.HasSuffix(u, "/api") {
		return u
	}
	return u + "/api"
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envStringAllowEmpty distinguishes an unset variable from one set to "".
func envStringAllowEmpty(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
