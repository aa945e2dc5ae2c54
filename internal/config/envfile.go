package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envFileOrder is the order keys are written in. Unknown keys are skipped.
var envFileOrder = []string{
	"OUTFIT_API_URL",
	"OUTFIT_REQUEST_TIMEOUT",
	"OUTFIT_POLL_MAX_ATTEMPTS",
	"OUTFIT_POLL_INTERVAL",
	"OUTFIT_MAX_IMAGE_SIZE",
	"OUTFIT_DB_PATH",
	"OUTFIT_JOB_LOG_DIR",
	"OUTFIT_LOG_LEVEL",
}

// WriteEnvFile writes values to ConfigPath, replacing any existing file.
// Returns the path where the config was written.
func WriteEnvFile(values map[string]string) (string, error) {
	configPath := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	// Quote values to handle special characters
	for _, key := range envFileOrder {
		if val, ok := values[key]; ok {
			if _, err := fmt.Fprintf(f, "%s=%q\n", key, val); err != nil {
				return "", fmt.Errorf("failed to write %s: %w", key, err)
			}
		}
	}

	return configPath, nil
}

// ValidateAPIURL checks that raw can be used as OUTFIT_API_URL.
func ValidateAPIURL(raw string) error {
	u := strings.TrimSpace(raw)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("OUTFIT_API_URL must start with http:// or https://, got %q", raw)
	}
	return nil
}
