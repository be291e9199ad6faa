package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "GOAP_CONFIG"

// GetConfigPath returns the configuration file path: $GOAP_CONFIG if set,
// otherwise ~/.goap/config.
func GetConfigPath() (string, error) {
	if configPath := os.Getenv(EnvConfigPath); configPath != "" {
		return configPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".goap", "config"), nil
}

// EnsureConfigDir ensures that the configuration directory exists.
func EnsureConfigDir() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return os.MkdirAll(filepath.Dir(configPath), 0755)
}
