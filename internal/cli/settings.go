package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Settings persist the daemon address and the bearer token issued at
// login.
type Settings struct {
	Server    string `yaml:"server"`
	Token     string `yaml:"token,omitempty"`
	ExpiresAt string `yaml:"expiresAt,omitempty"`
}

const (
	trackerFolderName = ".tracker"
	settingsFileName  = "cli.yaml"
	defaultServer     = "http://localhost:8080"
)

// getOrCreateTrackerFolder resolves the settings directory:
// TRACKER_CONFIG_DIR when set, otherwise ~/.tracker.
func getOrCreateTrackerFolder() (string, error) {
	configDir := os.Getenv("TRACKER_CONFIG_DIR")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, trackerFolderName)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", err
	}
	return configDir, nil
}

func loadSettings() (*Settings, error) {
	dir, err := getOrCreateTrackerFolder()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, settingsFileName))
	if os.IsNotExist(err) {
		return &Settings{Server: defaultServer}, nil
	}
	if err != nil {
		return nil, err
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("settings file is not valid YAML: %w", err)
	}
	if s.Server == "" {
		s.Server = defaultServer
	}
	return &s, nil
}

func saveSettings(s *Settings) error {
	dir, err := getOrCreateTrackerFolder()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	// The file holds a bearer token, keep it private.
	return os.WriteFile(filepath.Join(dir, settingsFileName), data, 0o600)
}
