package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "wifistat"
	configFile = "config.yaml"
	dataDir    = "data"
)

// Mutex for file writes
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/wifistat or $HOME/.config/wifistat
//   - macOS: $HOME/.config/wifistat (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\wifistat
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// StorageDir resolves the directory backing the device's persistent storage.
func (c *Config) StorageDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, dataDir), nil
}

// Load reads the configuration file at path. An empty path means the default
// location. A missing file yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the state machine depends on.
func (c *Config) Validate() error {
	t := c.Timing
	switch {
	case t.Debounce <= 0:
		return fmt.Errorf("timing.debounce must be positive")
	case t.LongPress <= t.Debounce:
		return fmt.Errorf("timing.long_press (%s) must exceed timing.debounce (%s)", t.LongPress, t.Debounce)
	case t.IdleTimeout <= 0:
		return fmt.Errorf("timing.idle_timeout must be positive")
	case t.PingPeriod <= 0 || t.PingTimeout <= 0:
		return fmt.Errorf("timing.ping_period and timing.ping_timeout must be positive")
	case t.JoinAttempts < 1:
		return fmt.Errorf("timing.join_attempts must be at least 1")
	case t.JoinInterval < 0 || t.PollInterval <= 0:
		return fmt.Errorf("timing.join_interval and timing.poll_interval are invalid")
	}

	if c.AccessPoint.SSID == "" {
		return fmt.Errorf("access_point.ssid cannot be empty")
	}
	if n := len(c.AccessPoint.Secret); n != 0 && (n < 8 || n > 63) {
		return fmt.Errorf("access_point.secret must be 8-63 characters, got %d", n)
	}
	for name, v := range map[string]string{
		"access_point.address": c.AccessPoint.Address,
		"access_point.gateway": c.AccessPoint.Gateway,
		"access_point.subnet":  c.AccessPoint.Subnet,
	} {
		if _, err := netip.ParseAddr(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	switch c.Storage.Codec {
	case "json", "yaml":
	default:
		return fmt.Errorf("storage.codec must be json or yaml, got %q", c.Storage.Codec)
	}
	return nil
}

// Save writes the configuration to path. An empty path means the default
// location. Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# wifistat device configuration
#
# Network credentials are NOT stored here. They live in the device's
# persistent storage and are entered through the setup portal.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
