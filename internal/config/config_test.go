package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "wifistat") {
		t.Errorf("GetConfigDir() = %v, should contain 'wifistat'", configDir)
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Timing.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", cfg.Timing.Debounce)
	}
	if cfg.Timing.LongPress != 3*time.Second {
		t.Errorf("LongPress = %v, want 3s", cfg.Timing.LongPress)
	}
	if cfg.Timing.IdleTimeout != time.Minute {
		t.Errorf("IdleTimeout = %v, want 1m", cfg.Timing.IdleTimeout)
	}
	if cfg.Timing.JoinAttempts != 20 || cfg.Timing.JoinInterval != time.Second {
		t.Errorf("join budget = %d x %v, want 20 x 1s", cfg.Timing.JoinAttempts, cfg.Timing.JoinInterval)
	}
	if cfg.Timing.PingPeriod != 5*time.Second {
		t.Errorf("PingPeriod = %v, want 5s", cfg.Timing.PingPeriod)
	}
	if !cfg.Button.ActiveLow {
		t.Error("button should default to active-low")
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	data := []byte(`
version: 1
timing:
  idle_timeout: 2m
  join_attempts: 5
access_point:
  ssid: lab-setup
radio:
  networks:
    - ssid: home
      secret: hunter22
      rssi: -61
      channel: 6
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Timing.IdleTimeout != 2*time.Minute {
		t.Errorf("IdleTimeout = %v, want 2m", cfg.Timing.IdleTimeout)
	}
	if cfg.Timing.JoinAttempts != 5 {
		t.Errorf("JoinAttempts = %d, want 5", cfg.Timing.JoinAttempts)
	}
	// Untouched values keep their defaults.
	if cfg.Timing.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want default 500ms", cfg.Timing.Debounce)
	}
	if cfg.AccessPoint.SSID != "lab-setup" || cfg.AccessPoint.Address != "192.168.4.1" {
		t.Errorf("AccessPoint = %+v", cfg.AccessPoint)
	}

	n := cfg.Radio.FindNetwork("home")
	if n == nil {
		t.Fatal("FindNetwork(home) = nil")
	}
	if n.RSSI != -61 || n.Channel != 6 {
		t.Errorf("network = %+v", n)
	}
	if cfg.Radio.FindNetwork("absent") != nil {
		t.Error("FindNetwork(absent) should be nil")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad version", "version: 2\n"},
		{"long press shorter than debounce", "timing:\n  long_press: 100ms\n"},
		{"zero join attempts", "timing:\n  join_attempts: 0\n"},
		{"empty ap ssid", "access_point:\n  ssid: \"\"\n"},
		{"short ap secret", "access_point:\n  secret: abc\n"},
		{"bad ap address", "access_point:\n  address: not-an-ip\n"},
		{"unknown codec", "storage:\n  codec: toml\n"},
		{"malformed yaml", "timing: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Errorf("Parse(%q) expected error", tt.data)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Timing.IdleTimeout = 90 * time.Second
	cfg.Portal.MDNS = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# wifistat device configuration") {
		t.Error("saved file should start with the header comment")
	}
	if !strings.Contains(string(data), "idle_timeout: 1m30s") {
		t.Errorf("durations should be written as strings, got:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Timing.IdleTimeout != 90*time.Second || !loaded.Portal.MDNS {
		t.Errorf("Load() = %+v", loaded)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AccessPoint.SSID != Default().AccessPoint.SSID {
		t.Errorf("SSID = %q, want default", cfg.AccessPoint.SSID)
	}
}

func TestStorageDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = "/var/lib/wifistat"
	dir, err := cfg.StorageDir()
	if err != nil || dir != "/var/lib/wifistat" {
		t.Errorf("StorageDir() = %q, %v", dir, err)
	}

	cfg.Storage.Dir = ""
	dir, err = cfg.StorageDir()
	if err != nil {
		t.Fatalf("StorageDir() error = %v", err)
	}
	if filepath.Base(dir) != "data" {
		t.Errorf("StorageDir() = %q, want .../data", dir)
	}
}
