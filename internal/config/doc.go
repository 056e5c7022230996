// Package config provides the device configuration for wifistat.
//
// This package manages a YAML file holding every tunable of the device state
// machine: button timing, the sleep timeout, the join budget, the fallback
// access point identity, the diagnostics targets, and the host-side listeners
// (setup portal, websocket panel, simulated radio networks).
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/wifistat/config.yaml or $HOME/.config/wifistat/config.yaml
//   - macOS: $HOME/.config/wifistat/config.yaml
//   - Windows: %LOCALAPPDATA%\wifistat\config.yaml
//
// # Security
//
// Network credentials are never written to this file. They are owned by the
// credential store on the device's persistent storage.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	cfg.Timing.IdleTimeout = 2 * time.Minute
//	if err := cfg.Save(""); err != nil {
//	    return err
//	}
//
// Durations are written as Go duration strings ("500ms", "1m0s").
package config
