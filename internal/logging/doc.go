// Package logging provides structured logging for the wifistat device core.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used throughout the device: state transitions, button events,
// portal requests and reachability probes.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (button events, probe results)
//   - Info: Normal operations (mode changes, join attempts, portal requests)
//   - Warn: Non-fatal issues (storage failures, failed saves)
//   - Error: Failures that end a boot session (join exhausted, sleep errors)
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("Join attempt",
//	    zap.String("ssid", creds.NetworkName),
//	    zap.Int("attempt", n),
//	)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// When no level is given and WIFISTAT_LOG_LEVEL is unset, logging is silent so
// the terminal display and the simulator TUI are not disturbed. Output goes to
// stderr.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically. Do not log from the button edge
// handler; it must stay allocation-free.
package logging
