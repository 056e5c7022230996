// Wifistat runs the connectivity monitor device on a host and provisions
// devices waiting in setup mode.
//
// The device side boots into setup mode when it has no stored network
// credentials, serving a portal on its access point. Once credentials are
// saved it joins the network and shows link status and reachability pages
// until it sleeps after a minute without button activity.
//
// Usage:
//
//	wifistat [command] [flags]
//
// See 'wifistat --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifistat/internal/config"
	"github.com/muurk/wifistat/internal/logging"
	"github.com/muurk/wifistat/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "wifistat",
	Short: "WiFi connectivity monitor and provisioning tool",
	Long: `Wifistat runs the connectivity monitor device and talks to devices
waiting in setup mode.

Device commands (run, sim) drive the state machine against a simulated
radio and directory-backed storage. Provisioning commands (discover,
provision) find setup portals on the local network and send them network
credentials.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logFile != "" {
			return logging.InitializeTo(logLevel, logFile)
		}
		return logging.Initialize(logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $"+logging.LogLevelEnvVar+", silent when unset)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wifistat %s\n", version.Full())
	},
}

// loadConfig reads --config, or the default location.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
