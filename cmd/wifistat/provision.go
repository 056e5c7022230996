package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/discovery"
	"github.com/muurk/wifistat/internal/provision"
	"github.com/muurk/wifistat/internal/ui"
	"github.com/muurk/wifistat/internal/wizard/tui"
)

// Provisioning command flags
var (
	portalHost    string
	portalPort    int
	discoverFirst bool
	scanTimeout   time.Duration
	provNetwork   string
	provSecret    string
	provRetries   int
	provInstance  string
	provTimeout   time.Duration
)

func init() {
	provisionCmd.Flags().StringVar(&portalHost, "device", "", "Portal address (default "+provision.DefaultAddress+", or discovered)")
	provisionCmd.Flags().IntVar(&portalPort, "port", provision.DefaultPort, "Portal HTTP port")
	provisionCmd.Flags().BoolVar(&discoverFirst, "discover", false, "Find the portal over mDNS instead of using --device")
	provisionCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "mDNS scan timeout")
	provisionCmd.Flags().StringVar(&provNetwork, "network", "", "Network name to send")
	provisionCmd.Flags().StringVar(&provSecret, "secret", "", "Network secret to send")
	provisionCmd.Flags().IntVar(&provRetries, "retries", provision.DefaultMaxRetries, "Retries for transient failures")
	provisionCmd.Flags().StringVar(&provInstance, "instance", "", "With --discover, wait for this mDNS instance (e.g. wifistat-setup)")
	provisionCmd.Flags().DurationVar(&provTimeout, "request-timeout", provision.DefaultTimeout, "HTTP request timeout")

	discoverCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "mDNS scan timeout")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List setup portals advertised on the local network",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Browsing for setup portals (timeout: %s)...\n\n", scanTimeout)

		s := discovery.NewScanner()
		s.Timeout = scanTimeout
		portals, err := s.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(portals) == 0 {
			fmt.Fprintln(out, ui.RenderWarning("No setup portals found", map[string]string{
				"Hint": "Join the device's setup network, or pass --timeout",
			}))
			return nil
		}

		fmt.Fprintf(out, "Found %d portal(s):\n\n", len(portals))
		for i, p := range portals {
			fmt.Fprintf(out, "%d. %s\n", i+1, p.Instance)
			fmt.Fprintf(out, "   Address:  %s\n", net.JoinHostPort(p.IP, strconv.Itoa(p.Port)))
			fmt.Fprintf(out, "   Firmware: %s\n\n", p.Version())
		}
		fmt.Fprintln(out, "Use 'wifistat provision --device <ip>' to send credentials")
		return nil
	},
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Send network credentials to a device in setup mode",
	Long: `Send network credentials to a device's setup portal.

Without --network and --secret the interactive wizard starts, discovering
portals and prompting for the credentials. With both flags the credentials
are sent directly to --device (or the portal found with --discover).`,
	Example: `  # Interactive wizard
  wifistat provision

  # Direct, to the default access point address
  wifistat provision --network HomeNetwork --secret hunter22

  # Direct, discovering the portal first
  wifistat provision --discover --network HomeNetwork --secret hunter22

  # Direct, waiting for a named portal
  wifistat provision --discover --instance wifistat-setup --network HomeNetwork --secret hunter22`,
	RunE: runProvision,
}

func runProvision(cmd *cobra.Command, args []string) error {
	if provNetwork == "" && provSecret == "" {
		return runWizard(cmd)
	}

	baseURL, err := resolvePortal(cmd.Context())
	if err != nil {
		return err
	}

	creds := credentials.Credentials{NetworkName: provNetwork, Secret: provSecret}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.NewHeader("Provision", "wifistat provision", map[string]string{
		"Portal":  baseURL,
		"Network": creds.NetworkName,
	}))

	client := provision.NewClientWithURL(baseURL)
	client.SetRetry(provRetries, provision.DefaultRetryDelay)
	client.SetTimeout(provTimeout)

	reply, err := client.Provision(cmd.Context(), creds)
	if err != nil {
		fmt.Fprintln(out, ui.RenderFailure("Provisioning failed", fmt.Errorf("%s", provision.ShortMessage(err)), provision.Troubleshooting(err)))
		return err
	}

	fmt.Fprintln(out, ui.RenderSuccess("Credentials saved", map[string]string{
		"Portal":  baseURL,
		"Network": creds.NetworkName,
		"Reply":   reply,
	}))
	return nil
}

// resolvePortal picks the portal URL from --device or discovery.
func resolvePortal(ctx context.Context) (string, error) {
	if !discoverFirst {
		host := portalHost
		if host == "" {
			host = provision.DefaultAddress
		}
		return "http://" + net.JoinHostPort(host, strconv.Itoa(portalPort)), nil
	}

	s := discovery.NewScanner()
	s.Timeout = scanTimeout
	if provInstance != "" {
		p, err := s.WaitFor(ctx, provInstance)
		if err != nil {
			return "", err
		}
		return p.BaseURL(), nil
	}

	portals, err := s.Scan(ctx)
	if err != nil {
		return "", fmt.Errorf("scan failed: %w", err)
	}
	switch len(portals) {
	case 0:
		return "", fmt.Errorf("no setup portal found within %s", scanTimeout)
	case 1:
		return portals[0].BaseURL(), nil
	default:
		return "", fmt.Errorf("%d setup portals found; pick one with --device", len(portals))
	}
}

func runWizard(cmd *cobra.Command) error {
	var baseURL string
	if portalHost != "" {
		baseURL = "http://" + net.JoinHostPort(portalHost, strconv.Itoa(portalPort))
	}
	model := tui.NewAppModel(tui.DefaultServices(), baseURL)
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
