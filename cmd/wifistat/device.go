package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/muurk/wifistat/internal/config"
	"github.com/muurk/wifistat/internal/device"
	"github.com/muurk/wifistat/internal/display"
	"github.com/muurk/wifistat/internal/logging"
	"github.com/muurk/wifistat/internal/panel"
	"github.com/muurk/wifistat/internal/radio"
	"github.com/muurk/wifistat/internal/sim"
	"github.com/muurk/wifistat/internal/storage"
)

// Device command flags
var (
	portalListen string
	panelListen  string
	advertise    bool
)

func init() {
	for _, c := range []*cobra.Command{runCmd, simCmd} {
		c.Flags().StringVar(&portalListen, "portal", "", "Setup portal listen address (overrides portal.listen)")
		c.Flags().StringVar(&panelListen, "panel", "", "Websocket panel listen address (overrides panel.listen)")
		c.Flags().BoolVar(&advertise, "mdns", false, "Advertise the setup portal over mDNS")
	}
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the device headless",
	Long: `Run the device state machine with frames printed to stdout.

The button is driven from the websocket panel; start it with --panel and
open the address in a browser. The process exits when the device goes to
sleep or on interrupt.`,
	Example: `  # Boot with the portal on port 8080 and the panel on 8081
  wifistat run --portal 127.0.0.1:8080 --panel 127.0.0.1:8081`,
	RunE: runDevice,
}

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the device in a full-screen simulator",
	Long: `Run the device state machine in a terminal simulator.

The display is drawn as a panel and the keyboard drives the button:
space presses and releases, s gives a short press, l a long press.
Logs go to --log-file so they do not disturb the screen.`,
	RunE: runSim,
}

// applyDeviceFlags overlays the command-line overrides.
func applyDeviceFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("portal") {
		cfg.Portal.Listen = portalListen
	}
	if cmd.Flags().Changed("panel") {
		cfg.Panel.Listen = panelListen
	}
	if cmd.Flags().Changed("mdns") {
		cfg.Portal.MDNS = advertise
	}
}

// deviceRig is a controller with its host drivers.
type deviceRig struct {
	ctrl  *device.Controller
	panel *panel.Panel
}

// newDeviceRig builds the controller on directory storage and the simulated
// radio. main is the primary display; the panel mirrors it when enabled.
func newDeviceRig(cfg *config.Config, main display.Display) (*deviceRig, error) {
	dir, err := cfg.StorageDir()
	if err != nil {
		return nil, err
	}

	rig := &deviceRig{}
	disp := main
	if cfg.Panel.Listen != "" {
		rig.panel = panel.New(panel.EdgeFunc(func(level bool) {
			rig.ctrl.Button().HandleEdge(level)
		}), cfg.Button.ActiveLow)
		disp = display.Multi{main, rig.panel}
	}

	clk := clock.RealClock{}
	rig.ctrl, err = device.New(cfg, device.Drivers{
		Clock:   clk,
		Display: disp,
		Storage: storage.NewDir(dir),
		Radio:   radio.NewSimulator(clk, cfg.Radio),
		Power: device.PowerFunc(func() error {
			logging.Info("Device halted")
			return nil
		}),
	})
	if err != nil {
		return nil, err
	}

	if rig.panel != nil {
		if err := rig.panel.Start(cfg.Panel.Listen); err != nil {
			return nil, err
		}
	}
	return rig, nil
}

func (r *deviceRig) close() {
	if r.panel == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.panel.Stop(ctx); err != nil {
		logging.Warn("Panel stop failed", zap.Error(err))
	}
}

func (r *deviceRig) panelURL() string {
	if r.panel == nil || r.panel.Addr() == "" {
		return ""
	}
	return "http://" + r.panel.Addr() + "/"
}

func runDevice(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDeviceFlags(cmd, cfg)

	rig, err := newDeviceRig(cfg, display.NewTerminal(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	defer rig.close()

	if url := rig.panelURL(); url != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Panel: %s\n", url)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = rig.ctrl.Run(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDeviceFlags(cmd, cfg)

	d := sim.NewDisplay()
	rig, err := newDeviceRig(cfg, d)
	if err != nil {
		return err
	}
	defer rig.close()

	return sim.Run(cmd.Context(), rig.ctrl, d, sim.Options{
		ActiveLow: cfg.Button.ActiveLow,
		Debounce:  cfg.Timing.Debounce,
		LongPress: cfg.Timing.LongPress,
		PanelURL:  rig.panelURL(),
	}, nil, nil)
}
