// Package device composes the button, display, radio, portal, diagnostics
// and sleep timer into the boot sequence and main cycle of the device.
//
// Boot decides the operating mode once. Step is one non-blocking pass of the
// main cycle. Run loops over both and models a restart as tearing down the
// portal and radio and booting again.
package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/muurk/wifistat/internal/codec"
	"github.com/muurk/wifistat/internal/config"
	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/diagnostics"
	"github.com/muurk/wifistat/internal/display"
	"github.com/muurk/wifistat/internal/input"
	"github.com/muurk/wifistat/internal/logging"
	"github.com/muurk/wifistat/internal/network"
	"github.com/muurk/wifistat/internal/portal"
	"github.com/muurk/wifistat/internal/radio"
	"github.com/muurk/wifistat/internal/sleep"
	"github.com/muurk/wifistat/internal/storage"
	"go.uber.org/zap"
)

// TotalPages is the number of monitor pages a short press cycles through.
const TotalPages = 2

const (
	refreshInterval = 2 * time.Second
	teardownTimeout = 2 * time.Second
)

// Mode is the operating mode chosen at boot.
type Mode int

const (
	ModeBooting Mode = iota
	ModeAccessPointConfig
	ModeClientMonitor
)

func (m Mode) String() string {
	switch m {
	case ModeBooting:
		return "booting"
	case ModeAccessPointConfig:
		return "access_point_config"
	case ModeClientMonitor:
		return "client_monitor"
	default:
		return "unknown"
	}
}

// Result tells Run what to do after a step.
type Result int

const (
	Continue Result = iota
	Restart
	Sleep
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Restart:
		return "restart"
	case Sleep:
		return "sleep"
	default:
		return "unknown"
	}
}

// Power halts the device after the sleep sequence.
type Power interface {
	Halt() error
}

// PowerFunc adapts a function to Power.
type PowerFunc func() error

// Halt implements Power.
func (f PowerFunc) Halt() error { return f() }

// Drivers are the hardware collaborators.
type Drivers struct {
	Clock   clock.Clock
	Display display.Display
	Storage storage.Storage
	Radio   radio.Radio
	Prober  diagnostics.Prober
	Power   Power
}

// Controller is the device state machine. All of its methods run on one
// goroutine; producers reach it only through Button and the portal.
type Controller struct {
	cfg     *config.Config
	drv     Drivers
	clock   clock.Clock
	store   *credentials.Store
	screen  *display.Presenter
	button  *input.Controller
	latch   *input.Latch
	network *network.Manager

	mode        Mode
	page        int
	portal      *portal.Portal
	monitor     *diagnostics.Monitor
	idle        *sleep.Scheduler
	storageErr  error
	lastRefresh time.Time
	dirty       bool
	restarts    int
}

// New builds a controller from the configuration and drivers.
func New(cfg *config.Config, drv Drivers) (*Controller, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if drv.Clock == nil {
		drv.Clock = clock.RealClock{}
	}
	if drv.Display == nil || drv.Storage == nil || drv.Radio == nil {
		return nil, errors.New("device needs a display, storage and radio driver")
	}
	if drv.Prober == nil {
		drv.Prober = diagnostics.ICMPProber{Privileged: cfg.Diagnostics.Privileged}
	}
	if drv.Power == nil {
		drv.Power = PowerFunc(func() error { return nil })
	}
	cdc, err := codec.ByName(cfg.Storage.Codec)
	if err != nil {
		return nil, fmt.Errorf("storage codec: %w", err)
	}

	latch := &input.Latch{}
	store := credentials.NewStore(drv.Storage, cdc)
	c := &Controller{
		cfg:    cfg,
		drv:    drv,
		clock:  drv.Clock,
		store:  store,
		screen: display.NewPresenter(drv.Display),
		latch:  latch,
		button: input.NewController(drv.Clock, input.Config{
			Debounce:  cfg.Timing.Debounce,
			LongPress: cfg.Timing.LongPress,
			ActiveLow: cfg.Button.ActiveLow,
		}, latch),
		network: network.NewManager(drv.Clock, drv.Radio, store, network.Config{
			JoinAttempts: cfg.Timing.JoinAttempts,
			JoinInterval: cfg.Timing.JoinInterval,
		}),
	}
	return c, nil
}

// Button is the edge entry point for the button interrupt source.
func (c *Controller) Button() *input.Controller { return c.button }

// Mode returns the current operating mode.
func (c *Controller) Mode() Mode { return c.mode }

// Page returns the current monitor page.
func (c *Controller) Page() int { return c.page }

// Restarts counts in-process restarts since New.
func (c *Controller) Restarts() int { return c.restarts }

// Store returns the credential store.
func (c *Controller) Store() *credentials.Store { return c.store }

// Network returns the radio manager.
func (c *Controller) Network() *network.Manager { return c.network }

// Portal returns the running setup portal, or nil outside access point mode.
func (c *Controller) Portal() *portal.Portal { return c.portal }

func (c *Controller) setMode(m Mode) {
	if m == c.mode {
		return
	}
	logging.LogTransition("device", c.mode.String(), m.String())
	c.mode = m
}

func (c *Controller) show(text string) {
	if err := c.screen.Show(text); err != nil {
		logging.Warn("Display update failed", zap.Error(err))
	}
}

// Boot runs the boot sequence and returns Continue when a mode was entered
// or Restart when the join failed and the credentials were erased.
func (c *Controller) Boot(ctx context.Context) (Result, error) {
	c.setMode(ModeBooting)
	c.page = 0
	c.portal = nil
	c.monitor = nil
	c.storageErr = nil
	c.show(display.SplashPage())

	if err := c.drv.Storage.Mount(); err != nil {
		c.storageErr = err
		logging.Error("Storage mount failed", zap.Error(err))
		c.show(display.StorageErrorPage(err.Error()))
	}

	creds, err := c.store.Load()
	if err != nil {
		logging.Info("No usable credentials, entering setup",
			zap.String("reason", credentials.ShortMessage(err)),
		)
		if err := c.enterAccessPoint(); err != nil {
			return Continue, err
		}
		c.startIdleClock()
		return Continue, nil
	}

	err = c.network.JoinAsClient(ctx, creds, func(attempt, maxAttempts int) {
		c.show(display.JoiningPage(creds.NetworkName, attempt, maxAttempts))
	})
	switch {
	case errors.Is(err, network.ErrJoinExhausted):
		c.show(display.JoinFailedPage(creds.NetworkName))
		if err := c.network.ForgetCredentials(); err != nil {
			logging.Error("Failed to erase credentials after join failure", zap.Error(err))
			c.show(display.EraseFailedPage(credentials.ShortMessage(err)))
		}
		return Restart, nil
	case err != nil:
		return Continue, err
	}

	c.show(display.ConnectedPage(creds.NetworkName))
	c.monitor = diagnostics.NewMonitor(c.clock, c.drv.Prober, c.network, diagnostics.Config{
		Period:     c.cfg.Timing.PingPeriod,
		Timeout:    c.cfg.Timing.PingTimeout,
		PublicHost: c.cfg.Diagnostics.PublicHost,
	})
	c.lastRefresh = c.clock.Now()
	c.dirty = false
	c.setMode(ModeClientMonitor)
	c.startIdleClock()
	return Continue, nil
}

func (c *Controller) startIdleClock() {
	// Edges seen during boot are not activity for the new session.
	c.latch.Take()
	c.idle = sleep.NewScheduler(c.clock, c.cfg.Timing.IdleTimeout, c.latch)
	logging.Debug("Idle clock started", zap.Time("deadline", c.idle.Deadline()))
}

func (c *Controller) accessPoint() radio.AccessPoint {
	ap := c.cfg.AccessPoint
	return radio.AccessPoint{
		SSID:    ap.SSID,
		Secret:  ap.Secret,
		Address: ap.Address,
		Gateway: ap.Gateway,
		Subnet:  ap.Subnet,
	}
}

func (c *Controller) enterAccessPoint() error {
	ap := c.accessPoint()
	if err := c.network.StartAccessPoint(ap); err != nil {
		logging.Error("Access point failed to start", zap.Error(err))
	}

	c.portal = portal.New(c.store, c.latch)
	if addr := c.cfg.Portal.Listen; addr != "" {
		if err := c.portal.Start(addr); err != nil {
			return err
		}
		if c.cfg.Portal.MDNS {
			if err := c.portal.Advertise(portal.InstanceName(ap.SSID)); err != nil {
				logging.Warn("Portal advertisement failed", zap.Error(err))
			}
		}
	}

	page := display.AccessPointPage(ap)
	if c.storageErr != nil {
		page += "\nStorage error"
	}
	c.show(page)
	c.setMode(ModeAccessPointConfig)
	return nil
}

// Step runs one pass of the main cycle.
func (c *Controller) Step(ctx context.Context) Result {
	for _, ev := range c.button.Poll() {
		if res := c.handleButton(ev); res != Continue {
			return res
		}
	}

	if c.portal != nil {
		if out, ok := c.portal.Service(); ok {
			if out.Err != nil {
				c.show(display.SaveFailedPage(credentials.ShortMessage(out.Err)))
			} else {
				c.show(display.SavedPage(out.Credentials.NetworkName))
			}
			return Restart
		}
	}

	if c.mode == ModeClientMonitor {
		if c.monitor.Tick(ctx) {
			c.dirty = true
		}
		if c.dirty || c.clock.Since(c.lastRefresh) >= refreshInterval {
			c.refresh()
		}
	}

	if c.idle != nil && c.idle.Check() {
		return Sleep
	}
	return Continue
}

func (c *Controller) handleButton(ev input.Event) Result {
	if c.mode != ModeClientMonitor {
		// Only one page in setup mode; the edge already counted as activity.
		return Continue
	}
	switch ev.Kind {
	case input.ShortPress:
		c.page = (c.page + 1) % TotalPages
		c.dirty = true
		logging.Debug("Page changed", zap.Int("page", c.page))
	case input.LongPress:
		logging.Info("Factory reset requested", zap.Duration("held", ev.Held))
		c.show(display.FactoryResetPage())
		if err := c.store.Erase(); err != nil {
			logging.Error("Factory reset erase failed", zap.Error(err))
			c.show(display.EraseFailedPage(credentials.ShortMessage(err)))
		}
		return Restart
	}
	return Continue
}

func (c *Controller) refresh() {
	link := c.network.Link()
	switch c.page {
	case 0:
		c.show(display.StatusPage(link, c.page, TotalPages))
	case 1:
		gw, pub := c.monitor.Samples()
		c.show(display.HealthPage(link, gw, pub, c.page, TotalPages))
	}
	c.lastRefresh = c.clock.Now()
	c.dirty = false
}

// teardown stops the portal and the radio before a restart or sleep.
func (c *Controller) teardown() {
	if c.portal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		if err := c.portal.Stop(ctx); err != nil {
			logging.Warn("Portal stop failed", zap.Error(err))
		}
		cancel()
		c.portal = nil
	}
	if err := c.network.Shutdown(); err != nil {
		logging.Warn("Radio shutdown failed", zap.Error(err))
	}
}

// GoToSleep runs the sleep sequence and halts.
func (c *Controller) GoToSleep() error {
	c.show(display.SleepPage())
	if err := c.screen.PowerOff(); err != nil {
		logging.Warn("Display power off failed", zap.Error(err))
	}
	c.teardown()
	logging.Info("Halting")
	return c.drv.Power.Halt()
}

// Run boots the device and runs the main cycle until it sleeps or ctx is
// done. Restarts boot again in-process.
func (c *Controller) Run(ctx context.Context) error {
	for {
		res, err := c.Boot(ctx)
		if err != nil {
			c.teardown()
			return err
		}

		for res == Continue {
			if err := ctx.Err(); err != nil {
				c.teardown()
				return err
			}
			res = c.Step(ctx)
			if res == Continue {
				c.clock.Sleep(c.cfg.Timing.PollInterval)
			}
		}

		switch res {
		case Restart:
			c.teardown()
			c.restarts++
			logging.Info("Restarting", zap.Int("restarts", c.restarts))
		case Sleep:
			return c.GoToSleep()
		}
	}
}
