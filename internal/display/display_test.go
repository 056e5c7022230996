package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/muurk/wifistat/internal/diagnostics"
	"github.com/muurk/wifistat/internal/network"
	"github.com/muurk/wifistat/internal/radio"
)

func TestGrid_PrintWrapsAndClips(t *testing.T) {
	var g Grid
	g.Clear()
	g.Print("abcdefghijklmnopqrstuvwxyz\nline")

	lines := g.Lines()
	if lines[0] != "abcdefghijklmnopqrstu" {
		t.Errorf("row 0 = %q", lines[0])
	}
	if lines[1] != "vwxyz" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "line" {
		t.Errorf("row 2 = %q", lines[2])
	}

	g.Clear()
	g.Print(strings.Repeat("x\n", Rows+3))
	if got := g.Lines(); got[Rows-1] != "x" || len(got) != Rows {
		t.Errorf("clipped lines = %q", got)
	}
}

func TestGrid_SetCursor(t *testing.T) {
	var g Grid
	g.Clear()
	g.SetCursor(3, 2)
	g.Print("hi")
	g.SetCursor(-5, 99)
	g.Print("end")

	lines := g.Lines()
	if lines[2] != "   hi" {
		t.Errorf("row 2 = %q", lines[2])
	}
	if lines[Rows-1] != "end" {
		t.Errorf("last row = %q", lines[Rows-1])
	}
}

func TestPresenter_ShowAndDedup(t *testing.T) {
	mem := NewMemory()
	p := NewPresenter(mem)

	if err := p.Show(SplashPage()); err != nil {
		t.Fatal(err)
	}
	if err := p.Show(SplashPage()); err != nil {
		t.Fatal(err)
	}
	if n := len(mem.Frames()); n != 1 {
		t.Errorf("frames = %d, want 1 (identical page not redrawn)", n)
	}
	if got := mem.Last().Text(); got != "\n\n   Initializing..." {
		t.Errorf("splash = %q", got)
	}

	_ = p.Show(ConnectedPage("X"))
	if got := p.Current(); got != "WiFi Connected!\n X" {
		t.Errorf("Current() = %q", got)
	}
}

func TestPresenter_PowerOffThenShow(t *testing.T) {
	mem := NewMemory()
	p := NewPresenter(mem)

	_ = p.Show(SleepPage())
	if err := p.PowerOff(); err != nil {
		t.Fatal(err)
	}
	if !mem.IsOff() {
		t.Fatal("display not powered off")
	}
	_ = p.Show(SleepPage())
	if mem.IsOff() {
		t.Error("Show after PowerOff should light the panel again")
	}
}

func TestPresenter_FlushError(t *testing.T) {
	mem := NewMemory()
	mem.FailFlush = errors.New("i2c nack")
	p := NewPresenter(mem)

	if err := p.Show("x"); err == nil {
		t.Fatal("Show() error = nil, want flush failure")
	}
	if p.Current() != "" {
		t.Errorf("Current() = %q after failed flush", p.Current())
	}
}

func TestPages_FitThePanel(t *testing.T) {
	link := network.LinkInfo{
		Connected: true, SSID: "Home Network", RSSI: -61, Channel: 11,
		BSSID: "02:00:00:00:00:01", LocalAddr: "192.168.100.123", Gateway: "192.168.100.1",
	}
	now := time.Unix(1700000000, 0)
	gw := diagnostics.Sample{Target: "gateway", Addr: link.Gateway, RTT: 4 * time.Millisecond, OK: true, At: now}
	pub := diagnostics.Sample{Target: "public", Addr: "1.1.1.1", At: now}
	ap := radio.AccessPoint{SSID: "wifistat-setup", Secret: "configureme", Address: "192.168.4.1"}

	pages := map[string]string{
		"splash":       SplashPage(),
		"storage":      StorageErrorPage("unavailable"),
		"ap":           AccessPointPage(ap),
		"joining":      JoiningPage(link.SSID, 20, 20),
		"connected":    ConnectedPage(link.SSID),
		"join failed":  JoinFailedPage(link.SSID),
		"saved":        SavedPage(link.SSID),
		"save failed":  SaveFailedPage("storage I/O error"),
		"reset":        FactoryResetPage(),
		"erase failed": EraseFailedPage("storage I/O error"),
		"sleep":        SleepPage(),
		"status":       StatusPage(link, 0, 2),
		"health":       HealthPage(link, gw, pub, 1, 2),
		"status down":  StatusPage(network.LinkInfo{SSID: "X"}, 0, 2),
		"health empty": HealthPage(network.LinkInfo{}, diagnostics.Sample{}, diagnostics.Sample{}, 1, 2),
	}

	for name, text := range pages {
		lines := strings.Split(text, "\n")
		if len(lines) > Rows {
			t.Errorf("%s: %d lines, panel has %d", name, len(lines), Rows)
		}
		for _, l := range lines {
			if len(l) > Columns {
				t.Errorf("%s: line %q wider than %d", name, l, Columns)
			}
		}
	}
}

func TestHealthPage_Samples(t *testing.T) {
	now := time.Unix(1700000000, 0)
	link := network.LinkInfo{Connected: true, Channel: 6, Gateway: "10.0.0.1"}
	gw := diagnostics.Sample{Addr: "10.0.0.1", RTT: 12 * time.Millisecond, OK: true, At: now}
	pub := diagnostics.Sample{Addr: "1.1.1.1", At: now}

	text := HealthPage(link, gw, pub, 1, 2)
	for _, want := range []string{"Health", "2/2", "Channel 6", "ping 12 ms", "failed"} {
		if !strings.Contains(text, want) {
			t.Errorf("HealthPage() missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(HealthPage(link, diagnostics.Sample{}, diagnostics.Sample{}, 1, 2), "waiting") {
		t.Error("HealthPage() without samples should say waiting")
	}
}

func TestMulti(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	b.FailFlush = errors.New("gone")
	p := NewPresenter(Multi{a, b})

	if err := p.Show("hello"); err == nil {
		t.Error("Show() error = nil, want joined flush error")
	}
	if a.Last().Text() != "hello" {
		t.Errorf("first display = %q", a.Last().Text())
	}
}

func TestTerminal_RendersFrames(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(NewTerminal(&buf))

	_ = p.Show(ConnectedPage("X"))
	_ = p.PowerOff()

	out := buf.String()
	if !strings.Contains(out, "WiFi Connected!") {
		t.Errorf("output missing page text:\n%s", out)
	}
	if !strings.Contains(out, "(display off)") {
		t.Errorf("output missing power off frame:\n%s", out)
	}
}
