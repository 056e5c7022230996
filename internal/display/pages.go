package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/muurk/wifistat/internal/diagnostics"
	"github.com/muurk/wifistat/internal/network"
	"github.com/muurk/wifistat/internal/radio"
)

// Page texts. Each line fits the Columns wide panel.

// SplashPage is shown while the device boots.
func SplashPage() string {
	return "\n\n   Initializing..."
}

// StorageErrorPage reports that the credential storage could not be
// mounted.
func StorageErrorPage(reason string) string {
	return "Storage error\n" + reason
}

// AccessPointPage tells the user how to reach the setup portal.
func AccessPointPage(ap radio.AccessPoint) string {
	return fmt.Sprintf("Setup mode\nSSID:\n %s\nPass:\n %s\nOpen in browser:\n http://%s/",
		ap.SSID, ap.Secret, ap.Address)
}

// JoiningPage shows the join attempt counter.
func JoiningPage(ssid string, attempt, maxAttempts int) string {
	return fmt.Sprintf("Connecting to\n %s\n\nAttempt %d/%d", ssid, attempt, maxAttempts)
}

// ConnectedPage confirms a successful join.
func ConnectedPage(ssid string) string {
	return "WiFi Connected!\n " + ssid
}

// JoinFailedPage is shown before the credentials are erased.
func JoinFailedPage(ssid string) string {
	return fmt.Sprintf("Join failed\n %s\n\nErasing settings\nRestarting...", ssid)
}

// SavedPage confirms that the portal stored new credentials.
func SavedPage(ssid string) string {
	return fmt.Sprintf("Settings saved\n %s\n\nRestarting...", ssid)
}

// SaveFailedPage reports a failed portal save.
func SaveFailedPage(reason string) string {
	return "Save failed\n" + reason + "\n\nRestarting..."
}

// EraseFailedPage replaces the erase notice when the record could not be
// removed.
func EraseFailedPage(reason string) string {
	return "Erase failed\n" + reason + "\n\nRestarting..."
}

// FactoryResetPage is shown on a long press.
func FactoryResetPage() string {
	return "Factory reset\n\nErasing settings\nRestarting..."
}

// SleepPage is the last page before the panel powers off.
func SleepPage() string {
	return "\n\n   Going to sleep"
}

// StatusPage is page 0 of the monitor: identity and signal.
func StatusPage(link network.LinkInfo, page, total int) string {
	var b strings.Builder
	b.WriteString(title("Status", page, total))
	if !link.Connected {
		fmt.Fprintf(&b, "%s\nNot connected", link.SSID)
		return b.String()
	}
	fmt.Fprintf(&b, "%s\nIP %s\nRSSI %d dBm %s\nBSSID\n %s",
		link.SSID, link.LocalAddr, link.RSSI, bars(link.RSSI), link.BSSID)
	return b.String()
}

// HealthPage is page 1 of the monitor: channel and probe results.
func HealthPage(link network.LinkInfo, gateway, public diagnostics.Sample, page, total int) string {
	var b strings.Builder
	b.WriteString(title("Health", page, total))
	if link.Connected {
		fmt.Fprintf(&b, "Channel %d\n", link.Channel)
	} else {
		b.WriteString("Not connected\n")
	}
	fmt.Fprintf(&b, "GW %s\n %s\n", orDash(gateway.Addr), sampleText(gateway))
	fmt.Fprintf(&b, "Net %s\n %s", orDash(public.Addr), sampleText(public))
	return b.String()
}

func title(name string, page, total int) string {
	idx := fmt.Sprintf("%d/%d", page+1, total)
	pad := Columns - len(name) - len(idx)
	if pad < 1 {
		pad = 1
	}
	return name + strings.Repeat(" ", pad) + idx + "\n"
}

func sampleText(s diagnostics.Sample) string {
	switch {
	case s.At.IsZero():
		return "waiting"
	case !s.OK:
		return "failed"
	default:
		return "ping " + rttText(s.RTT)
	}
}

func rttText(d time.Duration) string {
	if d < time.Millisecond {
		return "<1 ms"
	}
	return fmt.Sprintf("%d ms", d.Milliseconds())
}

// bars maps RSSI to a four step meter.
func bars(rssi int) string {
	n := 0
	switch {
	case rssi >= -55:
		n = 4
	case rssi >= -67:
		n = 3
	case rssi >= -75:
		n = 2
	case rssi >= -85:
		n = 1
	}
	return strings.Repeat("#", n) + strings.Repeat(".", 4-n)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
