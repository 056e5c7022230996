package network

import (
	"context"
	"errors"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/muurk/wifistat/internal/codec"
	"github.com/muurk/wifistat/internal/config"
	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/radio"
	"github.com/muurk/wifistat/internal/storage"
)

type fixture struct {
	clock *testingclock.FakeClock
	radio *radio.Simulator
	mem   *storage.Memory
	store *credentials.Store
	mgr   *Manager
}

func newFixture(t *testing.T, joinDelay time.Duration) *fixture {
	t.Helper()
	clk := testingclock.NewFakeClock(time.Unix(1700000000, 0))
	sim := radio.NewSimulator(clk, config.Radio{
		JoinDelay: joinDelay,
		Networks: []config.Network{{
			SSID: "X", Secret: "Y", RSSI: -61, Channel: 11,
			BSSID: "02:00:00:00:00:01", Address: "10.0.0.23", Gateway: "10.0.0.1",
		}},
	})
	mem := storage.NewMemory()
	if err := mem.Mount(); err != nil {
		t.Fatal(err)
	}
	store := credentials.NewStore(mem, codec.JSON{})
	return &fixture{
		clock: clk,
		radio: sim,
		mem:   mem,
		store: store,
		mgr:   NewManager(clk, sim, store, Config{JoinAttempts: 20, JoinInterval: time.Second}),
	}
}

func TestManager_JoinSucceeds(t *testing.T) {
	f := newFixture(t, 3*time.Second)

	var attempts []int
	err := f.mgr.JoinAsClient(context.Background(), credentials.Credentials{NetworkName: "X", Secret: "Y"},
		func(n, max int) {
			if max != 20 {
				t.Errorf("max = %d, want 20", max)
			}
			attempts = append(attempts, n)
		})
	if err != nil {
		t.Fatalf("JoinAsClient() error = %v", err)
	}
	if len(attempts) != 3 {
		t.Errorf("attempts = %v, want 3", attempts)
	}
	if f.mgr.State() != StateJoined || !f.mgr.Joined() {
		t.Errorf("State() = %v, want joined", f.mgr.State())
	}

	link := f.mgr.Link()
	want := LinkInfo{
		Connected: true, SSID: "X", RSSI: -61, Channel: 11,
		BSSID: "02:00:00:00:00:01", LocalAddr: "10.0.0.23", Gateway: "10.0.0.1",
	}
	if link != want {
		t.Errorf("Link() = %+v, want %+v", link, want)
	}
}

// Boot scenario B, network half: the radio never connects, the whole budget
// is spent, and the record is gone afterwards.
func TestManager_JoinExhaustsFullBudget(t *testing.T) {
	f := newFixture(t, 0)
	creds := credentials.Credentials{NetworkName: "X", Secret: "wrong"}
	if err := f.store.Save(creds); err != nil {
		t.Fatal(err)
	}

	start := f.clock.Now()
	var attempts []int
	err := f.mgr.JoinAsClient(context.Background(), creds, func(n, _ int) {
		attempts = append(attempts, n)
	})
	if !errors.Is(err, ErrJoinExhausted) {
		t.Fatalf("JoinAsClient() error = %v, want ErrJoinExhausted", err)
	}
	if len(attempts) != 20 || attempts[19] != 20 {
		t.Errorf("attempts = %v, want 1..20", attempts)
	}
	if elapsed := f.clock.Since(start); elapsed != 20*time.Second {
		t.Errorf("elapsed = %v, want 20s", elapsed)
	}
	if f.mgr.State() != StateJoinFailed {
		t.Errorf("State() = %v, want join_failed", f.mgr.State())
	}
	if f.mgr.Link().Connected {
		t.Error("Link().Connected = true after failed join")
	}

	if err := f.mgr.ForgetCredentials(); err != nil {
		t.Fatalf("ForgetCredentials() error = %v", err)
	}
	if _, err := f.store.Load(); !errors.Is(err, credentials.ErrNotFound) {
		t.Errorf("Load() after forget error = %v, want ErrNotFound", err)
	}
}

func TestManager_JoinConnectsOnLastAttempt(t *testing.T) {
	f := newFixture(t, 20*time.Second)
	err := f.mgr.JoinAsClient(context.Background(), credentials.Credentials{NetworkName: "X", Secret: "Y"}, nil)
	if err != nil {
		t.Fatalf("JoinAsClient() error = %v, want join on attempt 20", err)
	}
}

func TestManager_JoinCancelled(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	err := f.mgr.JoinAsClient(ctx, credentials.Credentials{NetworkName: "X", Secret: "Y"}, func(n, _ int) {
		if n == 2 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("JoinAsClient() error = %v, want context.Canceled", err)
	}
	if f.mgr.State() != StateIdle {
		t.Errorf("State() = %v, want idle", f.mgr.State())
	}
}

func TestManager_AccessPointAndShutdown(t *testing.T) {
	f := newFixture(t, 0)
	ap := radio.AccessPoint{SSID: "wifistat-setup", Secret: "configureme", Address: "192.168.4.1"}

	if err := f.mgr.StartAccessPoint(ap); err != nil {
		t.Fatalf("StartAccessPoint() error = %v", err)
	}
	if f.mgr.State() != StateAccessPoint {
		t.Errorf("State() = %v, want access_point", f.mgr.State())
	}
	if _, ok := f.radio.Advertising(); !ok {
		t.Error("radio not advertising")
	}

	if err := f.mgr.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if _, ok := f.radio.Advertising(); ok {
		t.Error("radio still advertising after Shutdown")
	}
	if f.mgr.State() != StateIdle {
		t.Errorf("State() = %v, want idle", f.mgr.State())
	}
}

func TestManager_LinkLost(t *testing.T) {
	f := newFixture(t, 0)
	if err := f.mgr.JoinAsClient(context.Background(), credentials.Credentials{NetworkName: "X", Secret: "Y"}, nil); err != nil {
		t.Fatal(err)
	}
	f.radio.SetLinkDown(true)
	if f.mgr.Joined() {
		t.Error("Joined() = true with the link down")
	}
	if link := f.mgr.Link(); link.Connected || link.Gateway != "" {
		t.Errorf("Link() = %+v, want disconnected", link)
	}
}

func TestManager_ForgetCredentialsStorageFailure(t *testing.T) {
	f := newFixture(t, 0)
	f.mem.FailDelete = errors.New("flash busy")
	if err := f.mgr.ForgetCredentials(); err == nil {
		t.Error("ForgetCredentials() error = nil, want failure")
	}
}
