package portal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/muurk/wifistat/internal/codec"
	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/input"
	"github.com/muurk/wifistat/internal/storage"
)

type testPortal struct {
	portal   *Portal
	server   *httptest.Server
	mem      *storage.Memory
	store    *credentials.Store
	activity *input.Latch
	outcomes chan Outcome
	stop     chan struct{}
}

// newTestPortal serves the handler and runs a stand-in main cycle that
// services saves.
func newTestPortal(t *testing.T) *testPortal {
	t.Helper()
	mem := storage.NewMemory()
	if err := mem.Mount(); err != nil {
		t.Fatal(err)
	}
	store := credentials.NewStore(mem, codec.JSON{})
	activity := &input.Latch{}
	p := New(store, activity)

	tp := &testPortal{
		portal:   p,
		server:   httptest.NewServer(p.Handler()),
		mem:      mem,
		store:    store,
		activity: activity,
		outcomes: make(chan Outcome, 8),
		stop:     make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-tp.stop:
				return
			default:
			}
			if out, ok := p.Service(); ok {
				tp.outcomes <- out
			}
			time.Sleep(time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		close(tp.stop)
		tp.server.Close()
	})
	return tp
}

func (tp *testPortal) postForm(t *testing.T, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := http.PostForm(tp.server.URL+"/save", values)
	if err != nil {
		t.Fatalf("POST /save: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (tp *testPortal) noOutcome(t *testing.T) {
	t.Helper()
	select {
	case out := <-tp.outcomes:
		t.Fatalf("unexpected outcome %+v", out)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPortal_GetForm(t *testing.T) {
	tp := newTestPortal(t)

	resp, err := http.Get(tp.server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{`action="/save"`, `name="networkName"`, `name="secret"`, `method="POST"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("form missing %s", want)
		}
	}
	if !tp.activity.Take() {
		t.Error("request did not signal activity")
	}
}

// Boot scenario A, portal half: a valid POST persists the record, answers
// 200 and hands the outcome to the device.
func TestPortal_SaveSuccess(t *testing.T) {
	tp := newTestPortal(t)

	resp, body := tp.postForm(t, url.Values{"networkName": {"X"}, "secret": {"Y"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Saved") {
		t.Errorf("body = %q", body)
	}

	select {
	case out := <-tp.outcomes:
		if out.Err != nil || out.Credentials != (credentials.Credentials{NetworkName: "X", Secret: "Y"}) {
			t.Errorf("outcome = %+v", out)
		}
	case <-time.After(time.Second):
		t.Fatal("no outcome posted")
	}

	got, err := tp.store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.NetworkName != "X" || got.Secret != "Y" {
		t.Errorf("Load() = %+v", got)
	}
}

func TestPortal_SaveFailure(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		setup  func(*storage.Memory)
	}{
		{
			name:   "storage write fails",
			values: url.Values{"networkName": {"X"}, "secret": {"Y"}},
			setup:  func(m *storage.Memory) { m.FailWrite = errors.New("flash worn") },
		},
		{
			name:   "empty fields refused by the store",
			values: url.Values{"networkName": {""}, "secret": {""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := newTestPortal(t)
			if tt.setup != nil {
				tt.setup(tp.mem)
			}

			resp, body := tp.postForm(t, tt.values)
			if resp.StatusCode != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500 (%s)", resp.StatusCode, body)
			}
			if !strings.Contains(body, "Failed to save") {
				t.Errorf("body = %q", body)
			}
			select {
			case out := <-tp.outcomes:
				if out.Err == nil {
					t.Error("outcome has no error")
				}
			case <-time.After(time.Second):
				t.Fatal("failed save must still post an outcome")
			}
		})
	}
}

func TestPortal_MissingField(t *testing.T) {
	tests := []url.Values{
		{"networkName": {"X"}},
		{"secret": {"Y"}},
		{},
	}

	for _, values := range tests {
		tp := newTestPortal(t)
		resp, _ := tp.postForm(t, values)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %v status = %d, want 400", values, resp.StatusCode)
		}
		tp.noOutcome(t)
		if tp.mem.Exists(credentials.DefaultPath) {
			t.Errorf("POST %v persisted a record", values)
		}
	}
}

func TestPortal_Routing(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
		allow  string
	}{
		{http.MethodGet, "/save", http.StatusMethodNotAllowed, "POST"},
		{http.MethodPut, "/save", http.StatusMethodNotAllowed, "POST"},
		{http.MethodPost, "/", http.StatusMethodNotAllowed, "GET, HEAD"},
		{http.MethodGet, "/generate_204", http.StatusNotFound, ""},
		{http.MethodGet, "/save/extra", http.StatusNotFound, ""},
		{http.MethodHead, "/", http.StatusOK, ""},
	}

	tp := newTestPortal(t)
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tp.server.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.allow != "" && resp.Header.Get("Allow") != tt.allow {
				t.Errorf("Allow = %q, want %q", resp.Header.Get("Allow"), tt.allow)
			}
		})
	}
	tp.noOutcome(t)
	if n := tp.portal.Requests(); n != len(tests) {
		t.Errorf("Requests() = %d, want %d", n, len(tests))
	}
	if tp.activity.Count() != uint64(len(tests)) {
		t.Errorf("activity count = %d, want %d", tp.activity.Count(), len(tests))
	}
}

func TestPortal_StopReleasesWaitingSave(t *testing.T) {
	mem := storage.NewMemory()
	_ = mem.Mount()
	p := New(credentials.NewStore(mem, codec.JSON{}), nil)
	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	// Nothing services the save; stopping must answer the handler.
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = p.Stop(context.Background())
	}()

	resp, err := http.PostForm(srv.URL+"/save", url.Values{"networkName": {"X"}, "secret": {"Y"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	if mem.Exists(credentials.DefaultPath) {
		t.Error("record persisted without the main cycle")
	}
}

func TestPortal_StartStop(t *testing.T) {
	mem := storage.NewMemory()
	_ = mem.Mount()
	p := New(credentials.NewStore(mem, codec.JSON{}), nil)

	if err := p.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if p.Port() == 0 {
		t.Fatal("Port() = 0 after Start")
	}

	resp, err := http.Get("http://" + p.Addr() + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := p.Start("127.0.0.1:0"); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
	}
}

func TestInstanceName(t *testing.T) {
	tests := map[string]string{
		"wifistat-setup": "wifistat-setup",
		"kitchen":        "wifistat-kitchen",
	}
	for in, want := range tests {
		if got := InstanceName(in); got != want {
			t.Errorf("InstanceName(%q) = %q, want %q", in, got, want)
		}
	}
}
