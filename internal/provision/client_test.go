package provision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/wifistat/internal/codec"
	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/portal"
	"github.com/muurk/wifistat/internal/storage"
)

func TestNewClient(t *testing.T) {
	client := NewClient("192.168.4.1", 80)
	if client.BaseURL != "http://192.168.4.1:80" {
		t.Errorf("BaseURL = %s, want http://192.168.4.1:80", client.BaseURL)
	}
	if client.MaxRetries != DefaultMaxRetries || client.RetryDelay != DefaultRetryDelay {
		t.Errorf("retry = %d/%v", client.MaxRetries, client.RetryDelay)
	}

	client = NewClientWithURL("http://[fe80::1]:8080/")
	if client.BaseURL != "http://[fe80::1]:8080" {
		t.Errorf("BaseURL = %s", client.BaseURL)
	}
}

func TestProvision_Success(t *testing.T) {
	var gotName, gotSecret, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/save" || r.Method != http.MethodPost {
			t.Errorf("request %s %s", r.Method, r.URL.Path)
		}
		gotType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotName = r.PostForm.Get("networkName")
		gotSecret = r.PostForm.Get("secret")
		_, _ = w.Write([]byte("Saved.\n"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	body, err := client.Provision(context.Background(), credentials.Credentials{NetworkName: "Home 5G", Secret: "p&ss=word"})
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if body != "Saved." {
		t.Errorf("body = %q", body)
	}
	if gotName != "Home 5G" || gotSecret != "p&ss=word" {
		t.Errorf("form = %q/%q", gotName, gotSecret)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", gotType)
	}
}

func TestProvision_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantType  ErrorType
		wantCalls int32
	}{
		{"rejected", http.StatusBadRequest, ErrTypeRejected, 1},
		{"save failed", http.StatusInternalServerError, ErrTypeSaveFailed, 1},
		{"restarting", http.StatusServiceUnavailable, ErrTypeHTTP, 3},
		{"not found", http.StatusNotFound, ErrTypeHTTP, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			client := NewClientWithURL(server.URL)
			client.SetRetry(2, time.Millisecond)
			_, err := client.Provision(context.Background(), credentials.Credentials{NetworkName: "X", Secret: "Y"})
			if err == nil {
				t.Fatal("Provision() error = nil")
			}
			e, ok := err.(*Error)
			if !ok {
				t.Fatalf("error type %T, want *Error", err)
			}
			if e.Type != tt.wantType || e.StatusCode != tt.status {
				t.Errorf("error = %v (%d), want %v", e.Type, e.StatusCode, tt.wantType)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestProvision_ValidationSkipsRequest(t *testing.T) {
	client := NewClientWithURL("http://127.0.0.1:1")
	_, err := client.Provision(context.Background(), credentials.Credentials{NetworkName: "X"})
	if e, ok := err.(*Error); !ok || e.Type != ErrTypeValidation {
		t.Errorf("Provision() error = %v, want validation error", err)
	}
}

func TestProvision_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClientWithURL(url)
	client.SetRetry(1, time.Millisecond)
	_, err := client.Provision(context.Background(), credentials.Credentials{NetworkName: "X", Secret: "Y"})
	if !IsNetworkError(err) {
		t.Fatalf("Provision() error = %v, want network error", err)
	}
	if !IsRetryable(err) {
		t.Error("connection failures should be retryable")
	}
	if len(Troubleshooting(err)) == 0 {
		t.Error("no troubleshooting hints for a network error")
	}
}

// Against the real portal handler with a stand-in main cycle.
func TestProvision_AgainstPortal(t *testing.T) {
	mem := storage.NewMemory()
	_ = mem.Mount()
	store := credentials.NewStore(mem, codec.JSON{})
	p := portal.New(store, nil)
	server := httptest.NewServer(p.Handler())
	defer server.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			p.Service()
			time.Sleep(time.Millisecond)
		}
	}()

	client := NewClientWithURL(server.URL)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	body, err := client.Provision(context.Background(), credentials.Credentials{NetworkName: "X", Secret: "Y"})
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if !strings.Contains(body, "Saved") {
		t.Errorf("body = %q", body)
	}
	got, err := store.Load()
	if err != nil || got.NetworkName != "X" {
		t.Errorf("Load() = %+v, %v", got, err)
	}
}

func TestShortMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewStatusError(500, ""), "Device failed to save the credentials"},
		{NewStatusError(400, ""), "Portal rejected the form"},
		{NewStatusError(418, ""), "Device error (HTTP 418)"},
		{NewValidationError("bad input"), "bad input"},
	}
	for _, tt := range tests {
		if got := ShortMessage(tt.err); got != tt.want {
			t.Errorf("ShortMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
	if !IsSaveFailed(NewStatusError(500, "")) {
		t.Error("IsSaveFailed(500) = false")
	}
}
