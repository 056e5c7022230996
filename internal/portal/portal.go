// Package portal serves the setup form while the device runs as an access
// point.
//
// Handlers run on net/http goroutines and never touch storage. A save is
// handed to the main cycle through Service, which persists it, answers the
// waiting handler and returns the outcome to the device.
package portal

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/input"
	"github.com/muurk/wifistat/internal/logging"
	"go.uber.org/zap"
)

//go:embed form.html
var formHTML []byte

const maxFormBytes = 4 << 10

// ErrStopped is returned by Start on a portal that was already stopped.
var ErrStopped = errors.New("portal stopped")

// Saver persists credentials. *credentials.Store implements it.
type Saver interface {
	Save(credentials.Credentials) error
}

// Outcome is the result of one save through the form.
type Outcome struct {
	Credentials credentials.Credentials
	Err         error
}

type saveRequest struct {
	creds credentials.Credentials
	reply chan error
}

// Portal is the setup HTTP surface.
type Portal struct {
	store    Saver
	activity *input.Latch
	requests chan saveRequest
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	adv      *Advertiser
	requestN int
}

// New returns a portal that saves through store and signals every request
// on activity.
func New(store Saver, activity *input.Latch) *Portal {
	if activity == nil {
		activity = &input.Latch{}
	}
	return &Portal{
		store:    store,
		activity: activity,
		requests: make(chan saveRequest, 1),
		done:     make(chan struct{}),
	}
}

// Handler returns the routed handler with request logging.
func (p *Portal) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", p.handleRoot)
	mux.HandleFunc("/save", p.handleSave)
	return p.observe(mux)
}

// Start listens on addr and serves in the background.
func (p *Portal) Start(addr string) error {
	select {
	case <-p.done:
		return ErrStopped
	default:
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("portal listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           p.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	p.mu.Lock()
	p.server = srv
	p.listener = ln
	p.mu.Unlock()

	logging.Info("Portal listening", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Portal server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the listening address, or "" before Start.
func (p *Portal) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Port returns the listening TCP port, or 0 before Start.
func (p *Portal) Port() int {
	_, port, err := net.SplitHostPort(p.Addr())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// Advertise announces the running portal over mDNS until Stop.
func (p *Portal) Advertise(instance string) error {
	port := p.Port()
	if port == 0 {
		return fmt.Errorf("advertise %s: portal not listening", instance)
	}
	adv, err := Advertise(instance, port)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.adv = adv
	p.mu.Unlock()
	return nil
}

// Stop shuts the server down. Handlers still waiting on a save are released
// with 503.
func (p *Portal) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.done) })

	p.mu.Lock()
	srv, adv := p.server, p.adv
	p.server, p.adv = nil, nil
	p.mu.Unlock()

	if adv != nil {
		adv.Close()
	}
	if srv == nil {
		return nil
	}
	logging.Info("Portal stopping")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("portal shutdown: %w", err)
	}
	return nil
}

// Service handles at most one pending save. It is called from the main
// cycle and never blocks.
func (p *Portal) Service() (Outcome, bool) {
	select {
	case req := <-p.requests:
		err := p.store.Save(req.creds)
		req.reply <- err
		if err != nil {
			logging.Warn("Portal save failed", zap.Error(err))
		} else {
			logging.Info("Portal saved credentials", zap.String("network", req.creds.NetworkName))
		}
		return Outcome{Credentials: req.creds, Err: err}, true
	default:
		return Outcome{}, false
	}
}

// Requests counts requests seen by the handler.
func (p *Portal) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requestN
}

func (p *Portal) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(formHTML)
}

func (p *Portal) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed form", http.StatusBadRequest)
		return
	}
	name, okName := r.PostForm[credentials.FieldNetworkName]
	secret, okSecret := r.PostForm[credentials.FieldSecret]
	if !okName || !okSecret {
		http.Error(w, "Missing networkName or secret", http.StatusBadRequest)
		return
	}

	req := saveRequest{
		creds: credentials.Credentials{NetworkName: name[0], Secret: secret[0]},
		reply: make(chan error, 1),
	}
	select {
	case p.requests <- req:
	case <-p.done:
		http.Error(w, "Device is restarting", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	var err error
	select {
	case err = <-req.reply:
	case <-p.done:
		http.Error(w, "Device is restarting", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = fmt.Fprintf(w, "Failed to save credentials: %s\nThe device is restarting.\n", credentials.ShortMessage(err))
		return
	}
	_, _ = fmt.Fprintf(w, "Saved. The device is restarting and will join %q.\n", req.creds.NetworkName)
}

// observe logs every request and signals activity.
func (p *Portal) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.activity.Signal()
		p.mu.Lock()
		p.requestN++
		p.mu.Unlock()

		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPResponse(r.RemoteAddr, rec.status, rec.size)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}
