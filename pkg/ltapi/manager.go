// Package ltapi serves a read-only HTTP view of the console: node logs,
// delivery history, live events and Prometheus metrics.
package ltapi

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/txn2/linkterm/pkg/ltapi/types"
	"github.com/txn2/linkterm/pkg/ltevents"
)

// DefaultListen is the API address when none is configured
const DefaultListen = "127.0.0.1:8089"

// Options configures a Manager
type Options struct {
	Listen     string
	Version    string
	Logs       types.LogReader
	History    types.HistoryReader
	Bus        *ltevents.Bus
	Nodes      map[string]string
	Sink       string
	TUIEnabled bool
}

// Manager manages the API server lifecycle
type Manager struct {
	server    *http.Server
	router    *gin.Engine
	stopChan  chan struct{}
	doneChan  chan struct{}
	stopOnce  sync.Once
	startTime time.Time

	listen   string
	mu       sync.RWMutex
	addr     net.Addr
	ready    chan struct{}
	logs     types.LogReader
	history  types.HistoryReader
	streamer *EventStreamerAdapter

	version    string
	nodes      map[string]string
	sink       string
	tuiEnabled bool
}

// New creates an API manager. The router is built immediately so Handler can
// be used without starting a listener.
func New(opts Options) *Manager {
	if opts.Listen == "" {
		opts.Listen = DefaultListen
	}

	m := &Manager{
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
		ready:      make(chan struct{}),
		startTime:  time.Now(),
		listen:     opts.Listen,
		logs:       opts.Logs,
		history:    opts.History,
		version:    opts.Version,
		nodes:      opts.Nodes,
		sink:       opts.Sink,
		tuiEnabled: opts.TUIEnabled,
	}
	if opts.Bus != nil {
		m.streamer = NewEventStreamerAdapter(opts.Bus)
	}

	gin.SetMode(gin.ReleaseMode)
	m.router = m.setupRouter()
	return m
}

// Nodes returns the configured source of each node
func (m *Manager) Nodes() map[string]string { return m.nodes }

// Sink returns the configured drone link
func (m *Manager) Sink() string { return m.sink }

// TUIEnabled reports whether the terminal UI runs alongside the API
func (m *Manager) TUIEnabled() bool { return m.tuiEnabled }

// Uptime returns the time since the manager was created
func (m *Manager) Uptime() time.Duration { return time.Since(m.startTime) }

// Handler returns the configured router
func (m *Manager) Handler() http.Handler { return m.router }

// Addr returns the bound address once Run is listening, nil before
func (m *Manager) Addr() net.Addr {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.addr
}

// Ready is closed once the listener is bound
func (m *Manager) Ready() <-chan struct{} { return m.ready }

// Run starts the API server (blocks until stopped)
func (m *Manager) Run() error {
	ln, err := net.Listen("tcp", m.listen)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", m.listen)
	}

	m.server = &http.Server{
		Handler:      m.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  120 * time.Second,
	}

	m.mu.Lock()
	m.addr = ln.Addr()
	m.mu.Unlock()
	close(m.ready)

	log.Infof("API listening on http://%s/api", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := m.server.Serve(ln); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-m.stopChan:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.server.Shutdown(ctx); err != nil {
			log.Errorf("API server shutdown error: %v", err)
		}
	case err := <-errCh:
		close(m.doneChan)
		return errors.Wrap(err, "api server")
	}

	close(m.doneChan)
	return nil
}

// Stop signals the API server to stop. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Done returns a channel closed when Run has returned
func (m *Manager) Done() <-chan struct{} {
	return m.doneChan
}
