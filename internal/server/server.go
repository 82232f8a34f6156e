package server

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// drainTimeout bounds how long an admin shutdown waits for queued frames to
// reach peers before connections are cut.
const drainTimeout = 5 * time.Second

// Server accepts players over TCP and, optionally, WebSocket and seats them
// at a single Table.
type Server struct {
	settings    ServerSettings
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	logger      *log.Logger
	clock       quartz.Clock
	rng         *rand.Rand
	monitor     DealMonitor
	grace       time.Duration
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	stopOnce    sync.Once
	table       *Table

	tcpListener net.Listener
	wsListener  net.Listener
	httpServer  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for the shutdown grace period.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(s *Server) { s.rng = rng }
}

// WithMonitor attaches a deal monitor.
func WithMonitor(m DealMonitor) Option {
	return func(s *Server) { s.monitor = m }
}

// NewServer creates a server from configuration.
func NewServer(cfg *ServerConfig, logger *log.Logger, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		settings: cfg.Server,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		clock:       quartz.NewReal(),
		grace:       cfg.ShutdownGrace(),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.table = NewTable(TableOptions{
		Logger:  logger,
		Rand:    s.rng,
		Clock:   s.clock,
		Grace:   s.grace,
		Monitor: s.monitor,
		OnShutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
			_ = s.Shutdown(ctx)
		},
	})
	return s
}

// Table returns the table the server seats players at.
func (s *Server) Table() *Table {
	return s.table
}

// Listen binds the configured listeners without accepting yet.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.settings.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.settings.Address, err)
	}
	s.tcpListener = ln

	if s.settings.WSAddress != "" {
		wsln, err := net.Listen("tcp", s.settings.WSAddress)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen on %s: %w", s.settings.WSAddress, err)
		}
		s.wsListener = wsln

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", s.handleWebSocket)
		mux.HandleFunc("/health", s.handleHealth)
		s.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}
	return nil
}

// Addr returns the TCP listener address.
func (s *Server) Addr() net.Addr {
	if s.tcpListener == nil {
		return nil
	}
	return s.tcpListener.Addr()
}

// WSAddr returns the WebSocket listener address, or nil when disabled.
func (s *Server) WSAddr() net.Addr {
	if s.wsListener == nil {
		return nil
	}
	return s.wsListener.Addr()
}

// Serve accepts connections until ctx is cancelled, the admin shuts the
// table down, or a listener fails.
func (s *Server) Serve(ctx context.Context) error {
	if s.tcpListener == nil {
		return errors.New("server is not listening")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Accepting players", "addr", s.tcpListener.Addr())
		return s.acceptLoop()
	})

	if s.httpServer != nil {
		g.Go(func() error {
			s.logger.Info("Starting WebSocket server", "addr", s.wsListener.Addr())
			if err := s.httpServer.Serve(s.wsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("websocket server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.ctx.Done():
		}
		s.stop()
		return nil
	})

	return g.Wait()
}

// Start listens and serves.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Done is closed once the server has stopped accepting connections.
func (s *Server) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Shutdown stops accepting, lets every connection flush what is queued and
// closes whatever is still open when ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()

	conns := s.snapshotConnections()
	for _, c := range conns {
		c.Finish()
	}
	for _, c := range conns {
		select {
		case <-c.Done():
		case <-ctx.Done():
			s.closeAll()
			return ctx.Err()
		}
	}
	return nil
}

// Stop closes listeners and every connection immediately.
func (s *Server) Stop() error {
	s.stop()
	s.closeAll()
	return nil
}

func (s *Server) stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.tcpListener != nil {
			_ = s.tcpListener.Close()
		}
		if s.httpServer != nil {
			_ = s.httpServer.Close()
		}
		s.logger.Info("Stopped accepting connections")
	})
}

func (s *Server) closeAll() {
	for _, c := range s.snapshotConnections() {
		_ = c.Close()
	}
}

func (s *Server) snapshotConnections() []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Connection, 0, len(s.connections))
	for c := range s.connections {
		out = append(out, c)
	}
	return out
}

// ConnectionCount returns the number of open connections, seated or not.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) acceptLoop() error {
	for {
		conn, err := s.tcpListener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.register(NewTCPConnection(conn, s.settings.MaxFrameBytes, s.table, s.logger))
	}
}

// register tracks a new connection, seats it and starts its pumps.
func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Debug("Client connected", "conn", c.ID(), "total", total)

	s.table.Join(c)
	c.Start()

	go func() {
		<-c.Done()
		s.mu.Lock()
		delete(s.connections, c)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Debug("Client disconnected", "conn", c.ID(), "total", total)
	}()
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.ctx.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	s.register(NewWSConnection(conn, s.settings.MaxFrameBytes, s.table, s.logger))
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}
