package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/abyssidle/internal/config"
	"github.com/cory-johannsen/abyssidle/internal/observability"
)

// SessionHandler runs the conversation with one connected client.
type SessionHandler interface {
	// HandleSession returns when the client quits, the connection fails, or
	// ctx is cancelled.
	HandleSession(ctx context.Context, conn *Conn) error
}

// HandlerFunc adapts a function to SessionHandler.
type HandlerFunc func(ctx context.Context, conn *Conn) error

// HandleSession calls f.
func (f HandlerFunc) HandleSession(ctx context.Context, conn *Conn) error {
	return f(ctx, conn)
}

// busyMessage is sent to clients turned away at the connection cap.
const busyMessage = "The server is full. Please try again later."

// Acceptor accepts TCP clients and runs a SessionHandler for each.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Conn]struct{}
	closing  bool
	ready    chan struct{}
	wg       sync.WaitGroup
}

// NewAcceptor creates an Acceptor.
//
// Precondition: handler and logger must be non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	return &Acceptor{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		conns:   make(map[*Conn]struct{}),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the listener is bound.
func (a *Acceptor) Ready() <-chan struct{} {
	return a.ready
}

// Addr returns the bound address, or "" before Ready.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Active returns the number of connected clients.
func (a *Acceptor) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.conns)
}

// Serve listens on the configured address and serves clients until ctx is
// cancelled. Session contexts derive from ctx, so cancelling it also asks
// every handler to finish.
//
// Postcondition: on return the listener is closed, every client connection
// is closed, and every handler goroutine has exited.
func (a *Acceptor) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()
	close(a.ready)
	a.logger.Info("telnet acceptor listening", zap.String("addr", ln.Addr().String()))

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			a.logger.Warn("accepting connection", zap.Error(err))
			continue
		}
		a.wg.Add(1)
		go a.serveConn(ctx, raw)
	}

	a.closeAll()
	a.wg.Wait()
	a.logger.Info("telnet acceptor stopped")
	return nil
}

func (a *Acceptor) track(conn *Conn) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closing {
		return false
	}
	if a.cfg.MaxConnections > 0 && len(a.conns) >= a.cfg.MaxConnections {
		return false
	}
	a.conns[conn] = struct{}{}
	return true
}

func (a *Acceptor) untrack(conn *Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.conns, conn)
}

func (a *Acceptor) closeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closing = true
	for c := range a.conns {
		_ = c.Close()
	}
}

func (a *Acceptor) serveConn(ctx context.Context, raw net.Conn) {
	defer a.wg.Done()
	start := time.Now()
	logger := observability.ForConn(a.logger, uuid.NewString(), raw.RemoteAddr().String())

	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	defer conn.Close()
	if !a.track(conn) {
		_ = conn.WriteLine(busyMessage)
		logger.Warn("connection refused at capacity", zap.Int("max", a.cfg.MaxConnections))
		return
	}
	defer a.untrack(conn)
	logger.Info("client connected")

	if err := conn.Negotiate(); err != nil {
		logger.Warn("telnet negotiation failed", zap.Error(err))
		return
	}

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.handler.HandleSession(sctx, conn); err != nil {
		logger.Debug("session ended", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	logger.Info("session ended cleanly", zap.Duration("duration", time.Since(start)))
}
