// Package server runs the process's long-lived services and shuts them down
// in order on a signal or the first failure.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultStopTimeout bounds how long one service may take to return after
// its context is cancelled.
const DefaultStopTimeout = 10 * time.Second

// Service is a long-running component.
type Service interface {
	// Run blocks until ctx is cancelled or the service fails. A nil return
	// after cancellation is a clean stop.
	Run(ctx context.Context) error
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context) error

// Run calls f.
func (f ServiceFunc) Run(ctx context.Context) error { return f(ctx) }

// Lifecycle runs registered services. Services start in registration order
// and are stopped in reverse order, each waiting for the previous to return,
// so a later service may depend on an earlier one until it has stopped.
type Lifecycle struct {
	logger      *zap.Logger
	stopTimeout time.Duration

	mu       sync.Mutex
	services []*running
}

type running struct {
	name    string
	service Service
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// NewLifecycle creates a Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger, stopTimeout: DefaultStopTimeout}
}

// SetStopTimeout overrides DefaultStopTimeout.
func (l *Lifecycle) SetStopTimeout(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopTimeout = d
}

// Add registers a named service.
//
// Precondition: name must be non-empty; svc must be non-nil; Run has not
// been called.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, &running{name: name, service: svc})
}

// Run starts every service and blocks until ctx is cancelled, SIGINT or
// SIGTERM arrives, or any service returns. It then stops the remaining
// services in reverse order.
//
// Postcondition: every service has returned or exceeded its stop timeout.
// Returns the joined errors of services that failed.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	l.mu.Lock()
	services := l.services
	timeout := l.stopTimeout
	l.mu.Unlock()

	exited := make(chan *running, len(services))
	for _, r := range services {
		sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		r.cancel = cancel
		r.done = make(chan struct{})
		l.logger.Info("starting service", zap.String("service", r.name))
		go func() {
			defer close(r.done)
			r.err = r.service.Run(sctx)
			exited <- r
		}()
	}
	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	select {
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	case r := <-exited:
		if r.err != nil {
			l.logger.Error("service failed, shutting down", zap.String("service", r.name), zap.Error(r.err))
		} else {
			l.logger.Warn("service exited, shutting down", zap.String("service", r.name))
		}
	}

	err := l.shutdown(services, timeout)
	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return err
}

func (l *Lifecycle) shutdown(services []*running, timeout time.Duration) error {
	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		r := services[i]
		stopStart := time.Now()
		r.cancel()
		select {
		case <-r.done:
			if r.err != nil && !errors.Is(r.err, context.Canceled) {
				errs = append(errs, fmt.Errorf("service %s: %w", r.name, r.err))
			}
			l.logger.Info("service stopped",
				zap.String("service", r.name),
				zap.Duration("elapsed", time.Since(stopStart)),
			)
		case <-time.After(timeout):
			errs = append(errs, fmt.Errorf("service %s: did not stop within %s", r.name, timeout))
			l.logger.Error("service stop timed out", zap.String("service", r.name))
		}
	}
	return errors.Join(errs...)
}
