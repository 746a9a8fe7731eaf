// Package server coordinates the long-running units of the game process:
// the HTTP/WebSocket listener and the tick engine. Units start in
// registration order and stop in reverse on SIGINT/SIGTERM, so the listener
// stops accepting before the tick engine goes quiet.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is one long-running unit of the process.
type Service interface {
	// Start runs the unit and blocks until it stops or fails.
	Start() error
	// Stop asks the unit to wind down. It must be safe to call while Start
	// is still blocked.
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle runs a set of named services as one process. A failure in any
// service, or a termination signal, winds the whole set down.
type Lifecycle struct {
	logger *zap.Logger
	units  []unit
	mu     sync.Mutex
}

type unit struct {
	name    string
	service Service
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		logger: logger,
	}
}

// Add registers a named service. Order matters: services start in the order
// added and stop in reverse.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.units = append(l.units, unit{name: name, service: svc})
}

// Run starts every registered service and blocks until SIGINT/SIGTERM, a
// service failure, or ctx cancellation, then stops them in reverse order.
//
// Postcondition: Every service has been stopped. Returns the error of the
// service that failed, or nil on a clean signal/context shutdown.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failures := make(chan error, len(l.units))
	for _, u := range l.units {
		u := u
		go func() {
			l.logger.Info("service starting", zap.String("service", u.name))
			if err := u.service.Start(); err != nil {
				l.logger.Error("service exited with error",
					zap.String("service", u.name),
					zap.Error(err),
				)
				failures <- fmt.Errorf("service %s: %w", u.name, err)
				cancel()
			}
		}()
	}

	l.logger.Info("process up",
		zap.Int("services", len(l.units)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var cause error
	select {
	case sig := <-sigCh:
		l.logger.Info("signal received, shutting down",
			zap.String("signal", sig.String()),
		)
	case cause = <-failures:
		l.logger.Error("service failure, shutting down", zap.Error(cause))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
		// A failing service cancels ctx after reporting; prefer its error
		// over a bare cancellation when both raced into readiness.
		select {
		case cause = <-failures:
		default:
		}
	}

	l.stopAll()

	l.logger.Info("shutdown complete",
		zap.Duration("uptime", time.Since(start)),
	)
	return cause
}

// stopAll stops services in reverse registration order.
func (l *Lifecycle) stopAll() {
	for i := len(l.units) - 1; i >= 0; i-- {
		u := l.units[i]
		stopStart := time.Now()
		u.service.Stop()
		l.logger.Info("service stopped",
			zap.String("service", u.name),
			zap.Duration("elapsed", time.Since(stopStart)),
		)
	}
}
