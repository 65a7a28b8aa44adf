// Package server runs the process's listeners as one unit: start them all,
// wait for a signal or a failure, then stop them in reverse order.
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

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrStopTimeout marks a service whose Stop outlived the configured timeout.
var ErrStopTimeout = errors.New("stop timed out")

// Service is a listener managed by a Lifecycle. Start blocks while the
// service runs; Stop makes Start return.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a blocking serve function and its stop function.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop() { f.StopFn() }

type entry struct {
	name string
	svc  Service
}

// Lifecycle owns a set of named services.
type Lifecycle struct {
	logger      *zap.Logger
	stopTimeout time.Duration
	signals     []os.Signal

	mu      sync.Mutex
	entries []entry
	hooks   []func()
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithStopTimeout bounds each Stop call. Zero waits as long as it takes.
func WithStopTimeout(d time.Duration) Option {
	return func(l *Lifecycle) { l.stopTimeout = d }
}

// WithSignals sets the signals that begin shutdown. No arguments means
// signals are ignored and only ctx or a failure ends Run.
func WithSignals(sigs ...os.Signal) Option {
	return func(l *Lifecycle) { l.signals = sigs }
}

// NewLifecycle returns an empty Lifecycle that shuts down on SIGINT or SIGTERM
// unless WithSignals says otherwise.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		logger:  logger,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add registers svc under name. Services start in the order added.
//
// Precondition: svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry{name: name, svc: svc})
}

// OnShutdown registers fn to run when shutdown begins, before the first Stop.
func (l *Lifecycle) OnShutdown(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, fn)
}

// Run starts every service and blocks until a signal arrives, ctx ends or a
// service's Start fails. It then runs the shutdown hooks and stops the
// services last to first.
//
// Postcondition: every Stop has been called. The error combines the start
// failure that ended the run, if any, with every stop that timed out.
func (l *Lifecycle) Run(ctx context.Context) error {
	began := time.Now()
	l.mu.Lock()
	entries := append([]entry(nil), l.entries...)
	hooks := append([]func(){}, l.hooks...)
	l.mu.Unlock()

	failed := make(chan error, len(entries))
	for _, e := range entries {
		go func() {
			l.logger.Info("starting service", zap.String("service", e.name))
			if err := e.svc.Start(); err != nil {
				failed <- fmt.Errorf("service %s: %w", e.name, err)
			}
		}()
	}
	l.logger.Info("services launched", zap.Int("count", len(entries)))

	sigCh := make(chan os.Signal, 1)
	if len(l.signals) > 0 {
		signal.Notify(sigCh, l.signals...)
		defer signal.Stop(sigCh)
	}

	var err error
	select {
	case sig := <-sigCh:
		l.logger.Info("shutting down", zap.Stringer("signal", sig))
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.String("reason", "context done"))
	case err = <-failed:
		l.logger.Error("shutting down after service failure", zap.Error(err))
	}

	for _, fn := range hooks {
		fn()
	}
	for i := len(entries) - 1; i >= 0; i-- {
		err = multierr.Append(err, l.stop(entries[i]))
	}

	l.logger.Info("shutdown complete",
		zap.Duration("uptime", time.Since(began)),
		zap.Int("errors", len(multierr.Errors(err))),
	)
	return err
}

// stop calls e.svc.Stop, giving up after the stop timeout.
func (l *Lifecycle) stop(e entry) error {
	logger := l.logger.With(zap.String("service", e.name))
	began := time.Now()

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.svc.Stop()
	}()

	var timeout <-chan time.Time
	if l.stopTimeout > 0 {
		timer := time.NewTimer(l.stopTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-done:
		logger.Info("service stopped", zap.Duration("elapsed", time.Since(began)))
		return nil
	case <-timeout:
		logger.Warn("service stop timed out", zap.Duration("timeout", l.stopTimeout))
		return fmt.Errorf("service %s: %w after %s", e.name, ErrStopTimeout, l.stopTimeout)
	}
}
