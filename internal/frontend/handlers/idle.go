package handlers

import (
	"sync"
	"sync/atomic"
	"time"
)

// IdleMonitorConfig configures StartIdleMonitor.
type IdleMonitorConfig struct {
	// LastInput holds the UnixNano time of the most recent input line.
	LastInput *atomic.Int64
	// IdleTimeout is the inactivity after which OnWarning fires.
	IdleTimeout time.Duration
	// GracePeriod is the further inactivity after the warning before OnDisconnect fires.
	GracePeriod time.Duration
	// TickInterval is how often LastInput is sampled. Zero picks IdleTimeout/10.
	TickInterval time.Duration
	OnWarning    func()
	OnDisconnect func()
}

// StartIdleMonitor watches LastInput in a goroutine. OnWarning fires once
// per idle stretch; input after the warning re-arms it. OnDisconnect fires
// at most once, after which the monitor exits.
//
// Precondition: LastInput, OnWarning and OnDisconnect must be non-nil; IdleTimeout > 0.
// Postcondition: Returns a stop function; once it returns no callback fires.
func StartIdleMonitor(cfg IdleMonitorConfig) (stop func()) {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = cfg.IdleTimeout / 10
		if tick <= 0 {
			tick = time.Millisecond
		}
	}

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		var warnedAt time.Time
		for {
			select {
			case <-quit:
				return
			case now := <-ticker.C:
				last := time.Unix(0, cfg.LastInput.Load())
				if !warnedAt.IsZero() && last.After(warnedAt) {
					warnedAt = time.Time{}
				}
				if now.Sub(last) < cfg.IdleTimeout {
					continue
				}
				if warnedAt.IsZero() {
					warnedAt = now
					cfg.OnWarning()
					continue
				}
				if now.Sub(warnedAt) >= cfg.GracePeriod {
					cfg.OnDisconnect()
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(quit) })
		<-done
	}
}
