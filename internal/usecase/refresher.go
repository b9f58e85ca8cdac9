package usecase

import (
	"context"
	"time"

	applogger "PlumbWatch/pkg/logger"
)

// DefaultRefreshInterval is the period between refresh cycles.
const DefaultRefreshInterval = 30 * time.Second

// Refresher drives a refresh cycle on a fixed interval. A tick that lands on a
// cycle already started by a request joins it instead of running a second one.
type Refresher struct {
	monitor  *MarketMonitor
	interval time.Duration
	l        *applogger.Logger
}

func NewRefresher(monitor *MarketMonitor, interval time.Duration, l *applogger.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Refresher{monitor: monitor, interval: interval, l: l}
}

// Run refreshes once immediately, then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.l.Info("refresher stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	if _, err := r.monitor.refreshShared(ctx); err != nil && ctx.Err() == nil {
		r.l.Error("refresh failed", applogger.Error(err))
	}
}
