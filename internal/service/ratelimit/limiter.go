package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultWindow   = 60 * time.Second
	DefaultCapacity = 60
)

// Option configures Limiter.
type Option func(*Limiter)

// WithWindow sets the sliding window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithCapacity sets the number of requests admitted per window.
func WithCapacity(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// Limiter is a sliding-window admission counter keyed by client.
// Each record holds the admitted timestamps still inside the window.
type Limiter struct {
	mu       sync.Mutex
	records  map[string][]time.Time
	window   time.Duration
	capacity int
	now      func() time.Time
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		records:  make(map[string][]time.Time),
		window:   DefaultWindow,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Admit prunes the client's expired timestamps and admits the request if
// fewer than capacity remain. Only admitted requests are recorded.
func (l *Limiter) Admit(clientID string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := prune(l.records[clientID], now.Add(-l.window))
	if len(ts) >= l.capacity {
		l.records[clientID] = ts
		return false
	}
	l.records[clientID] = append(ts, now)
	return true
}

// Sweep prunes every record and deletes the empty ones. It returns the number removed.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, ts := range l.records {
		ts = prune(ts, cutoff)
		if len(ts) == 0 {
			delete(l.records, id)
			removed++
			continue
		}
		l.records[id] = ts
	}
	return removed
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Start sweeps once per window until ctx is done.
func (l *Limiter) Start(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// prune drops timestamps at or before cutoff. ts is chronological.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	kept := make([]time.Time, len(ts)-i, cap(ts))
	copy(kept, ts[i:])
	return kept
}
