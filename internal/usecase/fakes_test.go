package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"PlumbWatch/internal/domain/models"
)

type fakeProvider struct {
	name       models.Source
	configured bool
	latest     map[models.Series]float64
	silent     map[models.Series]bool
	series     map[models.Series][]models.Observation
	calls      int32

	// delay is slept on every FetchLatest
	delay   time.Duration
	// gate, when set, holds FetchLatest until closed; entered is signalled first
	gate    chan struct{}
	entered chan struct{}
}

func (p *fakeProvider) Name() models.Source { return p.name }
func (p *fakeProvider) Configured() bool    { return p.configured }

func (p *fakeProvider) Supports(s models.Series) bool {
	if _, ok := p.latest[s]; ok {
		return true
	}
	if _, ok := p.series[s]; ok {
		return true
	}
	return p.silent[s]
}

func (p *fakeProvider) FetchLatest(_ context.Context, s models.Series) *float64 {
	atomic.AddInt32(&p.calls, 1)
	if p.entered != nil {
		select {
		case p.entered <- struct{}{}:
		default:
		}
	}
	if p.gate != nil {
		<-p.gate
	}
	time.Sleep(p.delay)
	if v, ok := p.latest[s]; ok {
		return models.Float(v)
	}
	return nil
}

func (p *fakeProvider) FetchSeries(_ context.Context, s models.Series, count int) []models.Observation {
	atomic.AddInt32(&p.calls, 1)
	obs := p.series[s]
	if len(obs) > count {
		obs = obs[len(obs)-count:]
	}
	return obs
}

func (p *fakeProvider) Calls() int { return int(atomic.LoadInt32(&p.calls)) }

type recordingSink struct {
	name string
	err  error

	mu   sync.Mutex
	seen []*models.MarketData
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Consume(_ context.Context, data *models.MarketData) error {
	s.mu.Lock()
	s.seen = append(s.seen, data)
	s.mu.Unlock()
	return s.err
}

func (s *recordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

type fakeArchive struct {
	recordingSink
	entries []models.HistoryEntry
	err     error
}

func (a *fakeArchive) Range(_ context.Context, _, _ time.Time) ([]models.HistoryEntry, error) {
	return a.entries, a.err
}

func (a *fakeArchive) Health(context.Context) error { return nil }

var errSinkDown = errors.New("sink down")

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 1, 3, 15, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}
