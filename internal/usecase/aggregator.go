package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PlumbWatch/internal/domain/models"
	domrepo "PlumbWatch/internal/domain/repository"
	applogger "PlumbWatch/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches bounds the fan-out of one snapshot.
const maxConcurrentFetches = 16

// Fallback supplies values when every provider is silent.
type Fallback interface {
	Snapshot() models.RateSnapshot
	History(days int) []models.HistoryEntry
}

type AggregatorOption func(*Aggregator)

func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

func WithAggregatorLogger(l *applogger.Logger) AggregatorOption {
	return func(a *Aggregator) { a.l = l }
}

func WithAggregatorMetrics(m domrepo.Metrics) AggregatorOption {
	return func(a *Aggregator) { a.metrics = m }
}

// Aggregator builds one RateSnapshot per cycle from every provider.
// Providers are listed in priority order: for each series the first provider
// with a value wins, and the fallback fills whatever is left.
type Aggregator struct {
	providers []domrepo.SeriesProvider
	fallback  Fallback
	now       func() time.Time
	l         *applogger.Logger
	metrics   domrepo.Metrics
}

func NewAggregator(providers []domrepo.SeriesProvider, fallback Fallback, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		providers: providers,
		fallback:  fallback,
		now:       time.Now,
		l:         applogger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Providers returns the providers in priority order.
func (a *Aggregator) Providers() []domrepo.SeriesProvider { return a.providers }

// FetchSnapshot queries every (provider, series) pair concurrently and resolves
// each field by priority. It fails only when ctx is done.
func (a *Aggregator) FetchSnapshot(ctx context.Context) (models.RateSnapshot, error) {
	start := time.Now()
	series := models.AllSeries()

	// results[s][i] is provider i's value for s
	var mu sync.Mutex
	results := make(map[models.Series][]*float64, len(series))
	for _, s := range series {
		results[s] = make([]*float64, len(a.providers))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, p := range a.providers {
		if !p.Configured() {
			continue
		}
		for _, s := range series {
			if !p.Supports(s) {
				continue
			}
			g.Go(func() error {
				v := p.FetchLatest(gctx, s)
				mu.Lock()
				results[s][i] = v
				mu.Unlock()
				// a failed provider never cancels its siblings
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return models.RateSnapshot{}, fmt.Errorf("fetch snapshot: %w", err)
	}

	snap := models.NewRateSnapshot(a.now())
	var fb *models.RateSnapshot
	fromProviders := 0
	for _, s := range series {
		if i, v := firstValue(results[s]); v != nil {
			snap.Set(s, v, a.providers[i].Name())
			fromProviders++
			continue
		}
		if a.fallback == nil {
			continue
		}
		if fb == nil {
			b := a.fallback.Snapshot()
			fb = &b
		}
		snap.Set(s, fb.Value(s), models.SourceBaseline)
	}
	snap.Provenance = provenanceOf(fromProviders, len(series))

	if a.metrics != nil {
		a.metrics.RecordProvenance(string(snap.Provenance))
		a.metrics.RecordLatency("fetch_snapshot", time.Since(start).Seconds())
	}
	a.l.Debug("snapshot assembled",
		applogger.String("provenance", string(snap.Provenance)),
		applogger.Int("from_providers", fromProviders),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return snap, nil
}

func firstValue(vals []*float64) (int, *float64) {
	for i, v := range vals {
		if v != nil {
			return i, v
		}
	}
	return -1, nil
}

func provenanceOf(fromProviders, total int) models.Provenance {
	switch {
	case fromProviders == 0:
		return models.ProvenanceMock
	case fromProviders == total:
		return models.ProvenanceReal
	default:
		return models.ProvenanceHybrid
	}
}
