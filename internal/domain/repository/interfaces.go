package repository

import (
	"context"
	"time"

	"PlumbWatch/internal/domain/models"
)

// SeriesProvider is an upstream data source. Failures are reported as nil,
// never as errors: callers treat nil as "unavailable".
type SeriesProvider interface {
	Name() models.Source
	Supports(series models.Series) bool
	// Configured reports whether the provider can be queried at all (keys present).
	Configured() bool
	// FetchSeries returns up to count observations in chronological order, or nil.
	FetchSeries(ctx context.Context, series models.Series, count int) []models.Observation
	// FetchLatest returns the most recent value, or nil.
	FetchLatest(ctx context.Context, series models.Series) *float64
}

// History is the bounded daily window the analytics read from.
type History interface {
	Append(entry models.HistoryEntry)
	Window() []models.HistoryEntry
	Series(name models.Series) []float64
	Len() int
}

// MarketDataSink receives every refreshed payload.
type MarketDataSink interface {
	Name() string
	Consume(ctx context.Context, data *models.MarketData) error
}

// SnapshotArchive persists daily entries beyond the in-memory window.
type SnapshotArchive interface {
	MarketDataSink
	Range(ctx context.Context, from, to time.Time) ([]models.HistoryEntry, error)
	Health(ctx context.Context) error
}

// HealthChecker is implemented by optional infrastructure reported on /api/health.
type HealthChecker interface {
	Name() string
	Health(ctx context.Context) error
}

type Metrics interface {
	RecordProviderFetch(provider, result string, seconds float64)
	RecordCacheLookup(cache string, hit bool)
	RecordStress(score int, components map[string]float64)
	RecordProvenance(provenance string)
	RecordRateLimited()
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
