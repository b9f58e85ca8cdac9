package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"PlumbWatch/internal/domain/models"
	domrepo "PlumbWatch/internal/domain/repository"
	"PlumbWatch/internal/services/analytics"
	"PlumbWatch/internal/services/features"
	applogger "PlumbWatch/pkg/logger"
	"PlumbWatch/pkg/util"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultFreshness is how long a payload is served before a new cycle runs.
	DefaultFreshness = 30 * time.Second
	// payloadPoints is the history length embedded in MarketData and used for percentiles.
	payloadPoints = 30
	// backfillEntries is the number of daily observations requested at startup.
	backfillEntries = 90
	sinkTimeout     = 5 * time.Second
	// refreshTimeout bounds a shared cycle that no single caller owns.
	refreshTimeout = 30 * time.Second
)

// percentileSeries are the rates reported with percentile bands.
var percentileSeries = []models.Series{models.SOFR, models.EFFR}

type MonitorOption func(*MarketMonitor)

// WithDailySource sets the provider used for backfill and historical queries.
func WithDailySource(p domrepo.SeriesProvider) MonitorOption {
	return func(m *MarketMonitor) { m.daily = p }
}

// WithArchive sets the archive read by Historical when the daily source is silent.
func WithArchive(a domrepo.SnapshotArchive) MonitorOption {
	return func(m *MarketMonitor) { m.archive = a }
}

// WithSinks adds payload consumers.
func WithSinks(sinks ...domrepo.MarketDataSink) MonitorOption {
	return func(m *MarketMonitor) { m.sinks = append(m.sinks, sinks...) }
}

func WithFreshness(d time.Duration) MonitorOption {
	return func(m *MarketMonitor) {
		if d > 0 {
			m.freshness = d
		}
	}
}

func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *MarketMonitor) { m.now = now }
}

func WithMonitorLogger(l *applogger.Logger) MonitorOption {
	return func(m *MarketMonitor) { m.l = l }
}

func WithMonitorMetrics(mt domrepo.Metrics) MonitorOption {
	return func(m *MarketMonitor) { m.metrics = mt }
}

// MarketMonitor runs refresh cycles and serves projections of the latest payload.
type MarketMonitor struct {
	agg       *Aggregator
	history   domrepo.History
	fallback  Fallback
	daily     domrepo.SeriesProvider
	archive   domrepo.SnapshotArchive
	sinks     []domrepo.MarketDataSink
	freshness time.Duration
	now       func() time.Time
	l         *applogger.Logger
	metrics   domrepo.Metrics

	sf   singleflight.Group
	mu   sync.RWMutex
	last *models.MarketData
}

func NewMarketMonitor(agg *Aggregator, history domrepo.History, fallback Fallback, opts ...MonitorOption) *MarketMonitor {
	m := &MarketMonitor{
		agg:       agg,
		history:   history,
		fallback:  fallback,
		freshness: DefaultFreshness,
		now:       time.Now,
		l:         applogger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Refresh runs one cycle: snapshot, spreads, history, percentiles, stress.
// The payload is then handed to every sink; sink failures are logged only.
func (m *MarketMonitor) Refresh(ctx context.Context) (*models.MarketData, error) {
	start := time.Now()
	snap, err := m.agg.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	spreads := analytics.ComputeSpreads(snap)
	m.history.Append(models.HistoryEntry{
		Date:     util.DayKey(snap.Timestamp),
		Snapshot: snap,
		Spreads:  spreads.Values,
	})

	percentiles := make(map[models.Series]map[string]float64, len(percentileSeries))
	for _, s := range percentileSeries {
		if p := features.Percentiles(features.Tail(m.history.Series(s), payloadPoints)); p != nil {
			percentiles[s] = p
		}
	}

	stress := analytics.ScoreStress(snap, spreads, m.history)
	window := m.history.Window()
	if len(window) > payloadPoints {
		window = window[len(window)-payloadPoints:]
	}

	data := &models.MarketData{
		Snapshot:   snap,
		CycleID:    uuid.NewString(),
		Current:    models.NewCurrentData(snap, spreads, percentiles),
		Historical: models.Points(window),
		Stress:     stress,
		DataSource: snap.Provenance,
	}

	m.mu.Lock()
	m.last = data
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordStress(stress.Score, map[string]float64{
			"repo":       stress.Components.Repo,
			"credit":     stress.Components.Credit,
			"fx":         stress.Components.FX,
			"volatility": stress.Components.Volatility,
		})
		m.metrics.RecordLatency("refresh", time.Since(start).Seconds())
	}
	m.l.Info("refresh cycle complete",
		applogger.String("cycle_id", data.CycleID),
		applogger.Int("score", stress.Score),
		applogger.String("level", string(stress.Level)),
		applogger.String("data_source", string(data.DataSource)),
		applogger.Int("history", m.history.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)

	m.notify(ctx, data)
	return data, nil
}

func (m *MarketMonitor) notify(ctx context.Context, data *models.MarketData) {
	if len(m.sinks) == 0 {
		return
	}
	// sinks outlive a disconnected caller
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	var g errgroup.Group
	for _, sink := range m.sinks {
		g.Go(func() error {
			if err := sink.Consume(sctx, data); err != nil {
				m.l.Warn("sink failed",
					applogger.String("sink", sink.Name()),
					applogger.String("cycle_id", data.CycleID),
					applogger.Error(err),
				)
				if m.metrics != nil {
					m.metrics.RecordError("sink_" + sink.Name())
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Last returns the latest payload or nil.
func (m *MarketMonitor) Last() *models.MarketData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Current returns the latest payload, running a cycle when it is older than
// the freshness window. Concurrent callers share one cycle.
func (m *MarketMonitor) Current(ctx context.Context) (*models.MarketData, error) {
	if last := m.Last(); last != nil && m.now().Sub(last.Snapshot.Timestamp) < m.freshness {
		return last, nil
	}
	return m.refreshShared(ctx)
}

// refreshShared joins the in-flight cycle or starts one. The cycle is detached
// from ctx, so a caller that goes away only stops waiting for it.
func (m *MarketMonitor) refreshShared(ctx context.Context) (*models.MarketData, error) {
	ch := m.sf.DoChan("refresh", func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return m.Refresh(rctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.MarketData), nil
	}
}

// Backfill seeds the history window from the daily source, or from the
// fallback when the source returns nothing. It returns the entries added.
func (m *MarketMonitor) Backfill(ctx context.Context) int {
	entries := m.fetchDaily(ctx, backfillEntries)
	source := "daily"
	if len(entries) == 0 {
		entries = m.withSpreads(m.fallbackHistory(payloadPoints))
		source = "baseline"
	}
	for _, e := range entries {
		m.history.Append(e)
	}
	m.l.Info("history backfilled",
		applogger.String("source", source),
		applogger.Int("entries", len(entries)),
		applogger.Int("window", m.history.Len()),
	)
	return len(entries)
}

// Historical returns up to days daily points, trying the daily source, then the
// archive, then the fallback.
func (m *MarketMonitor) Historical(ctx context.Context, days int) (*models.HistoricalData, error) {
	if days <= 0 {
		days = models.DefaultHistoryDays
	}

	out := &models.HistoricalData{RequestedDays: days}

	count := days * 2
	if days > 365 {
		count = days * 3 / 2
	}
	entries := m.fetchDaily(ctx, count)
	if len(entries) > 0 {
		entries = lastEntries(entries, days)
		out.DataSource = models.ProvenanceReal
	}

	if len(entries) == 0 && m.archive != nil {
		to := m.now()
		archived, err := m.archive.Range(ctx, to.AddDate(0, 0, -days), to)
		if err != nil {
			m.l.Warn("archive range failed", applogger.Int("days", days), applogger.Error(err))
		}
		if len(archived) > 0 {
			entries = lastEntries(m.withSpreads(archived), days)
			out.DataSource = entriesProvenance(entries)
		}
	}

	if len(entries) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("historical: %w", err)
		}
		entries = m.withSpreads(m.fallbackHistory(days))
		out.DataSource = models.ProvenanceMock
	}

	out.Historical = models.Points(entries)
	out.Count = len(out.Historical)
	return out, nil
}

// MarketData returns the payload with the regional money-market view.
func (m *MarketMonitor) MarketData(ctx context.Context, region models.Region) (*models.MarketData, error) {
	data, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return data.ForRegion(region), nil
}

func (m *MarketMonitor) RepoRates(ctx context.Context) (*models.RepoRatesView, error) {
	data, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &models.RepoRatesView{
		Rates:      data.Snapshot.Values(models.RepoSeries),
		Timestamp:  data.Snapshot.Timestamp,
		DataSource: data.DataSource,
	}, nil
}

var (
	scarcitySpreads = []string{models.SpreadEFFRIORB, models.SpreadSOFRIORB, models.SpreadSOFREFFR}
	scarcityRates   = []models.Series{models.EFFR, models.IORB, models.SOFR, models.OBFR}
	facilityRates   = []models.Series{models.ONRRP, models.IORB}
)

func (m *MarketMonitor) ReserveScarcity(ctx context.Context) (*models.ReserveScarcityView, error) {
	data, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	sub := currentSpreads(data).Subset(scarcitySpreads...)
	return &models.ReserveScarcityView{
		Spreads:     sub.Values,
		Statuses:    sub.Statuses,
		Rates:       data.Snapshot.Values(scarcityRates),
		Percentiles: data.Current.Percentiles,
		Timestamp:   data.Snapshot.Timestamp,
		DataSource:  data.DataSource,
	}, nil
}

func (m *MarketMonitor) FedFacilities(ctx context.Context) (*models.FacilitiesView, error) {
	data, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &models.FacilitiesView{
		Facilities: data.Snapshot.Values(models.FacilitySeries),
		Rates:      data.Snapshot.Values(facilityRates),
		Timestamp:  data.Snapshot.Timestamp,
		DataSource: data.DataSource,
	}, nil
}

func (m *MarketMonitor) MoneyMarketSpreads(ctx context.Context) (*models.SpreadsView, error) {
	data, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &models.SpreadsView{
		Spreads:    data.Current.Spreads,
		Statuses:   data.Current.Statuses,
		Timestamp:  data.Snapshot.Timestamp,
		DataSource: data.DataSource,
	}, nil
}

func (m *MarketMonitor) StressIndicators(ctx context.Context) (*models.StressView, error) {
	data, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &models.StressView{StressResult: data.Stress, DataSource: data.DataSource}, nil
}

// fetchDaily merges the daily source's series by date, oldest first.
func (m *MarketMonitor) fetchDaily(ctx context.Context, count int) []models.HistoryEntry {
	if m.daily == nil || !m.daily.Configured() {
		return nil
	}

	var mu sync.Mutex
	byDate := make(map[string]*models.RateSnapshot)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, s := range models.AllSeries() {
		if !m.daily.Supports(s) {
			continue
		}
		g.Go(func() error {
			obs := m.daily.FetchSeries(gctx, s, count)
			mu.Lock()
			defer mu.Unlock()
			for _, o := range obs {
				key := util.DayKey(o.Date)
				snap, ok := byDate[key]
				if !ok {
					fresh := models.NewRateSnapshot(util.StartOfDay(o.Date))
					fresh.Provenance = models.ProvenanceReal
					snap = &fresh
					byDate[key] = snap
				}
				snap.Set(s, models.Float(o.Value), m.daily.Name())
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(byDate) == 0 {
		return nil
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]models.HistoryEntry, 0, len(dates))
	for _, d := range dates {
		snap := *byDate[d]
		out = append(out, models.HistoryEntry{
			Date:     d,
			Snapshot: snap,
			Spreads:  analytics.ComputeSpreads(snap).Values,
		})
	}
	return out
}

func (m *MarketMonitor) fallbackHistory(days int) []models.HistoryEntry {
	if m.fallback == nil {
		return nil
	}
	return m.fallback.History(days)
}

// withSpreads fills entries that carry no spreads.
func (m *MarketMonitor) withSpreads(entries []models.HistoryEntry) []models.HistoryEntry {
	for i := range entries {
		if entries[i].Spreads == nil {
			entries[i].Spreads = analytics.ComputeSpreads(entries[i].Snapshot).Values
		}
	}
	return entries
}

func currentSpreads(data *models.MarketData) models.Spreads {
	return models.Spreads{Values: data.Current.Spreads, Statuses: data.Current.Statuses}
}

func lastEntries(entries []models.HistoryEntry, n int) []models.HistoryEntry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

func entriesProvenance(entries []models.HistoryEntry) models.Provenance {
	nReal, nMock := 0, 0
	for _, e := range entries {
		switch e.Snapshot.Provenance {
		case models.ProvenanceReal:
			nReal++
		case models.ProvenanceMock:
			nMock++
		}
	}
	switch {
	case nReal == len(entries):
		return models.ProvenanceReal
	case nMock == len(entries):
		return models.ProvenanceMock
	default:
		return models.ProvenanceHybrid
	}
}
