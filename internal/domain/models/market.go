package models

import (
	"encoding/json"
	"time"

	"PlumbWatch/pkg/util"
)

// Region selects the money-market view of /api/market-data.
type Region string

const (
	RegionUS   Region = "US"
	RegionEMEA Region = "EMEA"
	RegionAll  Region = "ALL"
)

// HistoryEntry is the daily record kept by the history store.
type HistoryEntry struct {
	Date     string              `json:"date"`
	Snapshot RateSnapshot        `json:"snapshot"`
	Spreads  map[string]*float64 `json:"spreads"`
}

// Point flattens the entry for charting.
func (e HistoryEntry) Point() HistoricalPoint {
	values := make(map[string]*float64, len(AllSeries())+len(e.Spreads))
	for _, s := range AllSeries() {
		values[string(s)] = e.Snapshot.Value(s)
	}
	for name, v := range e.Spreads {
		values[name] = copyFloat(v)
	}
	return HistoricalPoint{Date: e.Date, Values: values}
}

// HistoricalPoint is one dated row: {"date": ..., "<series>": value|null, ...}.
type HistoricalPoint struct {
	Date   string
	Values map[string]*float64
}

func (p HistoricalPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Values)+1)
	for k, v := range p.Values {
		out[k] = v
	}
	out["date"] = p.Date
	return json.Marshal(out)
}

// Points converts entries in order.
func Points(entries []HistoryEntry) []HistoricalPoint {
	out := make([]HistoricalPoint, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Point())
	}
	return out
}

// CurrentData is the grouped display view of the latest snapshot.
type CurrentData struct {
	Rates       map[Series]*float64           `json:"rates"`
	Repo        map[Series]*float64           `json:"repo"`
	MoneyMarket map[Series]*float64           `json:"moneyMarket"`
	FX          map[Series]*float64           `json:"fx"`
	Facilities  map[Series]*float64           `json:"facilities"`
	Spreads     map[string]*float64           `json:"spreads"`
	Statuses    map[string]string             `json:"statuses"`
	Percentiles map[Series]map[string]float64 `json:"percentiles,omitempty"`
	Sources     map[Series]Source             `json:"sources"`
	Timestamp   time.Time                     `json:"timestamp"`
}

// NewCurrentData groups a snapshot and its derived values.
func NewCurrentData(snap RateSnapshot, spreads Spreads, percentiles map[Series]map[string]float64) CurrentData {
	mm := make([]Series, 0, len(USMoneyMarket)+len(EMEAMoneyMarket))
	mm = append(mm, USMoneyMarket...)
	mm = append(mm, EMEAMoneyMarket...)

	return CurrentData{
		Rates:       snap.Values(RateSeries),
		Repo:        snap.Values(RepoSeries),
		MoneyMarket: snap.Values(mm),
		FX:          snap.Values(FXPairs),
		Facilities:  snap.Values(FacilitySeries),
		Spreads:     spreads.Values,
		Statuses:    spreads.Statuses,
		Percentiles: percentiles,
		Sources:     snap.Sources,
		Timestamp:   snap.Timestamp,
	}
}

// ForRegion narrows the money-market group. Every other group is kept whole.
func (c CurrentData) ForRegion(r Region) CurrentData {
	var keep []Series
	switch r {
	case RegionUS:
		keep = USMoneyMarket
	case RegionEMEA:
		keep = EMEAMoneyMarket
	default:
		return c
	}

	out := c
	out.MoneyMarket = make(map[Series]*float64, len(keep))
	for _, s := range keep {
		out.MoneyMarket[s] = c.MoneyMarket[s]
	}
	return out
}

// MarketData is the full payload of one refresh cycle.
type MarketData struct {
	// Snapshot is the raw record behind Current, kept for sinks.
	Snapshot   RateSnapshot      `json:"-"`
	CycleID    string            `json:"cycleId"`
	Current    CurrentData       `json:"current"`
	Historical []HistoricalPoint `json:"historical"`
	Stress     StressResult      `json:"stress"`
	DataSource Provenance        `json:"dataSource"`
}

// Entry returns the daily history record of the payload.
func (m *MarketData) Entry() HistoryEntry {
	spreads := make(map[string]*float64, len(m.Current.Spreads))
	for k, v := range m.Current.Spreads {
		spreads[k] = copyFloat(v)
	}
	return HistoryEntry{
		Date:     util.DayKey(m.Snapshot.Timestamp),
		Snapshot: m.Snapshot.Clone(),
		Spreads:  spreads,
	}
}

// ForRegion returns a copy with the regional money-market view.
func (m *MarketData) ForRegion(r Region) *MarketData {
	out := *m
	out.Current = m.Current.ForRegion(r)
	return &out
}

// HistoricalData answers /api/historical-data.
type HistoricalData struct {
	Historical    []HistoricalPoint `json:"historical"`
	Count         int               `json:"count"`
	RequestedDays int               `json:"requestedDays"`
	DataSource    Provenance        `json:"dataSource"`
}

// RepoRatesView answers /api/repo-rates.
type RepoRatesView struct {
	Rates      map[Series]*float64 `json:"rates"`
	Timestamp  time.Time           `json:"timestamp"`
	DataSource Provenance          `json:"dataSource"`
}

// ReserveScarcityView answers /api/reserve-scarcity.
type ReserveScarcityView struct {
	Spreads     map[string]*float64           `json:"spreads"`
	Statuses    map[string]string             `json:"statuses"`
	Rates       map[Series]*float64           `json:"rates"`
	Percentiles map[Series]map[string]float64 `json:"percentiles,omitempty"`
	Timestamp   time.Time                     `json:"timestamp"`
	DataSource  Provenance                    `json:"dataSource"`
}

// FacilitiesView answers /api/fed-facilities.
type FacilitiesView struct {
	Facilities map[Series]*float64 `json:"facilities"`
	Rates      map[Series]*float64 `json:"rates"`
	Timestamp  time.Time           `json:"timestamp"`
	DataSource Provenance          `json:"dataSource"`
}

// SpreadsView answers /api/money-market-spreads.
type SpreadsView struct {
	Spreads    map[string]*float64 `json:"spreads"`
	Statuses   map[string]string   `json:"statuses"`
	Timestamp  time.Time           `json:"timestamp"`
	DataSource Provenance          `json:"dataSource"`
}

// StressView answers /api/stress-indicators.
type StressView struct {
	StressResult
	DataSource Provenance `json:"dataSource"`
}

// Health answers /api/health.
type Health struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
