package models

import "time"

// Series names a rate, FX pair, or facility indicator carried by a RateSnapshot.
type Series string

const (
	SOFR     Series = "SOFR"
	EFFR     Series = "EFFR"
	IORB     Series = "IORB"
	OBFR     Series = "OBFR"
	TGCR     Series = "TGCR"
	BGCR     Series = "BGCR"
	GCF      Series = "GCF"
	ONRRP    Series = "O/N-RRP"
	AMERIBOR Series = "AMERIBOR"
	CP3M     Series = "CP-3M"
	TBill3M  Series = "TBILL-3M"
	EURIBOR  Series = "EURIBOR"
	SONIA    Series = "SONIA"

	EURUSD Series = "EUR/USD"
	GBPUSD Series = "GBP/USD"
	USDJPY Series = "USD/JPY"
	USDCHF Series = "USD/CHF"

	ONRRPVolume     Series = "O/N-RRP-Volume"
	ForeignRepoPool Series = "Foreign-Repo-Pool"
	SRFVolume       Series = "SRF-Volume"
)

var (
	// RateSeries are interest rates in percent.
	RateSeries = []Series{SOFR, EFFR, IORB, OBFR, TGCR, BGCR, GCF, ONRRP, AMERIBOR, CP3M, TBill3M, EURIBOR, SONIA}
	// FXPairs are spot quotes.
	FXPairs = []Series{EURUSD, GBPUSD, USDJPY, USDCHF}
	// FacilitySeries are central bank facility balances in billions USD.
	FacilitySeries = []Series{ONRRPVolume, ForeignRepoPool, SRFVolume}

	// RepoSeries is the repo-rate projection.
	RepoSeries = []Series{SOFR, BGCR, TGCR, GCF, ONRRP}
	// USMoneyMarket and EMEAMoneyMarket split the money-market view by region.
	USMoneyMarket   = []Series{SOFR, EFFR, OBFR, IORB}
	EMEAMoneyMarket = []Series{EURIBOR, SONIA}
)

// AllSeries returns every recognised series in display order.
func AllSeries() []Series {
	out := make([]Series, 0, len(RateSeries)+len(FXPairs)+len(FacilitySeries))
	out = append(out, RateSeries...)
	out = append(out, FXPairs...)
	out = append(out, FacilitySeries...)
	return out
}

// Observation is one dated value of a series.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
