package models

import "time"

// Provenance tells where a snapshot's values came from as a whole.
type Provenance string

const (
	ProvenanceReal   Provenance = "real"
	ProvenanceHybrid Provenance = "hybrid"
	ProvenanceMock   Provenance = "mock"
)

// Source identifies the provider that filled one snapshot field.
type Source string

const (
	SourceNYFed    Source = "nyfed"
	SourceFRED     Source = "fred"
	SourceFXRates  Source = "fxrates"
	SourceBaseline Source = "baseline"
)

// RateSnapshot holds one value per recognised series for a single fetch cycle.
// A nil field means the value is unavailable. Snapshots are built once and then
// only read; use With to derive a modified copy.
type RateSnapshot struct {
	SOFR     *float64 `json:"SOFR"`
	EFFR     *float64 `json:"EFFR"`
	IORB     *float64 `json:"IORB"`
	OBFR     *float64 `json:"OBFR"`
	TGCR     *float64 `json:"TGCR"`
	BGCR     *float64 `json:"BGCR"`
	GCF      *float64 `json:"GCF"`
	ONRRP    *float64 `json:"O/N-RRP"`
	AMERIBOR *float64 `json:"AMERIBOR"`
	CP3M     *float64 `json:"CP-3M"`
	TBill3M  *float64 `json:"TBILL-3M"`
	EURIBOR  *float64 `json:"EURIBOR"`
	SONIA    *float64 `json:"SONIA"`

	EURUSD *float64 `json:"EUR/USD"`
	GBPUSD *float64 `json:"GBP/USD"`
	USDJPY *float64 `json:"USD/JPY"`
	USDCHF *float64 `json:"USD/CHF"`

	ONRRPVolume     *float64 `json:"O/N-RRP-Volume"`
	ForeignRepoPool *float64 `json:"Foreign-Repo-Pool"`
	SRFVolume       *float64 `json:"SRF-Volume"`

	Timestamp  time.Time         `json:"timestamp"`
	Sources    map[Series]Source `json:"sources,omitempty"`
	Provenance Provenance        `json:"dataSource"`
}

// NewRateSnapshot returns an empty snapshot stamped at ts.
func NewRateSnapshot(ts time.Time) RateSnapshot {
	return RateSnapshot{
		Timestamp: ts,
		Sources:   make(map[Series]Source),
	}
}

func (s *RateSnapshot) slot(name Series) **float64 {
	switch name {
	case SOFR:
		return &s.SOFR
	case EFFR:
		return &s.EFFR
	case IORB:
		return &s.IORB
	case OBFR:
		return &s.OBFR
	case TGCR:
		return &s.TGCR
	case BGCR:
		return &s.BGCR
	case GCF:
		return &s.GCF
	case ONRRP:
		return &s.ONRRP
	case AMERIBOR:
		return &s.AMERIBOR
	case CP3M:
		return &s.CP3M
	case TBill3M:
		return &s.TBill3M
	case EURIBOR:
		return &s.EURIBOR
	case SONIA:
		return &s.SONIA
	case EURUSD:
		return &s.EURUSD
	case GBPUSD:
		return &s.GBPUSD
	case USDJPY:
		return &s.USDJPY
	case USDCHF:
		return &s.USDCHF
	case ONRRPVolume:
		return &s.ONRRPVolume
	case ForeignRepoPool:
		return &s.ForeignRepoPool
	case SRFVolume:
		return &s.SRFVolume
	}
	return nil
}

// Value returns a copy of the named field, or nil when absent or unknown.
func (s RateSnapshot) Value(name Series) *float64 {
	p := s.slot(name)
	if p == nil {
		return nil
	}
	return copyFloat(*p)
}

// Set fills one field while the snapshot is being assembled.
// Unknown series are dropped.
func (s *RateSnapshot) Set(name Series, v *float64, src Source) {
	p := s.slot(name)
	if p == nil {
		return
	}
	*p = copyFloat(v)
	if s.Sources == nil {
		s.Sources = make(map[Series]Source)
	}
	if v == nil {
		delete(s.Sources, name)
		return
	}
	s.Sources[name] = src
}

// With returns a copy of s with one field replaced.
func (s RateSnapshot) With(name Series, v *float64) RateSnapshot {
	out := s.Clone()
	src := s.Sources[name]
	out.Set(name, v, src)
	return out
}

// Clone returns a deep copy.
func (s RateSnapshot) Clone() RateSnapshot {
	out := s
	out.Sources = make(map[Series]Source, len(s.Sources))
	for k, v := range s.Sources {
		out.Sources[k] = v
	}
	for _, name := range AllSeries() {
		if p := out.slot(name); p != nil {
			*p = copyFloat(*p)
		}
	}
	return out
}

// Values projects the named series into a display map. Absent values stay nil.
func (s RateSnapshot) Values(names []Series) map[Series]*float64 {
	out := make(map[Series]*float64, len(names))
	for _, n := range names {
		out[n] = s.Value(n)
	}
	return out
}
