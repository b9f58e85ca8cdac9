package models

// Spread names, minuend first.
const (
	SpreadEFFRIORB     = "EFFR-IORB"
	SpreadSOFRIORB     = "SOFR-IORB"
	SpreadSOFREFFR     = "SOFR-EFFR"
	SpreadTGCRRRP      = "TGCR-RRP"
	SpreadGCFTGCR      = "GCF-TGCR"
	SpreadAmeriborEFFR = "AMERIBOR-EFFR"
	SpreadCPTBill      = "CP-TBILL"
)

// Spread status labels.
const (
	StatusScarcity  = "SCARCITY"
	StatusAmple     = "AMPLE"
	StatusAbundance = "ABUNDANCE"

	StatusBanksDeployingReserves = "BANKS-DEPLOYING-RESERVES"
	StatusNormal                 = "NORMAL"

	StatusExcessCollateral = "EXCESS-COLLATERAL"
	StatusExcessCash       = "EXCESS-CASH"

	StatusInflexible  = "INFLEXIBLE"
	StatusConstrained = "CONSTRAINED"
	StatusFlexible    = "FLEXIBLE"

	StatusHigh     = "HIGH"
	StatusElevated = "ELEVATED"
	StatusModerate = "MODERATE"
)

// SpreadDefinition pairs two series with the rule that labels their spread.
// Classify is nil for spreads without a status.
type SpreadDefinition struct {
	Name       string
	Minuend    Series
	Subtrahend Series
	Classify   func(bps float64) string
}

// Spreads holds the computed basis-point spreads and their status labels for one snapshot.
// A nil value means at least one leg was absent.
type Spreads struct {
	Values   map[string]*float64 `json:"values"`
	Statuses map[string]string   `json:"statuses"`
}

// Value returns the named spread or nil.
func (s Spreads) Value(name string) *float64 {
	return copyFloat(s.Values[name])
}

// Subset returns the named spreads and their statuses.
func (s Spreads) Subset(names ...string) Spreads {
	out := Spreads{
		Values:   make(map[string]*float64, len(names)),
		Statuses: make(map[string]string),
	}
	for _, n := range names {
		out.Values[n] = copyFloat(s.Values[n])
		if st, ok := s.Statuses[n]; ok {
			out.Statuses[n] = st
		}
	}
	return out
}
