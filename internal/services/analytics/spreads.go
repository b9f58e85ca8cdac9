package analytics

import (
	"PlumbWatch/internal/domain/models"

	"github.com/shopspring/decimal"
)

// SpreadCatalog is the fixed set of monitored spreads in display order.
var SpreadCatalog = []models.SpreadDefinition{
	{Name: models.SpreadEFFRIORB, Minuend: models.EFFR, Subtrahend: models.IORB, Classify: classifyReserveScarcity},
	{Name: models.SpreadSOFRIORB, Minuend: models.SOFR, Subtrahend: models.IORB, Classify: classifySOFRIORB},
	{Name: models.SpreadSOFREFFR, Minuend: models.SOFR, Subtrahend: models.EFFR},
	{Name: models.SpreadTGCRRRP, Minuend: models.TGCR, Subtrahend: models.ONRRP, Classify: classifyTGCRRRP},
	{Name: models.SpreadGCFTGCR, Minuend: models.GCF, Subtrahend: models.TGCR, Classify: classifyDealerCapacity},
	{Name: models.SpreadAmeriborEFFR, Minuend: models.AMERIBOR, Subtrahend: models.EFFR, Classify: tiered(50, 30, 15)},
	{Name: models.SpreadCPTBill, Minuend: models.CP3M, Subtrahend: models.TBill3M, Classify: tiered(100, 50, 25)},
}

var (
	hundred   = decimal.NewFromInt(100)
	bpsPlaces = int32(4)
)

// SpreadBps returns (a - b) * 100 rounded to 4 places, or nil when a leg is absent.
// Decimal arithmetic keeps 4.46 - 4.50 at exactly -4.
func SpreadBps(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := decimal.NewFromFloat(*a).Sub(decimal.NewFromFloat(*b)).Mul(hundred).Round(bpsPlaces)
	return models.Float(v.InexactFloat64())
}

// ComputeSpreads evaluates the catalog against snap. Absent spreads get no status.
func ComputeSpreads(snap models.RateSnapshot) models.Spreads {
	out := models.Spreads{
		Values:   make(map[string]*float64, len(SpreadCatalog)),
		Statuses: make(map[string]string, len(SpreadCatalog)),
	}
	for _, def := range SpreadCatalog {
		v := SpreadBps(snap.Value(def.Minuend), snap.Value(def.Subtrahend))
		out.Values[def.Name] = v
		if v != nil && def.Classify != nil {
			out.Statuses[def.Name] = def.Classify(*v)
		}
	}
	return out
}

// SpreadNames lists the catalog names in order.
func SpreadNames() []string {
	out := make([]string, 0, len(SpreadCatalog))
	for _, def := range SpreadCatalog {
		out = append(out, def.Name)
	}
	return out
}

func classifyReserveScarcity(bps float64) string {
	switch {
	case bps > 0:
		return models.StatusScarcity
	case bps < -5:
		return models.StatusAbundance
	default:
		return models.StatusAmple
	}
}

func classifySOFRIORB(bps float64) string {
	if bps > 0 {
		return models.StatusBanksDeployingReserves
	}
	return models.StatusNormal
}

func classifyTGCRRRP(bps float64) string {
	if bps > 0 {
		return models.StatusExcessCollateral
	}
	return models.StatusExcessCash
}

func classifyDealerCapacity(bps float64) string {
	switch {
	case bps > 5:
		return models.StatusInflexible
	case bps > 2:
		return models.StatusConstrained
	default:
		return models.StatusFlexible
	}
}

// tiered labels credit spreads HIGH / ELEVATED / MODERATE / NORMAL.
func tiered(high, elevated, moderate float64) func(float64) string {
	return func(bps float64) string {
		switch {
		case bps > high:
			return models.StatusHigh
		case bps > elevated:
			return models.StatusElevated
		case bps > moderate:
			return models.StatusModerate
		default:
			return models.StatusNormal
		}
	}
}
