package analytics

import (
	"math"

	"PlumbWatch/internal/domain/models"
	"PlumbWatch/internal/services/features"

	"github.com/shopspring/decimal"
)

// Component ceilings and multipliers.
const (
	repoCap        = 25.0
	repoMultiplier = 50.0

	creditCap           = 35.0
	interbankCap        = 20.0
	interbankMultiplier = 0.4
	termCreditCap       = 15.0
	termMultiplier      = 0.15

	fxCap        = 20.0
	fxMultiplier = 10.0
	fxLookback   = 30

	volatilityCap        = 20.0
	volatilityMultiplier = 5.0

	zScoreMinPoints = 10
)

// SeriesSource exposes chronological history per series.
type SeriesSource interface {
	Series(name models.Series) []float64
}

// ScoreStress combines the repo, credit, FX and volatility components into one
// score in [0, 100]. Missing inputs contribute zero.
func ScoreStress(snap models.RateSnapshot, spreads models.Spreads, history SeriesSource) models.StressResult {
	repo := analyzeRepo(snap)
	credit := analyzeCredit(spreads)
	fx := analyzeFX(snap, history)

	var comp models.StressComponents
	if repo.Spread != nil {
		comp.Repo = math.Min(repoCap, *repo.Spread*repoMultiplier)
	}
	comp.Credit = creditComponent(spreads)
	if fx.AverageVolatility != nil {
		comp.FX = math.Min(fxCap, *fx.AverageVolatility*fxMultiplier)
	}

	var sofrVol float64
	if history != nil {
		sofrVol = features.Volatility(history.Series(models.SOFR), features.DefaultVolatilityWindow)
	}
	comp.Volatility = math.Min(volatilityCap, sofrVol*volatilityMultiplier)

	total := clamp(comp.Sum(), 0, 100)
	score := int(math.Round(total))

	return models.StressResult{
		Score: score,
		Level: LevelFor(total),
		Components: models.StressComponents{
			Repo:       round2(comp.Repo),
			Credit:     round2(comp.Credit),
			FX:         round2(comp.FX),
			Volatility: round2(comp.Volatility),
		},
		Spreads:    spreads.Values,
		Repo:       repo,
		Credit:     credit,
		FX:         fx,
		ZScores:    zScores(snap, history),
		Volatility: round2(sofrVol),
		Timestamp:  snap.Timestamp,
	}
}

// LevelFor maps an unrounded total to critical (>70), high (>50), medium (>30) or low.
func LevelFor(score float64) models.StressLevel {
	switch {
	case score > 70:
		return models.StressCritical
	case score > 50:
		return models.StressHigh
	case score > 30:
		return models.StressMedium
	default:
		return models.StressLow
	}
}

// analyzeRepo reads the GC repo rate against SOFR in percentage points.
func analyzeRepo(snap models.RateSnapshot) models.RepoAnalysis {
	out := models.RepoAnalysis{StressLevel: models.StressLow}
	gcf, sofr := snap.Value(models.GCF), snap.Value(models.SOFR)
	if gcf == nil || sofr == nil {
		return out
	}

	spread := math.Abs(*gcf - *sofr)
	out.Spread = models.Float(round4(spread))
	switch {
	case spread > 0.5:
		out.StressLevel = models.StressHigh
	case spread > 0.25:
		out.StressLevel = models.StressMedium
	}
	return out
}

func creditComponent(spreads models.Spreads) float64 {
	var total float64
	if v := spreads.Value(models.SpreadAmeriborEFFR); v != nil {
		total += clamp(*v*interbankMultiplier, 0, interbankCap)
	}
	if v := spreads.Value(models.SpreadCPTBill); v != nil {
		total += clamp(*v*termMultiplier, 0, termCreditCap)
	}
	return math.Min(creditCap, total)
}

var creditBands = map[string][3]float64{
	models.SpreadAmeriborEFFR: {50, 30, 15},
	models.SpreadCPTBill:      {100, 50, 25},
}

func analyzeCredit(spreads models.Spreads) models.CreditAnalysis {
	out := models.CreditAnalysis{
		Spreads: make(map[string]*float64, len(creditBands)),
		Levels:  make(map[string]models.StressLevel, len(creditBands)),
		Overall: models.StressLow,
	}
	for name, bands := range creditBands {
		v := spreads.Value(name)
		out.Spreads[name] = v
		if v == nil {
			continue
		}
		lvl := models.StressLow
		switch {
		case *v > bands[0]:
			lvl = models.StressCritical
		case *v > bands[1]:
			lvl = models.StressHigh
		case *v > bands[2]:
			lvl = models.StressMedium
		}
		out.Levels[name] = lvl
		if severity(lvl) > severity(out.Overall) {
			out.Overall = lvl
		}
	}
	return out
}

// analyzeFX covers pairs with a current quote and some history.
func analyzeFX(snap models.RateSnapshot, history SeriesSource) models.FXAnalysis {
	out := models.FXAnalysis{Pairs: make(map[models.Series]models.FXPairAnalysis)}
	if history == nil {
		return out
	}

	var sum float64
	for _, pair := range models.FXPairs {
		if snap.Value(pair) == nil {
			continue
		}
		series := history.Series(pair)
		if len(series) == 0 {
			continue
		}
		vol := features.Volatility(features.Tail(series, fxLookback), features.DefaultVolatilityWindow)
		lvl := models.StressLow
		switch {
		case vol > 2.0:
			lvl = models.StressHigh
		case vol > 1.0:
			lvl = models.StressMedium
		}
		out.Pairs[pair] = models.FXPairAnalysis{Volatility: round4(vol), StressLevel: lvl}
		sum += vol
	}
	if len(out.Pairs) > 0 {
		out.AverageVolatility = models.Float(sum / float64(len(out.Pairs)))
	}
	return out
}

func zScores(snap models.RateSnapshot, history SeriesSource) map[models.Series]float64 {
	if history == nil {
		return nil
	}
	out := make(map[models.Series]float64)
	for _, s := range []models.Series{models.SOFR, models.EFFR} {
		cur := snap.Value(s)
		if cur == nil {
			continue
		}
		if z, ok := features.ZScore(*cur, history.Series(s), zScoreMinPoints); ok {
			out[s] = round4(z)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func severity(l models.StressLevel) int {
	switch l {
	case models.StressCritical:
		return 3
	case models.StressHigh:
		return 2
	case models.StressMedium:
		return 1
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}
