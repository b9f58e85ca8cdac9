package analytics

import (
	"testing"
	"time"

	"PlumbWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory map[models.Series][]float64

func (h fakeHistory) Series(name models.Series) []float64 { return h[name] }

func snapshot(values map[models.Series]float64) models.RateSnapshot {
	snap := models.NewRateSnapshot(time.Date(2025, 1, 3, 14, 0, 0, 0, time.UTC))
	for s, v := range values {
		snap.Set(s, models.Float(v), models.SourceFRED)
	}
	return snap
}

func TestSpreadBpsIsExact(t *testing.T) {
	v := SpreadBps(models.Float(4.46), models.Float(4.50))
	require.NotNil(t, v)
	assert.Equal(t, -4.0, *v)

	assert.Nil(t, SpreadBps(nil, models.Float(4.5)))
	assert.Nil(t, SpreadBps(models.Float(4.5), nil))
}

func TestComputeSpreadsCatalog(t *testing.T) {
	snap := snapshot(map[models.Series]float64{
		models.EFFR:     4.33,
		models.IORB:     4.40,
		models.SOFR:     4.35,
		models.TGCR:     4.33,
		models.ONRRP:    4.25,
		models.GCF:      4.36,
		models.AMERIBOR: 4.50,
		models.CP3M:     4.60,
		models.TBill3M:  4.20,
	})

	got := ComputeSpreads(snap)

	want := map[string]float64{
		models.SpreadEFFRIORB:     -7,
		models.SpreadSOFRIORB:     -5,
		models.SpreadSOFREFFR:     2,
		models.SpreadTGCRRRP:      8,
		models.SpreadGCFTGCR:      3,
		models.SpreadAmeriborEFFR: 17,
		models.SpreadCPTBill:      40,
	}
	for name, v := range want {
		require.NotNil(t, got.Values[name], name)
		assert.Equal(t, v, *got.Values[name], name)
	}

	assert.Equal(t, map[string]string{
		models.SpreadEFFRIORB:     models.StatusAbundance,
		models.SpreadSOFRIORB:     models.StatusNormal,
		models.SpreadTGCRRRP:      models.StatusExcessCollateral,
		models.SpreadGCFTGCR:      models.StatusConstrained,
		models.SpreadAmeriborEFFR: models.StatusModerate,
		models.SpreadCPTBill:      models.StatusModerate,
	}, got.Statuses)
}

func TestComputeSpreadsAbsentLegs(t *testing.T) {
	snap := snapshot(map[models.Series]float64{models.EFFR: 4.33})
	got := ComputeSpreads(snap)

	assert.Len(t, got.Values, len(SpreadCatalog))
	for _, name := range SpreadNames() {
		assert.Nil(t, got.Values[name], name)
	}
	assert.Empty(t, got.Statuses)
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		spread string
		bps    float64
		want   string
	}{
		{models.SpreadEFFRIORB, 0.5, models.StatusScarcity},
		{models.SpreadEFFRIORB, 0, models.StatusAmple},
		{models.SpreadEFFRIORB, -5, models.StatusAmple},
		{models.SpreadEFFRIORB, -5.01, models.StatusAbundance},
		{models.SpreadSOFRIORB, 0.01, models.StatusBanksDeployingReserves},
		{models.SpreadSOFRIORB, 0, models.StatusNormal},
		{models.SpreadTGCRRRP, 0, models.StatusExcessCash},
		{models.SpreadGCFTGCR, 5.5, models.StatusInflexible},
		{models.SpreadGCFTGCR, 5, models.StatusConstrained},
		{models.SpreadGCFTGCR, 2, models.StatusFlexible},
		{models.SpreadAmeriborEFFR, 51, models.StatusHigh},
		{models.SpreadAmeriborEFFR, 31, models.StatusElevated},
		{models.SpreadAmeriborEFFR, 15, models.StatusNormal},
		{models.SpreadCPTBill, 101, models.StatusHigh},
		{models.SpreadCPTBill, 100, models.StatusElevated},
		{models.SpreadCPTBill, 26, models.StatusModerate},
		{models.SpreadCPTBill, 25, models.StatusNormal},
	}

	classify := map[string]func(float64) string{}
	for _, def := range SpreadCatalog {
		classify[def.Name] = def.Classify
	}
	for _, tt := range tests {
		fn := classify[tt.spread]
		require.NotNil(t, fn, tt.spread)
		assert.Equal(t, tt.want, fn(tt.bps), "%s at %v", tt.spread, tt.bps)
	}
}

func TestScoreStressEmptyInputsScoreZero(t *testing.T) {
	snap := models.NewRateSnapshot(time.Now())
	res := ScoreStress(snap, ComputeSpreads(snap), nil)

	assert.Equal(t, 0, res.Score)
	assert.Equal(t, models.StressLow, res.Level)
	assert.Equal(t, models.StressComponents{}, res.Components)
	assert.Nil(t, res.Repo.Spread)
	assert.Equal(t, models.StressLow, res.Credit.Overall)
	assert.Nil(t, res.FX.AverageVolatility)
	assert.Nil(t, res.ZScores)
}

func TestScoreStressComponentCaps(t *testing.T) {
	snap := snapshot(map[models.Series]float64{
		models.SOFR:     4.00,
		models.GCF:      5.00,
		models.EFFR:     4.00,
		models.AMERIBOR: 4.60,
		models.TBill3M:  4.00,
		models.CP3M:     6.00,
	})
	res := ScoreStress(snap, ComputeSpreads(snap), fakeHistory{})

	assert.Equal(t, 25.0, res.Components.Repo)
	assert.Equal(t, 35.0, res.Components.Credit)
	assert.Equal(t, 60, res.Score)
	assert.Equal(t, models.StressHigh, res.Level)

	require.NotNil(t, res.Repo.Spread)
	assert.Equal(t, 1.0, *res.Repo.Spread)
	assert.Equal(t, models.StressHigh, res.Repo.StressLevel)
	assert.Equal(t, models.StressCritical, res.Credit.Levels[models.SpreadAmeriborEFFR])
	assert.Equal(t, models.StressCritical, res.Credit.Levels[models.SpreadCPTBill])
	assert.Equal(t, models.StressCritical, res.Credit.Overall)
}

func TestScoreStressNegativeCreditSpreadContributesZero(t *testing.T) {
	snap := snapshot(map[models.Series]float64{
		models.EFFR:     4.33,
		models.AMERIBOR: 4.20,
		models.TBill3M:  4.20,
		models.CP3M:     4.30,
	})
	res := ScoreStress(snap, ComputeSpreads(snap), nil)

	// only CP-TBILL (10bps * 0.15) counts
	assert.InDelta(t, 1.5, res.Components.Credit, 1e-9)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, models.StressLow, res.Credit.Levels[models.SpreadAmeriborEFFR])
}

func TestScoreStressFXAndVolatility(t *testing.T) {
	snap := snapshot(map[models.Series]float64{
		models.EURUSD: 1.08,
		models.SOFR:   4.33,
	})
	hist := fakeHistory{
		models.EURUSD: {1, 1.1, 1, 1.1, 1, 1.1, 1},
		models.GBPUSD: {1.2, 1.3, 1.2, 1.3, 1.2, 1.3, 1.2}, // no current quote, ignored
		models.SOFR:   {4.33, 4.33, 4.33, 4.33, 4.33, 4.33, 4.33},
	}
	res := ScoreStress(snap, ComputeSpreads(snap), hist)

	require.Contains(t, res.FX.Pairs, models.EURUSD)
	assert.NotContains(t, res.FX.Pairs, models.GBPUSD)
	assert.Equal(t, models.StressHigh, res.FX.Pairs[models.EURUSD].StressLevel)
	assert.Equal(t, 20.0, res.Components.FX)
	assert.Zero(t, res.Components.Volatility)
	assert.Equal(t, 20, res.Score)
}

func TestScoreStressZScoresNeedTenPoints(t *testing.T) {
	snap := snapshot(map[models.Series]float64{
		models.SOFR: 4.40,
		models.EFFR: 4.33,
	})
	hist := fakeHistory{
		models.SOFR: {4.30, 4.31, 4.32, 4.33, 4.34, 4.35, 4.36, 4.37, 4.38, 4.39},
		models.EFFR: {4.33, 4.33, 4.33},
	}
	res := ScoreStress(snap, ComputeSpreads(snap), hist)

	require.Contains(t, res.ZScores, models.SOFR)
	assert.Greater(t, res.ZScores[models.SOFR], 1.0)
	assert.NotContains(t, res.ZScores, models.EFFR)
}

func TestScoreStressLevelUsesUnroundedTotal(t *testing.T) {
	snap := snapshot(map[models.Series]float64{
		models.GCF:      4.90,
		models.SOFR:     4.30,
		models.AMERIBOR: 4.465,
		models.EFFR:     4.33,
	})
	res := ScoreStress(snap, ComputeSpreads(snap), nil)

	// repo capped at 25, credit 13.5bps * 0.4 = 5.4
	assert.Equal(t, 25.0, res.Components.Repo)
	assert.InDelta(t, 5.4, res.Components.Credit, 1e-9)
	assert.Equal(t, 30, res.Score)
	assert.Equal(t, models.StressMedium, res.Level)
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  models.StressLevel
	}{
		{0, models.StressLow},
		{30, models.StressLow},
		{30.4, models.StressMedium},
		{31, models.StressMedium},
		{50.2, models.StressHigh},
		{70.5, models.StressCritical},
		{50, models.StressMedium},
		{51, models.StressHigh},
		{70, models.StressHigh},
		{71, models.StressCritical},
		{100, models.StressCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %v", tt.score)
	}
}
