package baseline

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"PlumbWatch/internal/domain/models"
	"PlumbWatch/pkg/util"
)

// Anchor values. Every generated rate is derived from IORB so that the
// spread catalog stays inside its normal bands.
const (
	IORB    = 4.40
	TBill3M = 4.20
	EURIBOR = 2.05
	SONIA   = 4.00

	EURUSD = 1.08
	GBPUSD = 1.26
	USDJPY = 149.5
	USDCHF = 0.88

	ONRRPVolume     = 250.0
	ForeignRepoPool = 340.0
	SRFVolume       = 0.0

	// rateJitter bounds the per-value noise, in percentage points.
	rateJitter = 0.005
	// fxJitter bounds the relative per-value noise of FX quotes.
	fxJitter = 0.002
	// maxDrift bounds the daily random walk of History.
	maxDrift = 0.25
)

type Option func(*Generator)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// Generator produces plausible values when no provider answers.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func New(seed uint64, opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot returns a fully populated snapshot with provenance mock.
func (g *Generator) Snapshot() models.RateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotAt(g.now(), 0, 1)
}

// History returns days daily entries ending today, oldest first.
// Rates follow a bounded random walk; entries carry no spreads.
func (g *Generator) History(days int) []models.HistoryEntry {
	if days <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	today := util.StartOfDay(g.now())
	drift, fx := 0.0, 1.0
	out := make([]models.HistoryEntry, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		drift = clamp(drift+g.noise(0.01), -maxDrift, maxDrift)
		fx = clamp(fx*(1+g.noise(0.003)), 0.9, 1.1)

		snap := g.snapshotAt(day, drift, fx)
		out = append(out, models.HistoryEntry{
			Date:     util.DayKey(day),
			Snapshot: snap,
		})
	}
	return out
}

func (g *Generator) snapshotAt(ts time.Time, drift, fx float64) models.RateSnapshot {
	snap := models.NewRateSnapshot(ts)
	snap.Provenance = models.ProvenanceMock

	iorb := IORB + drift
	effr := iorb - 0.07 + g.noise(rateJitter)
	obfr := effr - 0.01
	sofr := iorb + 0.02 + g.noise(rateJitter)
	tgcr := sofr - 0.02
	bgcr := tgcr + 0.01
	gcf := tgcr + 0.03 + g.noise(rateJitter)
	tbill := TBill3M + drift + g.noise(rateJitter)

	set := func(s models.Series, v float64, places int) {
		snap.Set(s, models.Float(round(v, places)), models.SourceBaseline)
	}

	set(models.IORB, iorb, 4)
	set(models.EFFR, effr, 4)
	set(models.OBFR, obfr, 4)
	set(models.SOFR, sofr, 4)
	set(models.TGCR, tgcr, 4)
	set(models.BGCR, bgcr, 4)
	set(models.GCF, gcf, 4)
	set(models.ONRRP, iorb-0.15, 4)
	set(models.AMERIBOR, effr+0.05+g.noise(rateJitter), 4)
	set(models.TBill3M, tbill, 4)
	set(models.CP3M, tbill+0.25+g.noise(rateJitter), 4)
	set(models.EURIBOR, EURIBOR+g.noise(rateJitter), 4)
	set(models.SONIA, SONIA+drift+g.noise(rateJitter), 4)

	set(models.EURUSD, EURUSD*fx*(1+g.noise(fxJitter)), 4)
	set(models.GBPUSD, GBPUSD*fx*(1+g.noise(fxJitter)), 4)
	set(models.USDJPY, USDJPY/fx*(1+g.noise(fxJitter)), 2)
	set(models.USDCHF, USDCHF/fx*(1+g.noise(fxJitter)), 4)

	set(models.ONRRPVolume, ONRRPVolume*(1+g.noise(0.04)), 1)
	set(models.ForeignRepoPool, ForeignRepoPool*(1+g.noise(0.02)), 1)
	set(models.SRFVolume, SRFVolume, 1)

	return snap
}

// noise returns a uniform value in [-bound, bound).
func (g *Generator) noise(bound float64) float64 {
	return (g.rng.Float64()*2 - 1) * bound
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
