package baseline

import (
	"testing"
	"time"

	"PlumbWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC)
}

func TestSnapshotIsCompleteAndConsistent(t *testing.T) {
	g := New(42, WithClock(fixedNow))
	snap := g.Snapshot()

	assert.Equal(t, models.ProvenanceMock, snap.Provenance)
	assert.Equal(t, fixedNow(), snap.Timestamp)
	for _, s := range models.AllSeries() {
		require.NotNil(t, snap.Value(s), s)
		assert.Equal(t, models.SourceBaseline, snap.Sources[s], s)
	}

	v := func(s models.Series) float64 { return *snap.Value(s) }

	assert.Equal(t, IORB, v(models.IORB))
	assert.InDelta(t, IORB-0.07, v(models.EFFR), rateJitter+2e-4)
	assert.InDelta(t, v(models.EFFR)-0.01, v(models.OBFR), 2e-4)
	assert.InDelta(t, IORB+0.02, v(models.SOFR), rateJitter+2e-4)
	assert.InDelta(t, v(models.SOFR)-0.02, v(models.TGCR), 2e-4)
	assert.InDelta(t, v(models.TGCR)+0.01, v(models.BGCR), 2e-4)
	assert.InDelta(t, IORB-0.15, v(models.ONRRP), 1e-9)
	assert.Equal(t, 0.0, v(models.SRFVolume))

	// the reserve-scarcity spread stays in the AMPLE band
	effrIORB := (v(models.EFFR) - v(models.IORB)) * 100
	assert.Less(t, effrIORB, 0.0)
	assert.GreaterOrEqual(t, effrIORB, -7.6)
}

func TestSameSeedSameValues(t *testing.T) {
	a := New(7, WithClock(fixedNow)).Snapshot()
	b := New(7, WithClock(fixedNow)).Snapshot()
	assert.Equal(t, a, b)
}

func TestHistoryIsDailyAndBounded(t *testing.T) {
	g := New(1, WithClock(fixedNow))
	hist := g.History(30)

	require.Len(t, hist, 30)
	assert.Equal(t, "2025-02-13", hist[0].Date)
	assert.Equal(t, "2025-03-14", hist[29].Date)

	for i, e := range hist {
		require.NotNil(t, e.Snapshot.IORB)
		assert.InDelta(t, IORB, *e.Snapshot.IORB, maxDrift+1e-9)
		assert.Equal(t, models.ProvenanceMock, e.Snapshot.Provenance)
		if i > 0 {
			assert.Greater(t, e.Date, hist[i-1].Date)
		}
	}

	assert.Nil(t, g.History(0))
}
