package repository

import (
	"sync"
	"testing"
	"time"

	"PlumbWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(day time.Time, sofr *float64) models.HistoryEntry {
	snap := models.NewRateSnapshot(day)
	snap.Set(models.SOFR, sofr, models.SourceNYFed)
	return models.HistoryEntry{Date: day.Format("2006-01-02"), Snapshot: snap}
}

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestHistoryStoreEvictsOldest(t *testing.T) {
	h := NewHistoryStore(90)
	for i := 0; i < 95; i++ {
		h.Append(entry(day0.AddDate(0, 0, i), models.Float(float64(i))))
	}

	require.Equal(t, 90, h.Len())
	w := h.Window()
	assert.Equal(t, day0.AddDate(0, 0, 5).Format("2006-01-02"), w[0].Date)
	assert.Equal(t, day0.AddDate(0, 0, 94).Format("2006-01-02"), w[89].Date)

	series := h.Series(models.SOFR)
	require.Len(t, series, 90)
	assert.Equal(t, 5.0, series[0])
	assert.Equal(t, 94.0, series[89])
}

func TestHistoryStoreSameDayReplaces(t *testing.T) {
	h := NewHistoryStore(10)
	h.Append(entry(day0, models.Float(4.30)))
	h.Append(entry(day0.Add(6*time.Hour), models.Float(4.31)))

	require.Equal(t, 1, h.Len())
	assert.Equal(t, []float64{4.31}, h.Series(models.SOFR))

	// an older date never rewrites the window
	h.Append(entry(day0.AddDate(0, 0, -1), models.Float(1)))
	assert.Equal(t, 1, h.Len())
}

func TestHistoryStoreSeriesSkipsNulls(t *testing.T) {
	h := NewHistoryStore(0)
	assert.Equal(t, DefaultHistoryEntries, h.Max())

	h.Append(entry(day0, models.Float(4.30)))
	h.Append(entry(day0.AddDate(0, 0, 1), nil))
	h.Append(entry(day0.AddDate(0, 0, 2), models.Float(4.32)))

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{4.30, 4.32}, h.Series(models.SOFR))
	assert.Empty(t, h.Series(models.EURUSD))
}

func TestHistoryStoreWindowIsACopy(t *testing.T) {
	h := NewHistoryStore(5)
	h.Append(entry(day0, models.Float(1)))

	w := h.Window()
	w[0].Date = "mutated"
	assert.Equal(t, "2025-01-01", h.Window()[0].Date)
}

func TestHistoryStoreConcurrentAccess(t *testing.T) {
	h := NewHistoryStore(30)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Append(entry(day0.AddDate(0, 0, j), models.Float(float64(i))))
				_ = h.Series(models.SOFR)
				_ = h.Window()
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, h.Len(), 30)
	assert.Equal(t, day0.AddDate(0, 0, 49).Format("2006-01-02"), h.Window()[h.Len()-1].Date)
}
