package models

import (
	"testing"
	"time"

	"PlumbWatch/pkg/util"

	"github.com/stretchr/testify/assert"
)

func TestEntryDateIsTheUTCDayKey(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	ts := time.Date(2025, 1, 2, 22, 30, 0, 0, est)

	m := &MarketData{Snapshot: NewRateSnapshot(ts)}
	e := m.Entry()

	assert.Equal(t, "2025-01-03", e.Date)
	assert.Equal(t, util.DayKey(ts), e.Date)
}
