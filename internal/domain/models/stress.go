package models

import "time"

// StressLevel is the categorical reading of a score or sub-analysis.
type StressLevel string

const (
	StressLow      StressLevel = "low"
	StressMedium   StressLevel = "medium"
	StressHigh     StressLevel = "high"
	StressCritical StressLevel = "critical"
)

// StressComponents are the bounded sub-scores: repo [0,25], credit [0,35],
// fx [0,20], volatility [0,20].
type StressComponents struct {
	Repo       float64 `json:"repo"`
	Credit     float64 `json:"credit"`
	FX         float64 `json:"fx"`
	Volatility float64 `json:"volatility"`
}

// Sum adds the four components.
func (c StressComponents) Sum() float64 {
	return c.Repo + c.Credit + c.FX + c.Volatility
}

// RepoAnalysis reads the general collateral repo rate against SOFR, in percentage points.
type RepoAnalysis struct {
	Spread      *float64    `json:"spread"`
	StressLevel StressLevel `json:"stressLevel"`
}

// CreditAnalysis reads the interbank and short-term credit spreads, in bps.
type CreditAnalysis struct {
	Spreads map[string]*float64    `json:"spreads"`
	Levels  map[string]StressLevel `json:"levels"`
	Overall StressLevel            `json:"overall"`
}

// FXPairAnalysis is the short-window volatility of one pair.
type FXPairAnalysis struct {
	Volatility  float64     `json:"volatility"`
	StressLevel StressLevel `json:"stressLevel"`
}

// FXAnalysis covers the pairs that have enough history.
type FXAnalysis struct {
	Pairs             map[Series]FXPairAnalysis `json:"pairs"`
	AverageVolatility *float64                  `json:"averageVolatility"`
}

// StressResult is the composite score with its supporting detail.
type StressResult struct {
	Score      int                 `json:"score"`
	Level      StressLevel         `json:"level"`
	Components StressComponents    `json:"components"`
	Spreads    map[string]*float64 `json:"spreads"`
	Repo       RepoAnalysis        `json:"repoStress"`
	Credit     CreditAnalysis      `json:"creditStress"`
	FX         FXAnalysis          `json:"fxStress"`
	ZScores    map[Series]float64  `json:"zScores,omitempty"`
	Volatility float64             `json:"volatility"`
	Timestamp  time.Time           `json:"timestamp"`
}
