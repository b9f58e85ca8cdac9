package models

import "strings"

const (
	DefaultHistoryDays = 30
	MaxHistoryDays     = 1825
)

// Requests for market HTTP endpoints.

type MarketDataRequest struct {
	Region string `query:"region" json:"region" default:"ALL" validate:"oneof=US EMEA ALL"`
}

// Normalize accepts lower-case region names.
func (r *MarketDataRequest) Normalize() {
	r.Region = strings.ToUpper(strings.TrimSpace(r.Region))
}

type HistoricalDataRequest struct {
	Days string `query:"days" json:"days" default:"30"`
}
