// Package models provides domain models for the risk aggregator.
package models

import (
	"time"
)

// Side represents the side of a fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is one of the recognized values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Bar represents daily OHLCV data for one trading day.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Fill represents an executed trade. Once recorded into a ledger's fill
// history it is never mutated; the quantity is the accepted quantity,
// which may be smaller than what the strategy requested.
type Fill struct {
	Date       time.Time
	Symbol     string
	Side       Side
	Qty        int
	Price      float64
	Commission float64
}

// Position represents a per-symbol holding. Quantity never goes negative
// (no shorting) and AvgCost is zero whenever Qty is zero.
type Position struct {
	Symbol  string
	Qty     int
	AvgCost float64
}

// MarketValue returns the position value at the given price.
func (p Position) MarketValue(price float64) float64 {
	return float64(p.Qty) * price
}

// Snapshot is an immutable point-in-time summary of a ledger,
// marked at the supplied prices.
type Snapshot struct {
	Date          time.Time
	Cash          float64
	MarketValue   float64
	Equity        float64
	RealizedPnL   float64
	UnrealizedPnL float64
	GrossExposure float64
	NetExposure   float64
}

// Decision is a trade instruction produced by a strategy.
// A nil *Decision means no trade for the day.
type Decision struct {
	Side Side
	Qty  int
}
