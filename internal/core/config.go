package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config carries every tunable the engine consumes. Values are injected by
// the host; nothing in the core reads the environment directly.
type Config struct {
	// DefaultDuration is the bidding window in seconds for auctions created
	// without a scheduled end.
	DefaultDuration int
	// ExtendWindow is the anti-snipe grace window in seconds. A bid landing
	// with less than this much time left re-arms the countdown to exactly
	// this value (fixed reset, not cumulative).
	ExtendWindow int

	MinIncrement decimal.Decimal

	// Live auction duration bounds, in minutes.
	MinLiveDuration int
	MaxLiveDuration int

	// Synthetic bidder tuning. AIMinTimeLeft is deliberately independent of
	// ExtendWindow even though the defaults are close.
	AIProbability      float64
	AIIncrementMax     decimal.Decimal
	AIMaxPriceMultiple decimal.Decimal
	AIMinTimeLeft      int

	TickInterval    time.Duration
	AISweepInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		DefaultDuration:    180,
		ExtendWindow:       15,
		MinIncrement:       decimal.NewFromInt(100),
		MinLiveDuration:    1,
		MaxLiveDuration:    60,
		AIProbability:      0.5,
		AIIncrementMax:     decimal.NewFromInt(500),
		AIMaxPriceMultiple: decimal.NewFromFloat(1.2),
		AIMinTimeLeft:      10,
		TickInterval:       time.Second,
		AISweepInterval:    20 * time.Second,
	}
}
