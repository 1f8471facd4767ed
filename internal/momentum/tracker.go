// Package momentum keeps a rolling window of classified trades for one
// tracked mint and derives the momentum signals the position controller
// exits on.
package momentum

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/txwatch"
)

// RatioMode selects the buy/sell ratio convention. There is exactly one
// formula per mode; nothing else in the tracker may compute a ratio.
type RatioMode string

const (
	// RatioValueWeighted divides summed buy value by summed sell value.
	// A single large sell weighs as much as it traded.
	RatioValueWeighted RatioMode = "value"
	// RatioCountWeighted divides buy count by sell count.
	RatioCountWeighted RatioMode = "count"
)

// Config holds the tracker policy. Window must be positive.
type Config struct {
	Window time.Duration
	Mode   RatioMode
}

// Snapshot is a point-in-time read of the window.
type Snapshot struct {
	BuyCount  int
	SellCount int
	BuyValue  float64 // SOL
	SellValue float64 // SOL

	// Ratio is buys over sells per the configured mode. An empty sell
	// side divides by 1 instead of zero, so +Inf never occurs.
	Ratio float64

	// LastBuyAt is the newest buy ever recorded, zero if none. It is
	// deliberately not subject to window pruning.
	LastBuyAt time.Time

	// SecondsSinceLastBuy is +Inf when no buy was ever recorded.
	SecondsSinceLastBuy float64
}

type event struct {
	side  txwatch.Side
	value decimal.Decimal
	at    time.Time
}

// Tracker is NOT safe for concurrent use; the position controller owns
// it exclusively (single-worker model).
type Tracker struct {
	cfg    Config
	now    func() time.Time
	events []event

	lastBuyAt time.Time
}

// New returns a tracker with the given policy.
func New(cfg Config) *Tracker {
	return NewWithClock(cfg, time.Now)
}

// NewWithClock injects the clock; tests pin it.
func NewWithClock(cfg Config, now func() time.Time) *Tracker {
	if cfg.Mode == "" {
		cfg.Mode = RatioValueWeighted
	}
	return &Tracker{cfg: cfg, now: now}
}

// Record adds one classified trade to the window.
func (t *Tracker) Record(tr *txwatch.Trade) {
	if tr == nil {
		return
	}
	t.prune(t.now())
	t.events = append(t.events, event{
		side:  tr.Side,
		value: decimal.NewFromFloat(tr.SolValue),
		at:    tr.At,
	})
	if tr.Side == txwatch.SideBuy && tr.At.After(t.lastBuyAt) {
		t.lastBuyAt = tr.At
	}
}

// Reset drops all state, for reuse on the next position.
func (t *Tracker) Reset() {
	t.events = nil
	t.lastBuyAt = time.Time{}
}

// Snapshot prunes expired events and derives the current signals.
func (t *Tracker) Snapshot() Snapshot {
	now := t.now()
	t.prune(now)

	var buyCount, sellCount int
	buyValue, sellValue := decimal.Zero, decimal.Zero
	for _, ev := range t.events {
		if ev.side == txwatch.SideBuy {
			buyCount++
			buyValue = buyValue.Add(ev.value)
		} else {
			sellCount++
			sellValue = sellValue.Add(ev.value)
		}
	}

	snap := Snapshot{
		BuyCount:            buyCount,
		SellCount:           sellCount,
		BuyValue:            buyValue.InexactFloat64(),
		SellValue:           sellValue.InexactFloat64(),
		LastBuyAt:           t.lastBuyAt,
		SecondsSinceLastBuy: math.Inf(1),
	}
	if !t.lastBuyAt.IsZero() {
		snap.SecondsSinceLastBuy = now.Sub(t.lastBuyAt).Seconds()
	}

	switch t.cfg.Mode {
	case RatioCountWeighted:
		den := sellCount
		if den == 0 {
			den = 1
		}
		snap.Ratio = float64(buyCount) / float64(den)
	default:
		den := sellValue
		if den.IsZero() {
			den = decimal.NewFromInt(1)
		}
		snap.Ratio = buyValue.Div(den).InexactFloat64()
	}
	return snap
}

// prune drops events older than now - window. Events stamped in the
// future are kept; the stream's clock is authoritative for event time.
func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-t.cfg.Window)
	keep := t.events[:0]
	for _, ev := range t.events {
		if ev.at.After(cutoff) {
			keep = append(keep, ev)
		}
	}
	t.events = keep
}
