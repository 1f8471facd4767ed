package momentum

import (
	"math"
	"testing"
	"time"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/txwatch"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *fakeClock                   { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func trade(side txwatch.Side, value float64, at time.Time) *txwatch.Trade {
	return &txwatch.Trade{Side: side, SolValue: value, At: at}
}

func TestSnapshot_CountsAndValues(t *testing.T) {
	clock := newClock()
	tr := NewWithClock(Config{Window: 10 * time.Second}, clock.now)

	tr.Record(trade(txwatch.SideBuy, 1.5, clock.t))
	tr.Record(trade(txwatch.SideBuy, 0.5, clock.t))
	tr.Record(trade(txwatch.SideSell, 0.25, clock.t))

	snap := tr.Snapshot()
	if snap.BuyCount != 2 || snap.SellCount != 1 {
		t.Fatalf("counts: got buy=%d sell=%d", snap.BuyCount, snap.SellCount)
	}
	if snap.BuyValue != 2.0 {
		t.Fatalf("buy value: got %v want 2.0", snap.BuyValue)
	}
	if snap.SellValue != 0.25 {
		t.Fatalf("sell value: got %v want 0.25", snap.SellValue)
	}
	if snap.Ratio != 8.0 {
		t.Fatalf("ratio: got %v want 8.0", snap.Ratio)
	}
}

func TestSnapshot_EmptySellSideDividesByOne(t *testing.T) {
	clock := newClock()
	tr := NewWithClock(Config{Window: 10 * time.Second}, clock.now)
	tr.Record(trade(txwatch.SideBuy, 3.0, clock.t))

	snap := tr.Snapshot()
	if snap.Ratio != 3.0 {
		t.Fatalf("ratio with no sells: got %v want 3.0", snap.Ratio)
	}
	if math.IsInf(snap.Ratio, 1) {
		t.Fatalf("ratio must never be +Inf")
	}
}

func TestSnapshot_RatioMonotonicInBuys(t *testing.T) {
	clock := newClock()
	tr := NewWithClock(Config{Window: time.Minute}, clock.now)
	tr.Record(trade(txwatch.SideBuy, 1.0, clock.t))
	tr.Record(trade(txwatch.SideSell, 2.0, clock.t))
	before := tr.Snapshot().Ratio

	tr.Record(trade(txwatch.SideBuy, 0.1, clock.t))
	after := tr.Snapshot().Ratio

	if after <= before {
		t.Fatalf("recording an extra buy must raise the ratio: before=%v after=%v", before, after)
	}
}

func TestSnapshot_CountWeightedMode(t *testing.T) {
	clock := newClock()
	tr := NewWithClock(Config{Window: time.Minute, Mode: RatioCountWeighted}, clock.now)
	// Value-weighted would read 0.01 here; count-weighted reads 3.
	tr.Record(trade(txwatch.SideBuy, 0.01, clock.t))
	tr.Record(trade(txwatch.SideBuy, 0.01, clock.t))
	tr.Record(trade(txwatch.SideBuy, 0.01, clock.t))
	tr.Record(trade(txwatch.SideSell, 3.0, clock.t))

	if got := tr.Snapshot().Ratio; got != 3.0 {
		t.Fatalf("count-weighted ratio: got %v want 3.0", got)
	}
}

func TestWindowPruning_Boundaries(t *testing.T) {
	const window = 5 * time.Second
	clock := newClock()
	tr := NewWithClock(Config{Window: window}, clock.now)

	t0 := clock.t
	tr.Record(trade(txwatch.SideBuy, 1.0, t0))

	clock.t = t0.Add(window - time.Millisecond)
	if snap := tr.Snapshot(); snap.BuyCount != 1 {
		t.Fatalf("event must still be in the window 1ms before expiry, got count=%d", snap.BuyCount)
	}

	clock.t = t0.Add(window + time.Millisecond)
	if snap := tr.Snapshot(); snap.BuyCount != 0 {
		t.Fatalf("event must be pruned 1ms after expiry, got count=%d", snap.BuyCount)
	}
}

func TestSecondsSinceLastBuy(t *testing.T) {
	clock := newClock()
	tr := NewWithClock(Config{Window: time.Second}, clock.now)

	if got := tr.Snapshot().SecondsSinceLastBuy; !math.IsInf(got, 1) {
		t.Fatalf("no buys yet: got %v want +Inf", got)
	}

	tr.Record(trade(txwatch.SideBuy, 1.0, clock.t))
	clock.advance(3 * time.Second)

	snap := tr.Snapshot()
	if snap.BuyCount != 0 {
		t.Fatalf("buy should have been pruned from the window")
	}
	// Pruning the window must not erase the last-buy timestamp.
	if snap.SecondsSinceLastBuy != 3.0 {
		t.Fatalf("seconds since last buy: got %v want 3.0", snap.SecondsSinceLastBuy)
	}
}

func TestReset(t *testing.T) {
	clock := newClock()
	tr := NewWithClock(Config{Window: time.Minute}, clock.now)
	tr.Record(trade(txwatch.SideBuy, 1.0, clock.t))
	tr.Reset()

	snap := tr.Snapshot()
	if snap.BuyCount != 0 || !snap.LastBuyAt.IsZero() {
		t.Fatalf("reset left state behind: %+v", snap)
	}
}
