package position

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/momentum"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/txwatch"
)

type fakeSubmitter struct {
	mu        sync.Mutex
	buys      int
	sells     []SubmitExit
	failEntry bool
	failSell  bool
}

func (f *fakeSubmitter) SubmitBuy(ctx context.Context, mint, creator solana.PublicKey, solAmount float64, slippageBps int64) (EntryReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buys++
	if f.failEntry {
		return EntryReceipt{}, fmt.Errorf("simulated rejection")
	}
	return EntryReceipt{
		Signature:    "entry-sig",
		TokensBought: 350_000_000_000,
		SolSpent:     solAmount,
		Creator:      creator,
	}, nil
}

func (f *fakeSubmitter) SubmitSell(ctx context.Context, mint, creator solana.PublicKey, tokenAmount float64, slippageBps int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSell {
		return "", fmt.Errorf("simulated rejection")
	}
	f.sells = append(f.sells, SubmitExit{TokenAmount: tokenAmount, SlippageBps: slippageBps})
	return "exit-sig", nil
}

type fakeQuoter struct{ value float64 }

func (f *fakeQuoter) QuoteSellSol(ctx context.Context, mint solana.PublicKey, tokenAmount float64) (float64, error) {
	return f.value, nil
}

type captureJournal struct {
	mu   sync.Mutex
	recs []TransitionRecord
}

func (j *captureJournal) Write(v any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if rec, ok := v.(TransitionRecord); ok {
		j.recs = append(j.recs, rec)
	}
	return nil
}

func (j *captureJournal) reasons() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.recs))
	for _, r := range j.recs {
		out = append(out, r.To+"/"+r.Reason)
	}
	return out
}

type harness struct {
	c       *Controller
	clock   *fakeClock
	sub     *fakeSubmitter
	journal *captureJournal
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newHarness(cfg Config) *harness {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	sub := &fakeSubmitter{}
	journal := &captureJournal{}
	c := NewController(cfg,
		momentum.Config{Window: 10 * time.Second},
		Deps{
			Submitter: sub,
			Quoter:    &fakeQuoter{},
			Journal:   journal,
			Now:       clock.now,
		})
	c.runCtx = context.Background()
	return &harness{c: c, clock: clock, sub: sub, journal: journal}
}

// stepAndDrain feeds one event and then applies any submission result
// the effect goroutines push back.
func (h *harness) stepAndDrain(t *testing.T, ev Event) {
	t.Helper()
	h.c.step(ev, false)
	for {
		select {
		case res := <-h.c.events:
			h.c.step(res, false)
		case <-time.After(200 * time.Millisecond):
			return
		}
	}
}

func (h *harness) launch(t *testing.T) {
	t.Helper()
	h.stepAndDrain(t, LaunchSeen{
		PositionID: "pos-e2e",
		Mint:       testMint,
		Creator:    testCreator,
		At:         h.clock.now(),
	})
}

func (h *harness) buy(value float64) {
	h.c.step(tradeObserved{tr: &txwatch.Trade{
		Mint: testMint, Side: txwatch.SideBuy, SolValue: value, At: h.clock.now(),
	}}, false)
}

func (h *harness) pollerTick(t *testing.T) {
	t.Helper()
	h.stepAndDrain(t, Tick{At: h.clock.now(), Momentum: h.c.tracker.Snapshot()})
}

// Full lifecycle: launch at t0, entry succeeds, three 1-SOL buys in
// the next two seconds hold the position open; a three-second silent
// gap then lulls it out with reason "lull" at a 2s threshold.
func TestController_EndToEnd_LullExit(t *testing.T) {
	h := newHarness(Config{
		BuyAmountSol:     0.01,
		EntrySlippageBps: 500,
		ExitSlippageBps:  1500,
		LullThreshold:    2 * time.Second,
		RatioThreshold:   0.5,
		MaxHold:          time.Minute,
	})

	h.launch(t)
	if h.c.m.State != StateOpen {
		t.Fatalf("after entry: got %s want open", h.c.m.State)
	}
	if _, _, ok := h.c.Tracked(); !ok {
		t.Fatalf("controller must track the entered mint")
	}

	// Three healthy buys over two seconds; no exit may fire.
	for i := 0; i < 3; i++ {
		h.clock.advance(650 * time.Millisecond)
		h.buy(1.0)
		if h.c.m.State != StateOpen {
			t.Fatalf("buy %d: got %s want open", i, h.c.m.State)
		}
	}

	// t0+4s: quiet market, still inside the lull threshold.
	h.clock.advance(1 * time.Second)
	h.pollerTick(t)
	if h.c.m.State != StateOpen {
		t.Fatalf("premature exit at %s", h.c.m.State)
	}

	// Three seconds of silence push past the 2s lull threshold; the
	// controller must close with reason "lull", never "ratio" (the
	// ratio is still 3 buys vs no sells).
	h.clock.advance(3 * time.Second)
	h.pollerTick(t)

	if h.c.m.State != StateIdle {
		t.Fatalf("after lull exit: got %s want idle (settled)", h.c.m.State)
	}
	if _, _, ok := h.c.Tracked(); ok {
		t.Fatalf("settled controller must not track a mint")
	}

	sawLull := false
	for _, r := range h.journal.reasons() {
		if r == "closing/ratio" {
			t.Fatalf("exit attributed to ratio, want lull: %v", h.journal.reasons())
		}
		if r == "closing/lull" {
			sawLull = true
		}
	}
	if !sawLull {
		t.Fatalf("no lull close in journal: %v", h.journal.reasons())
	}

	h.sub.mu.Lock()
	defer h.sub.mu.Unlock()
	if len(h.sub.sells) != 1 {
		t.Fatalf("expected exactly one sell, got %d", len(h.sub.sells))
	}
	if h.sub.sells[0].TokenAmount != 350_000_000_000 {
		t.Fatalf("lull exit must sell the full balance, sold %v", h.sub.sells[0].TokenAmount)
	}
	if h.sub.sells[0].SlippageBps != 1500 {
		t.Fatalf("lull exit must use wide slippage, got %d", h.sub.sells[0].SlippageBps)
	}
}

func TestController_EntryFailureReleasesSlot(t *testing.T) {
	h := newHarness(Config{
		BuyAmountSol:   0.01,
		LullThreshold:  2 * time.Second,
		RatioThreshold: 0.5,
		MaxHold:        time.Minute,
		Cooldown:       time.Second,
	})
	h.sub.failEntry = true

	h.launch(t)
	if h.c.m.State != StateIdle {
		t.Fatalf("after failed entry: got %s want idle", h.c.m.State)
	}

	// Next launch after the cooldown must be accepted again.
	h.sub.failEntry = false
	h.clock.advance(2 * time.Second)
	h.launch(t)
	if h.c.m.State != StateOpen {
		t.Fatalf("controller deadlocked on a failed attempt: %s", h.c.m.State)
	}
}

func TestController_SecondLaunchRejectedWhileLive(t *testing.T) {
	h := newHarness(Config{
		BuyAmountSol:   0.01,
		LullThreshold:  time.Minute,
		RatioThreshold: 0,
		MaxHold:        time.Hour,
	})

	h.launch(t)
	if h.c.m.State != StateOpen {
		t.Fatalf("setup: %s", h.c.m.State)
	}
	mintBefore, _, _ := h.c.Tracked()

	other := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	h.stepAndDrain(t, LaunchSeen{PositionID: "pos-2", Mint: other, Creator: testCreator, At: h.clock.now()})

	if h.c.m.State != StateOpen {
		t.Fatalf("second launch disturbed the live position: %s", h.c.m.State)
	}
	mintAfter, _, _ := h.c.Tracked()
	if !mintAfter.Equals(mintBefore) {
		t.Fatalf("tracked mint switched while a position was live")
	}
	h.sub.mu.Lock()
	defer h.sub.mu.Unlock()
	if h.sub.buys != 1 {
		t.Fatalf("expected a single entry submission, got %d", h.sub.buys)
	}
}
