package position

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/momentum"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/pumpfun"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/txwatch"
)

// EntryReceipt is what a successful entry submission reports back.
type EntryReceipt struct {
	Signature    string
	TokensBought float64 // token base units
	SolSpent     float64
	// Creator as recorded in the curve state, which is authoritative
	// for fee-vault derivation on the exit path.
	Creator solana.PublicKey
}

// Submitter broadcasts signed transactions. Retry policy lives behind
// this interface, never in the controller.
type Submitter interface {
	SubmitBuy(ctx context.Context, mint, creator solana.PublicKey, solAmount float64, slippageBps int64) (EntryReceipt, error)
	SubmitSell(ctx context.Context, mint, creator solana.PublicKey, tokenAmount float64, slippageBps int64) (string, error)
}

// Quoter prices a hypothetical sale of the held balance.
type Quoter interface {
	QuoteSellSol(ctx context.Context, mint solana.PublicKey, tokenAmount float64) (float64, error)
}

// Journal receives structured transition records. *jsonl.Writer
// satisfies it.
type Journal interface {
	Write(v any) error
}

// TransitionRecord is the journal line for one state change.
type TransitionRecord struct {
	TsMs       int64  `json:"ts_ms"`
	Event      string `json:"event"`
	PositionID string `json:"position_id"`
	Mint       string `json:"mint,omitempty"`
	From       string `json:"from"`
	To         string `json:"to"`
	Reason     string `json:"reason"`
}

// Deps are the controller's collaborators and knobs.
type Deps struct {
	Submitter Submitter
	Quoter    Quoter
	Journal   Journal

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time

	// PollInterval drives market-value ticks; defaults to 500ms.
	PollInterval time.Duration
	// SubmitTimeout bounds each submission; defaults to 30s.
	SubmitTimeout time.Duration
}

// tradeObserved carries a classified trade into the run loop; it is a
// runner-internal event, the reducer never sees it.
type tradeObserved struct {
	tr *txwatch.Trade
}

func (tradeObserved) isEvent() {}

// Controller owns the single live position and its momentum window.
// All mutation happens on the Run goroutine; OnLaunch/OnTrade only
// enqueue.
type Controller struct {
	cfg     Config
	sub     Submitter
	quoter  Quoter
	journal Journal
	now     func() time.Time

	pollInterval  time.Duration
	submitTimeout time.Duration

	events  chan Event
	tracker *momentum.Tracker
	m       Machine

	trackedMu sync.Mutex
	tracked   struct {
		mint  solana.PublicKey
		curve solana.PublicKey
		ok    bool
	}

	quoteBusy atomic.Bool
	runCtx    context.Context
}

// NewController wires a controller. cfg.Window lives in the momentum
// config; everything else in cfg.
func NewController(cfg Config, window momentum.Config, deps Deps) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = 500 * time.Millisecond
	}
	if deps.SubmitTimeout <= 0 {
		deps.SubmitTimeout = 30 * time.Second
	}
	return &Controller{
		cfg:           cfg.withDefaults(),
		sub:           deps.Submitter,
		quoter:        deps.Quoter,
		journal:       deps.Journal,
		now:           deps.Now,
		pollInterval:  deps.PollInterval,
		submitTimeout: deps.SubmitTimeout,
		events:        make(chan Event, 256),
		tracker:       momentum.NewWithClock(window, deps.Now),
		m:             Machine{State: StateIdle},
	}
}

// Tracked reports the mint and curve account the stream loop should
// classify trades against. Safe for concurrent use.
func (c *Controller) Tracked() (mint, curve solana.PublicKey, ok bool) {
	c.trackedMu.Lock()
	defer c.trackedMu.Unlock()
	return c.tracked.mint, c.tracked.curve, c.tracked.ok
}

func (c *Controller) setTracked(mint solana.PublicKey) {
	curve, err := pumpfun.DeriveBondingCurve(mint)
	if err != nil {
		// Unreachable for real mints; refuse to track rather than
		// classify against a zero curve.
		log.Printf("[warn] derive curve for %s: %v", mint, err)
		return
	}
	c.trackedMu.Lock()
	c.tracked.mint, c.tracked.curve, c.tracked.ok = mint, curve, true
	c.trackedMu.Unlock()
}

func (c *Controller) clearTracked() {
	c.trackedMu.Lock()
	c.tracked.ok = false
	c.trackedMu.Unlock()
}

// OnLaunch feeds a creation signal from the classifier.
func (c *Controller) OnLaunch(created *txwatch.Created) {
	if created == nil {
		return
	}
	c.enqueue(LaunchSeen{
		PositionID: uuid.NewString(),
		Mint:       created.Mint,
		Creator:    created.Creator,
		Signature:  created.Signature,
		At:         created.At,
	})
}

// OnTrade feeds a classified trade on the tracked mint.
func (c *Controller) OnTrade(tr *txwatch.Trade) {
	if tr == nil {
		return
	}
	c.enqueue(tradeObserved{tr: tr})
}

func (c *Controller) enqueue(ev Event) {
	select {
	case c.events <- ev:
	default:
		// Telemetry events are droppable under burst; submission
		// results are not, but those are enqueued from goroutines that
		// block instead of landing here.
		log.Printf("[warn] controller event queue full, dropping %T", ev)
	}
}

func (c *Controller) enqueueBlocking(ev Event) {
	select {
	case c.events <- ev:
	case <-c.runCtx.Done():
	}
}

// Run drives the controller until ctx is cancelled. Cancellation
// force-evaluates a best-effort full exit before returning; the sell
// may not land before process death, which is journaled, not hidden.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.step(ShutdownRequested{At: c.now()}, true)
			return ctx.Err()
		case ev := <-c.events:
			c.step(ev, false)
		case <-ticker.C:
			c.pollTick(ctx)
		}
	}
}

// step runs one event through the reducer and executes the effects.
// inline forces submissions (the shutdown path) to run synchronously.
func (c *Controller) step(ev Event, inline bool) {
	if obs, ok := ev.(tradeObserved); ok {
		c.tracker.Record(obs.tr)
		if c.m.State == StateOpen || c.m.State == StatePartiallyExited {
			// Evaluation must not suspend: the tick carries only the
			// snapshot, market value waits for the next poll.
			c.step(Tick{At: c.now(), Momentum: c.tracker.Snapshot()}, false)
		}
		return
	}

	before := c.m.State
	next, effects := Reduce(c.m, c.cfg, ev)
	c.m = next

	if before != StateEntering && next.State == StateEntering {
		if launch, ok := ev.(LaunchSeen); ok {
			c.setTracked(launch.Mint)
		}
	}
	if before != StateIdle && next.State == StateIdle {
		c.clearTracked()
		c.tracker.Reset()
	}

	for _, eff := range effects {
		c.execute(eff, inline)
	}
}

func (c *Controller) execute(eff Effect, inline bool) {
	switch e := eff.(type) {
	case LogTransition:
		c.logTransition(e)
	case SubmitEntry:
		run := func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.submitTimeout)
			defer cancel()
			receipt, err := c.sub.SubmitBuy(ctx, e.Mint, e.Creator, e.SolAmount, e.SlippageBps)
			res := EntryResult{At: c.now()}
			if err != nil {
				res.Err = err.Error()
			} else {
				res.OK = true
				res.Signature = receipt.Signature
				res.TokensBought = receipt.TokensBought
				res.SolSpent = receipt.SolSpent
				res.Creator = receipt.Creator
			}
			c.enqueueBlocking(res)
		}
		go run()
	case SubmitExit:
		run := func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.submitTimeout)
			defer cancel()
			sig, err := c.sub.SubmitSell(ctx, e.Mint, e.Creator, e.TokenAmount, e.SlippageBps)
			res := ExitResult{Partial: e.Partial, TokensSold: e.TokenAmount, At: c.now()}
			if err != nil {
				res.Err = err.Error()
			} else {
				res.OK = true
				res.Signature = sig
			}
			if inline {
				c.step(res, true)
			} else {
				c.enqueueBlocking(res)
			}
		}
		if inline {
			run()
		} else {
			go run()
		}
	}
}

func (c *Controller) pollTick(ctx context.Context) {
	if c.m.State != StateOpen && c.m.State != StatePartiallyExited {
		return
	}
	if !c.quoteBusy.CompareAndSwap(false, true) {
		return
	}
	mint := c.m.Pos.Mint
	balance := c.m.Pos.TokenBalance
	snap := c.tracker.Snapshot()
	go func() {
		defer c.quoteBusy.Store(false)
		qctx, cancel := context.WithTimeout(ctx, c.pollInterval*4)
		defer cancel()
		value, err := c.quoter.QuoteSellSol(qctx, mint, balance)
		tick := Tick{At: c.now(), Momentum: snap}
		if err == nil {
			tick.MarketValueSol = value
			tick.HasMarketValue = true
		} else {
			log.Printf("[warn] quote %s: %v", mint, err)
		}
		c.enqueueBlocking(tick)
	}()
}

func (c *Controller) logTransition(e LogTransition) {
	log.Printf("[pos] %s: %s -> %s (%s)", shortID(e.PositionID), e.From, e.To, e.Reason)
	if c.journal == nil {
		return
	}
	rec := TransitionRecord{
		TsMs:       e.At.UnixMilli(),
		Event:      "transition",
		PositionID: e.PositionID,
		From:       e.From.String(),
		To:         e.To.String(),
		Reason:     e.Reason,
	}
	if !c.m.Pos.Mint.IsZero() {
		rec.Mint = c.m.Pos.Mint.String()
	}
	if err := c.journal.Write(rec); err != nil {
		log.Printf("[warn] journal write: %v", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
