// Package position holds the single-position controller: a pure
// reducer over (state, event) returning (state, effects), and a runner
// that owns the live position plus its momentum window and executes the
// effects. Decision logic never does I/O; the runner does.
package position

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// State is the position lifecycle phase. Closed and Failed are
// transient: the reducer reports them in transition logs and collapses
// straight back to Idle so the next launch can be taken.
type State int

const (
	StateIdle State = iota
	StateEntering
	StateOpen
	StatePartiallyExited
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEntering:
		return "entering"
	case StateOpen:
		return "open"
	case StatePartiallyExited:
		return "partially_exited"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Exit reasons, in evaluation order. The first satisfied condition
// names the exit even when several hold at once.
const (
	ReasonLull      = "lull"
	ReasonRatio     = "ratio"
	ReasonTimeout   = "timeout"
	ReasonBreakeven = "breakeven"
	ReasonShutdown  = "shutdown"
)

// Position is the one unit of long-lived mutable state. TokenBalance is
// in token base units and only ever decreases after entry.
type Position struct {
	ID      string
	Mint    solana.PublicKey
	Creator solana.PublicKey

	EntrySol     float64 // SOL spent on entry
	TokenBalance float64 // token base units currently held
	EnteredAt    time.Time

	PartialExitDone bool
	// PendingPartialSell is the amount of an in-flight partial sell,
	// zero once its result lands. A full exit must not re-sell it.
	PendingPartialSell float64
	ExitReason         string
}

// Machine is the full reducer state: phase, live position, and the
// cooldown anchor. It is a value; Reduce never mutates its input.
type Machine struct {
	State State
	Pos   Position

	// LastSettledAt anchors the entry cooldown; set whenever a position
	// reaches Closed or Failed.
	LastSettledAt time.Time
}

// Config is the controller policy. All durations and thresholds are
// injected; nothing is hardcoded in the reducer.
type Config struct {
	BuyAmountSol     float64
	EntrySlippageBps int64
	// ExitSlippageBps is applied to momentum-pressured exits (lull,
	// ratio, timeout, shutdown); these expect thinning liquidity and
	// accept a worse fill. Breakeven partials use the entry tolerance.
	ExitSlippageBps int64

	// BreakevenMultiple scales the entry cost into the partial-exit
	// target: market value >= EntrySol * BreakevenMultiple.
	BreakevenMultiple   float64
	PartialExitFraction float64

	LullThreshold  time.Duration
	RatioThreshold float64
	MaxHold        time.Duration

	// Cooldown is the minimum gap between settling one position and
	// entering the next.
	Cooldown time.Duration
}

// withDefaults fills zero fields with the default policy.
func (c Config) withDefaults() Config {
	if c.BreakevenMultiple == 0 {
		c.BreakevenMultiple = 1.0
	}
	if c.PartialExitFraction == 0 {
		c.PartialExitFraction = 0.5
	}
	return c
}
