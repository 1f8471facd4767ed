package position

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/momentum"
)

// Event is an input to the reducer: a classified signal from the
// stream, the result of a submitted transaction, or an evaluation tick.
type Event interface {
	isEvent()
}

// LaunchSeen is a new-mint signal from the classifier. PositionID is
// assigned by the runner so the reducer stays deterministic.
type LaunchSeen struct {
	PositionID string
	Mint       solana.PublicKey
	Creator    solana.PublicKey
	Signature  string
	At         time.Time
}

func (LaunchSeen) isEvent() {}

// EntryResult reports the outcome of the entry buy submission.
type EntryResult struct {
	OK        bool
	Signature string
	Err       string

	// Set on success.
	TokensBought float64 // token base units
	SolSpent     float64
	Creator      solana.PublicKey // curve-recorded creator, authoritative

	At time.Time
}

func (EntryResult) isEvent() {}

// ExitResult reports the outcome of a sell submission.
type ExitResult struct {
	OK        bool
	Partial   bool
	Signature string
	Err       string
	// TokensSold is in token base units.
	TokensSold float64
	At         time.Time
}

func (ExitResult) isEvent() {}

// Tick drives exit evaluation. The runner builds one after every
// classified trade and on every poll interval, attaching the current
// momentum snapshot and, when the poller has one, a fresh market value
// for the held balance.
type Tick struct {
	At       time.Time
	Momentum momentum.Snapshot

	// MarketValueSol is what selling the full current balance would
	// return right now. Only poller ticks carry it.
	MarketValueSol float64
	HasMarketValue bool
}

func (Tick) isEvent() {}

// ShutdownRequested forces a best-effort full exit before the process
// dies. The sell may not land on-chain in time; that gap is accepted
// and journaled, not hidden.
type ShutdownRequested struct {
	At time.Time
}

func (ShutdownRequested) isEvent() {}
