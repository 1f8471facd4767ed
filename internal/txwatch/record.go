// Package txwatch turns raw ledger transaction records into the two
// signals the sniper acts on: a brand-new mint appearing, and a
// buy/sell against a tracked curve. Classification is best-effort
// telemetry: malformed records classify as nothing, never as an error.
package txwatch

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Side is a trade direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TokenBalance is one pre- or post-state token balance entry.
type TokenBalance struct {
	AccountIndex int
	Mint         solana.PublicKey
	Owner        solana.PublicKey
	// Amount is in token base units.
	Amount float64
}

// TxRecord is a flattened view of one confirmed transaction: account
// keys (static plus loaded), lamport balances and token balances
// before and after execution. The subscription collaborator produces
// these; this package never fetches anything.
type TxRecord struct {
	Signature string
	Slot      uint64
	Failed    bool

	AccountKeys []solana.PublicKey

	PreBalances  []uint64
	PostBalances []uint64

	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance

	ReceivedAt time.Time
}

// Created signals a mint that first appeared in this transaction.
type Created struct {
	Mint      solana.PublicKey
	Creator   solana.PublicKey
	Signature string
	At        time.Time
}

// Trade is a classified buy or sell against a tracked curve.
type Trade struct {
	Mint      solana.PublicKey
	Side      Side
	SolValue  float64 // lamport delta on the curve account, in SOL
	Signature string
	At        time.Time
}
