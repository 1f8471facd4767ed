package position

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Effect is an action the runner must execute on the reducer's behalf.
// Effects are plain data so the decision logic stays synchronous and
// testable without any transport.
type Effect interface {
	isEffect()
}

// SubmitEntry asks the runner to buy into a freshly launched mint.
type SubmitEntry struct {
	PositionID  string
	Mint        solana.PublicKey
	Creator     solana.PublicKey
	SolAmount   float64
	SlippageBps int64
}

func (SubmitEntry) isEffect() {}

// SubmitExit asks the runner to sell TokenAmount base units.
type SubmitExit struct {
	PositionID  string
	Mint        solana.PublicKey
	Creator     solana.PublicKey
	TokenAmount float64
	SlippageBps int64
	Partial     bool
	Reason      string
}

func (SubmitExit) isEffect() {}

// LogTransition reports a state change and its trigger to the journal.
type LogTransition struct {
	PositionID string
	From, To   State
	Reason     string
	At         time.Time
}

func (LogTransition) isEffect() {}
