package txwatch

import (
	"github.com/gagliardetto/solana-go"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/pumpfun"
)

// DetectCreation reports a mint present in the post-state token
// balances but absent from the pre-state ones.
//
// This is a mint-on-first-touch heuristic, not a program-level creation
// event: a transaction that merely creates an associated account for a
// pre-existing mint the watcher has never seen looks identical. The
// creator is taken as the fee payer (account key 0), which holds for
// curve-program launches.
func DetectCreation(rec *TxRecord) *Created {
	if rec == nil || rec.Failed || len(rec.AccountKeys) == 0 {
		return nil
	}

	pre := make(map[solana.PublicKey]struct{}, len(rec.PreTokenBalances))
	for _, tb := range rec.PreTokenBalances {
		pre[tb.Mint] = struct{}{}
	}
	for _, tb := range rec.PostTokenBalances {
		if tb.Mint.IsZero() {
			continue
		}
		if _, ok := pre[tb.Mint]; ok {
			continue
		}
		return &Created{
			Mint:      tb.Mint,
			Creator:   rec.AccountKeys[0],
			Signature: rec.Signature,
			At:        rec.ReceivedAt,
		}
	}
	return nil
}

// DetectTrade classifies a transaction's effect on one tracked mint.
// Direction comes from the net lamport movement on the mint's curve
// account: lamports flowing in is a buy, out is a sell. Records that
// touch neither the curve's lamport balance nor the mint's token
// balances return nil.
func DetectTrade(rec *TxRecord, mint solana.PublicKey, curve solana.PublicKey) *Trade {
	if rec == nil || rec.Failed {
		return nil
	}
	if len(rec.PreBalances) != len(rec.AccountKeys) || len(rec.PostBalances) != len(rec.AccountKeys) {
		// Partial metadata; skip rather than guess.
		return nil
	}

	curveIdx := -1
	for i, key := range rec.AccountKeys {
		if key.Equals(curve) {
			curveIdx = i
			break
		}
	}
	if curveIdx < 0 {
		return nil
	}

	pre := rec.PreBalances[curveIdx]
	post := rec.PostBalances[curveIdx]
	if pre == post {
		return nil
	}

	var side Side
	var deltaLamports uint64
	if post > pre {
		side = SideBuy
		deltaLamports = post - pre
	} else {
		side = SideSell
		deltaLamports = pre - post
	}

	return &Trade{
		Mint:      mint,
		Side:      side,
		SolValue:  float64(deltaLamports) / pumpfun.LamportsPerSol,
		Signature: rec.Signature,
		At:        rec.ReceivedAt,
	}
}
