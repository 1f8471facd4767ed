// Package submit is the broadcast collaborator: it composes, signs and
// sends curve-program transactions over RPC, and serves raw account
// reads. The position controller only ever sees the narrow
// Submitter/Quoter interfaces; whether this talks to a plain RPC node
// or a priority relay is nobody's business upstream.
package submit

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/position"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/pumpfun"
)

// Client implements position.Submitter and position.Quoter against a
// Solana RPC node.
type Client struct {
	rpc    *rpc.Client
	signer solana.PrivateKey
	wallet solana.PublicKey

	// dryRun suppresses broadcast; everything up to signing still runs
	// so a dry run exercises the full encode path.
	dryRun bool
}

func New(rpcURL string, signer solana.PrivateKey, dryRun bool) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		signer: signer,
		wallet: signer.PublicKey(),
		dryRun: dryRun,
	}
}

// FetchAccountBytes returns the raw data of one account.
func (c *Client) FetchAccountBytes(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	out, err := c.rpc.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch account %s: %w", addr, err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("fetch account %s: not found", addr)
	}
	return out.Value.Data.GetBinary(), nil
}

// fetchCurve reads and decodes the curve state for mint.
func (c *Client) fetchCurve(ctx context.Context, mint solana.PublicKey) (*pumpfun.CurveState, solana.PublicKey, error) {
	curveAddr, err := pumpfun.DeriveBondingCurve(mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	raw, err := c.FetchAccountBytes(ctx, curveAddr)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	st, err := pumpfun.DecodeCurveState(raw)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return st, curveAddr, nil
}

// SubmitBuy enters a position: quotes tokens out for the SOL budget,
// encodes the buy with a slippage ceiling, signs and broadcasts.
func (c *Client) SubmitBuy(ctx context.Context, mint, creator solana.PublicKey, solAmount float64, slippageBps int64) (position.EntryReceipt, error) {
	st, _, err := c.fetchCurve(ctx, mint)
	if err != nil {
		return position.EntryReceipt{}, err
	}
	if st.Complete {
		return position.EntryReceipt{}, fmt.Errorf("curve for %s already complete", mint)
	}

	// The curve state, not the creation transaction, is the authority
	// on the creator. A wrong creator derives a wrong fee vault and the
	// program rejects the instruction on-chain.
	set, err := pumpfun.DeriveAddressSet(mint, c.wallet, st.Creator)
	if err != nil {
		return position.EntryReceipt{}, err
	}

	lamports := uint64(math.Floor(solAmount * pumpfun.LamportsPerSol))
	tokensOut := st.TokensOutForSol(lamports)
	if tokensOut == 0 {
		return position.EntryReceipt{}, fmt.Errorf("zero tokens out for %.4f SOL", solAmount)
	}
	maxCost := pumpfun.MaxCostLamports(solAmount, slippageBps)

	ix := pumpfun.BuildBuy(c.wallet, mint, set, tokensOut, maxCost)
	sig, err := c.sendInstruction(ctx, ix)
	if err != nil {
		return position.EntryReceipt{}, err
	}

	return position.EntryReceipt{
		Signature:    sig,
		TokensBought: float64(tokensOut),
		SolSpent:     solAmount,
		Creator:      st.Creator,
	}, nil
}

// SubmitSell disposes of tokenAmount base units with a proceeds floor
// derived from the current curve quote minus slippageBps.
func (c *Client) SubmitSell(ctx context.Context, mint, creator solana.PublicKey, tokenAmount float64, slippageBps int64) (string, error) {
	st, _, err := c.fetchCurve(ctx, mint)
	if err != nil {
		return "", err
	}

	set, err := pumpfun.DeriveAddressSet(mint, c.wallet, st.Creator)
	if err != nil {
		return "", err
	}

	tokens := uint64(math.Floor(tokenAmount))
	if tokens == 0 {
		return "", fmt.Errorf("nothing to sell")
	}
	expected := st.SolOutForTokens(tokens)
	minProceeds := pumpfun.MinProceedsLamports(expected, slippageBps)

	ix := pumpfun.BuildSell(c.wallet, mint, set, tokens, minProceeds)
	return c.sendInstruction(ctx, ix)
}

// QuoteSellSol prices a hypothetical full sale of tokenAmount.
func (c *Client) QuoteSellSol(ctx context.Context, mint solana.PublicKey, tokenAmount float64) (float64, error) {
	st, _, err := c.fetchCurve(ctx, mint)
	if err != nil {
		return 0, err
	}
	lamports := st.SolOutForTokens(uint64(math.Floor(tokenAmount)))
	return float64(lamports) / pumpfun.LamportsPerSol, nil
}

func (c *Client) sendInstruction(ctx context.Context, ix solana.Instruction) (string, error) {
	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		recent.Value.Blockhash,
		solana.TransactionPayer(c.wallet),
	)
	if err != nil {
		return "", fmt.Errorf("build tx: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.wallet) {
			return &c.signer
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}

	if c.dryRun {
		sig := "dry-" + uuid.NewString()
		log.Printf("[dry] would broadcast %s", sig)
		return sig, nil
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return "", fmt.Errorf("broadcast: %w", err)
	}
	return sig.String(), nil
}
