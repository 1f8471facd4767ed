package pumpfun

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// ErrMalformedAccount is returned when account bytes do not carry a
// well-formed bonding-curve state.
var ErrMalformedAccount = errors.New("pumpfun: malformed curve account")

// curveAccountLen is the fixed size of the account blob:
// 8 discriminator + 5*8 u64 + 1 bool + 32 creator.
const curveAccountLen = 81

// CurveState is a decoded snapshot of one bonding-curve account.
type CurveState struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Creator              solana.PublicKey
}

// DecodeCurveState decodes a raw curve account blob. The caller is
// responsible for fetching the bytes; this function never does I/O.
//
// Decoding is all-or-nothing: a bad length or discriminator returns
// ErrMalformedAccount and no partial state.
func DecodeCurveState(data []byte) (*CurveState, error) {
	if len(data) < curveAccountLen {
		return nil, fmt.Errorf("%w: len=%d want>=%d", ErrMalformedAccount, len(data), curveAccountLen)
	}
	if !bytes.Equal(data[:8], curveDiscriminator[:]) {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrMalformedAccount)
	}

	readU64 := func(off int) uint64 {
		return binary.LittleEndian.Uint64(data[off : off+8])
	}

	st := &CurveState{
		VirtualTokenReserves: readU64(8),
		VirtualSolReserves:   readU64(16),
		RealTokenReserves:    readU64(24),
		RealSolReserves:      readU64(32),
		TokenTotalSupply:     readU64(40),
		Complete:             data[48] != 0,
		Creator:              solana.PublicKeyFromBytes(data[49:81]),
	}
	return st, nil
}

// TokensOutForSol returns how many token base units the curve pays out
// for lamports of input, per the constant-product invariant on the
// virtual reserves. Integer math throughout; the product of two u64
// reserves needs a big.Int.
func (c *CurveState) TokensOutForSol(lamports uint64) uint64 {
	if lamports == 0 || c.VirtualSolReserves == 0 || c.VirtualTokenReserves == 0 {
		return 0
	}
	k := new(big.Int).Mul(
		new(big.Int).SetUint64(c.VirtualSolReserves),
		new(big.Int).SetUint64(c.VirtualTokenReserves),
	)
	newSol := new(big.Int).SetUint64(c.VirtualSolReserves + lamports)
	newTokens := new(big.Int).Quo(k, newSol)
	out := new(big.Int).Sub(new(big.Int).SetUint64(c.VirtualTokenReserves), newTokens)
	if out.Sign() <= 0 {
		return 0
	}
	// Never promise more than the real reserve still holds.
	if out.Cmp(new(big.Int).SetUint64(c.RealTokenReserves)) > 0 {
		return c.RealTokenReserves
	}
	return out.Uint64()
}

// SolOutForTokens returns the lamports the curve pays out for selling
// tokens base units back into it.
func (c *CurveState) SolOutForTokens(tokens uint64) uint64 {
	if tokens == 0 || c.VirtualSolReserves == 0 || c.VirtualTokenReserves == 0 {
		return 0
	}
	k := new(big.Int).Mul(
		new(big.Int).SetUint64(c.VirtualSolReserves),
		new(big.Int).SetUint64(c.VirtualTokenReserves),
	)
	newTokens := new(big.Int).SetUint64(c.VirtualTokenReserves + tokens)
	newSol := new(big.Int).Quo(k, newTokens)
	out := new(big.Int).Sub(new(big.Int).SetUint64(c.VirtualSolReserves), newSol)
	if out.Sign() <= 0 {
		return 0
	}
	return out.Uint64()
}
