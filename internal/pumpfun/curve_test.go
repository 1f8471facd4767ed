package pumpfun

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func curveBlob(vt, vs, rt, rs, supply uint64, complete bool, creator solana.PublicKey) []byte {
	blob := make([]byte, curveAccountLen)
	copy(blob[0:8], curveDiscriminator[:])
	binary.LittleEndian.PutUint64(blob[8:16], vt)
	binary.LittleEndian.PutUint64(blob[16:24], vs)
	binary.LittleEndian.PutUint64(blob[24:32], rt)
	binary.LittleEndian.PutUint64(blob[32:40], rs)
	binary.LittleEndian.PutUint64(blob[40:48], supply)
	if complete {
		blob[48] = 1
	}
	copy(blob[49:81], creator[:])
	return blob
}

func TestDecodeCurveState(t *testing.T) {
	creator := solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	blob := curveBlob(1_073_000_000_000_000, 30_000_000_000, 793_100_000_000_000, 0, 1_000_000_000_000_000, false, creator)

	st, err := DecodeCurveState(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.VirtualTokenReserves != 1_073_000_000_000_000 {
		t.Fatalf("virtual token reserves: got %d", st.VirtualTokenReserves)
	}
	if st.VirtualSolReserves != 30_000_000_000 {
		t.Fatalf("virtual sol reserves: got %d", st.VirtualSolReserves)
	}
	if st.RealTokenReserves != 793_100_000_000_000 {
		t.Fatalf("real token reserves: got %d", st.RealTokenReserves)
	}
	if st.TokenTotalSupply != 1_000_000_000_000_000 {
		t.Fatalf("total supply: got %d", st.TokenTotalSupply)
	}
	if st.Complete {
		t.Fatalf("complete: got true want false")
	}
	if !st.Creator.Equals(creator) {
		t.Fatalf("creator: got %s want %s", st.Creator, creator)
	}
}

func TestDecodeCurveState_CorruptDiscriminator(t *testing.T) {
	blob := curveBlob(1, 2, 3, 4, 5, true, solana.PublicKey{})
	blob[0] ^= 0x01

	st, err := DecodeCurveState(blob)
	if !errors.Is(err, ErrMalformedAccount) {
		t.Fatalf("expected ErrMalformedAccount, got %v", err)
	}
	if st != nil {
		t.Fatalf("expected nil state on corrupt discriminator, got %+v", st)
	}
}

func TestDecodeCurveState_ShortBlob(t *testing.T) {
	blob := curveBlob(1, 2, 3, 4, 5, false, solana.PublicKey{})
	if _, err := DecodeCurveState(blob[:80]); !errors.Is(err, ErrMalformedAccount) {
		t.Fatalf("expected ErrMalformedAccount for short blob, got %v", err)
	}
}

func TestCurveMath_RoundTripLosesToRounding(t *testing.T) {
	st := &CurveState{
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    793_100_000_000_000,
	}

	in := uint64(10_000_000) // 0.01 SOL
	tokens := st.TokensOutForSol(in)
	if tokens == 0 {
		t.Fatalf("expected nonzero tokens out")
	}
	back := st.SolOutForTokens(tokens)
	if back > in {
		t.Fatalf("round trip created value: in=%d back=%d", in, back)
	}
	// Curve convexity and integer rounding both work against the
	// trader; for a trade this small the loss stays well under 1%.
	if in-back > in/100 {
		t.Fatalf("round trip lost too much: in=%d back=%d", in, back)
	}
}

func TestCurveMath_CappedByRealReserves(t *testing.T) {
	st := &CurveState{
		VirtualTokenReserves: 1_000_000,
		VirtualSolReserves:   1_000,
		RealTokenReserves:    10,
	}
	if got := st.TokensOutForSol(1_000_000); got != 10 {
		t.Fatalf("tokens out should cap at real reserves: got %d", got)
	}
}
