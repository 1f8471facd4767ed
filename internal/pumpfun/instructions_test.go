package pumpfun

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func testAddressSet() (user, mint solana.PublicKey, set AddressSet) {
	pk := func(b byte) solana.PublicKey {
		var raw [32]byte
		for i := range raw {
			raw[i] = b
		}
		return solana.PublicKeyFromBytes(raw[:])
	}
	user = pk(0x01)
	mint = pk(0x02)
	set = AddressSet{
		BondingCurve: pk(0x03),
		CurveVault:   pk(0x04),
		UserVault:    pk(0x05),
		CreatorVault: pk(0x06),
		GlobalVolume: pk(0x07),
		UserVolume:   pk(0x08),
		FeeConfig:    pk(0x09),
	}
	return user, mint, set
}

func TestBuildBuy_AccountOrderExact(t *testing.T) {
	user, mint, set := testAddressSet()
	ix := BuildBuy(user, mint, set, 1, 1)

	want := []solana.PublicKey{
		GlobalAccount,
		FeeRecipient,
		mint,
		set.BondingCurve,
		set.CurveVault,
		set.UserVault,
		user,
		solana.SystemProgramID,
		solana.TokenProgramID,
		set.CreatorVault,
		EventAuthority,
		ProgramID,
		set.GlobalVolume,
		set.UserVolume,
		set.FeeConfig,
		FeeProgramID,
	}
	accounts := ix.Accounts()
	if len(accounts) != 16 {
		t.Fatalf("buy account count: got %d want 16", len(accounts))
	}
	for i, meta := range accounts {
		if !meta.PublicKey.Equals(want[i]) {
			t.Fatalf("buy account[%d]: got %s want %s", i, meta.PublicKey, want[i])
		}
	}
	if !accounts[6].IsSigner || !accounts[6].IsWritable {
		t.Fatalf("buy user account must be writable signer")
	}
	for i, meta := range accounts {
		if i != 6 && meta.IsSigner {
			t.Fatalf("buy account[%d] unexpectedly a signer", i)
		}
	}
}

func TestBuildSell_AccountOrderExact(t *testing.T) {
	user, mint, set := testAddressSet()
	ix := BuildSell(user, mint, set, 1, 1)

	// Creator vault sits immediately before the token program here;
	// the buy list has them reversed and carries two extra volume
	// accumulator accounts.
	want := []solana.PublicKey{
		GlobalAccount,
		FeeRecipient,
		mint,
		set.BondingCurve,
		set.CurveVault,
		set.UserVault,
		user,
		solana.SystemProgramID,
		set.CreatorVault,
		solana.TokenProgramID,
		EventAuthority,
		ProgramID,
		set.FeeConfig,
		FeeProgramID,
	}
	accounts := ix.Accounts()
	if len(accounts) != 14 {
		t.Fatalf("sell account count: got %d want 14", len(accounts))
	}
	for i, meta := range accounts {
		if !meta.PublicKey.Equals(want[i]) {
			t.Fatalf("sell account[%d]: got %s want %s", i, meta.PublicKey, want[i])
		}
	}
}

func TestBuySellAccountListsDifferByTwo(t *testing.T) {
	user, mint, set := testAddressSet()
	buy := BuildBuy(user, mint, set, 1, 1)
	sell := BuildSell(user, mint, set, 1, 1)
	if diff := len(buy.Accounts()) - len(sell.Accounts()); diff != 2 {
		t.Fatalf("account count difference: got %d want 2", diff)
	}
}

func TestBuildBuy_PayloadBytes(t *testing.T) {
	user, mint, set := testAddressSet()

	const tokenAmount = uint64(100_000_000_000)
	maxCost := MaxCostLamports(0.01, 500)
	if want := uint64(10_500_000); maxCost != want {
		t.Fatalf("max cost: got %d want %d", maxCost, want)
	}

	ix := BuildBuy(user, mint, set, tokenAmount, maxCost)
	data, err := ix.Data()
	if err != nil {
		t.Fatalf("instruction data: %v", err)
	}
	if len(data) != 25 {
		t.Fatalf("payload length: got %d want 25", len(data))
	}
	if !bytes.Equal(data[0:8], buyDiscriminator[:]) {
		t.Fatalf("payload discriminator mismatch: %x", data[0:8])
	}
	if got := binary.LittleEndian.Uint64(data[8:16]); got != tokenAmount {
		t.Fatalf("payload amount: got %d want %d", got, tokenAmount)
	}
	if got := binary.LittleEndian.Uint64(data[16:24]); got != maxCost {
		t.Fatalf("payload limit: got %d want %d", got, maxCost)
	}
	if data[24] != 0 {
		t.Fatalf("payload flag: got %d want 0", data[24])
	}
}

func TestBuildSell_PayloadBytes(t *testing.T) {
	user, mint, set := testAddressSet()

	const tokenAmount = uint64(42_000_000)
	minProceeds := MinProceedsLamports(1_000_000, 500)
	if want := uint64(950_000); minProceeds != want {
		t.Fatalf("min proceeds: got %d want %d", minProceeds, want)
	}

	ix := BuildSell(user, mint, set, tokenAmount, minProceeds)
	data, err := ix.Data()
	if err != nil {
		t.Fatalf("instruction data: %v", err)
	}
	if len(data) != 25 {
		t.Fatalf("payload length: got %d want 25", len(data))
	}
	if !bytes.Equal(data[0:8], sellDiscriminator[:]) {
		t.Fatalf("payload discriminator mismatch: %x", data[0:8])
	}
	if got := binary.LittleEndian.Uint64(data[8:16]); got != tokenAmount {
		t.Fatalf("payload amount: got %d want %d", got, tokenAmount)
	}
	if got := binary.LittleEndian.Uint64(data[16:24]); got != minProceeds {
		t.Fatalf("payload limit: got %d want %d", got, minProceeds)
	}
}
