package pumpfun

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// instructionDataLen is the fixed payload size for both directions:
// 8 discriminator + u64 amount + u64 limit + 1 option flag.
const instructionDataLen = 25

// BuildBuy encodes a buy instruction.
//
// Amount semantics are the reverse of the naive reading: tokenAmount is
// the desired OUTPUT quantity (token base units), maxCostLamports is
// the spend CEILING in lamports. The program aborts if the purchase
// would cost more than the ceiling.
func BuildBuy(user, mint solana.PublicKey, set AddressSet, tokenAmount, maxCostLamports uint64) solana.Instruction {
	// The buy account list (16 entries) and the sell list below share a
	// prefix but diverge after the system program: buy puts the token
	// program BEFORE the creator vault and appends the two volume
	// accumulators that sell does not carry. The order is an on-chain
	// contract; a swap here is a runtime rejection, not a type error.
	// Built out longhand on purpose, never spliced from the sell list.
	accounts := solana.AccountMetaSlice{
		solana.Meta(GlobalAccount),
		solana.Meta(FeeRecipient).WRITE(),
		solana.Meta(mint),
		solana.Meta(set.BondingCurve).WRITE(),
		solana.Meta(set.CurveVault).WRITE(),
		solana.Meta(set.UserVault).WRITE(),
		solana.Meta(user).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(set.CreatorVault).WRITE(),
		solana.Meta(EventAuthority),
		solana.Meta(ProgramID),
		solana.Meta(set.GlobalVolume).WRITE(),
		solana.Meta(set.UserVolume).WRITE(),
		solana.Meta(set.FeeConfig),
		solana.Meta(FeeProgramID),
	}
	return solana.NewInstruction(ProgramID, accounts, encodeArgs(buyDiscriminator, tokenAmount, maxCostLamports))
}

// BuildSell encodes a sell instruction.
//
// tokenAmount is the quantity to dispose of (token base units),
// minProceedsLamports the acceptable proceeds FLOOR. The program
// aborts if the sale would return less than the floor.
func BuildSell(user, mint solana.PublicKey, set AddressSet, tokenAmount, minProceedsLamports uint64) solana.Instruction {
	// 14 entries. Sell places the creator vault immediately BEFORE the
	// token program (buy has them the other way around) and omits both
	// volume accumulators. Kept independent of the buy list so a change
	// to either cannot silently drift the other.
	accounts := solana.AccountMetaSlice{
		solana.Meta(GlobalAccount),
		solana.Meta(FeeRecipient).WRITE(),
		solana.Meta(mint),
		solana.Meta(set.BondingCurve).WRITE(),
		solana.Meta(set.CurveVault).WRITE(),
		solana.Meta(set.UserVault).WRITE(),
		solana.Meta(user).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(set.CreatorVault).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(EventAuthority),
		solana.Meta(ProgramID),
		solana.Meta(set.FeeConfig),
		solana.Meta(FeeProgramID),
	}
	return solana.NewInstruction(ProgramID, accounts, encodeArgs(sellDiscriminator, tokenAmount, minProceedsLamports))
}

func encodeArgs(disc [8]byte, amount, limit uint64) []byte {
	data := make([]byte, instructionDataLen)
	copy(data[0:8], disc[:])
	binary.LittleEndian.PutUint64(data[8:16], amount)
	binary.LittleEndian.PutUint64(data[16:24], limit)
	data[24] = 0 // optional volume-tracking flag, disabled
	return data
}

var lamportsPerSolDec = decimal.NewFromInt(LamportsPerSol)

// MaxCostLamports converts a SOL spend budget into a buy spend ceiling:
// floor(amountSol * (1 + slippageBps/10000) * 1e9). decimal keeps the
// arithmetic exact; float rounding here would move the ceiling by a
// lamport and break byte-exact reproducibility.
func MaxCostLamports(amountSol float64, slippageBps int64) uint64 {
	d := decimal.NewFromFloat(amountSol).
		Mul(decimal.NewFromInt(10_000 + slippageBps)).
		Div(decimal.NewFromInt(10_000)).
		Mul(lamportsPerSolDec).
		Floor()
	return uint64(d.IntPart())
}

// MinProceedsLamports converts an expected sale return into a floor:
// floor(expected * (1 - slippageBps/10000)).
func MinProceedsLamports(expectedLamports uint64, slippageBps int64) uint64 {
	d := decimal.NewFromUint64(expectedLamports).
		Mul(decimal.NewFromInt(10_000 - slippageBps)).
		Div(decimal.NewFromInt(10_000)).
		Floor()
	return uint64(d.IntPart())
}
