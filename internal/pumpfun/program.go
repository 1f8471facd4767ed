// Package pumpfun implements the wire-level contract of the pump.fun
// bonding-curve program: program-derived addresses, the bonding-curve
// account layout, and the buy/sell instruction encodings.
//
// Everything in this package is pure and stateless; account bytes come
// from the caller and instructions go back to the caller. The layouts
// mirror an external on-chain program, so field order and byte widths
// here are not negotiable.
package pumpfun

import "github.com/gagliardetto/solana-go"

var (
	// ProgramID is the pump.fun bonding-curve program.
	ProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// FeeProgramID owns the fee-config account referenced by buy/sell.
	FeeProgramID = solana.MustPublicKeyFromBase58("pfeeUxB6jkeY1Hxd7CsFCAjcbHA9rWtchMGdZ6VojVZ")

	// GlobalAccount holds program-wide parameters.
	GlobalAccount = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")

	// FeeRecipient receives protocol fees on buy and sell.
	FeeRecipient = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")

	// EventAuthority is the program's CPI event signer.
	EventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
)

// PDA seed tags, byte-exact per the program source. Note the mix of
// hyphenated and underscored tags; they are not interchangeable.
var (
	seedBondingCurve = []byte("bonding-curve")
	seedCreatorVault = []byte("creator-vault")
	seedGlobalVolume = []byte("global_volume_accumulator")
	seedUserVolume   = []byte("user_volume_accumulator")
	seedFeeConfig    = []byte("fee_config")
)

// Instruction discriminators (anchor sighash of the method name).
var (
	buyDiscriminator  = [8]byte{102, 6, 61, 18, 1, 218, 235, 234}
	sellDiscriminator = [8]byte{51, 230, 133, 164, 1, 127, 131, 173}
)

// curveDiscriminator identifies the BondingCurve account layout.
var curveDiscriminator = [8]byte{23, 183, 248, 55, 96, 216, 172, 96}

// LamportsPerSol is the base-unit scale of the chain's native token.
const LamportsPerSol = 1_000_000_000
