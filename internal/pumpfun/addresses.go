package pumpfun

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AddressSet holds every program-derived address a buy or sell against
// one mint needs. Derivation is deterministic: the same (mint, user,
// creator) triple always yields the same set.
type AddressSet struct {
	BondingCurve solana.PublicKey // curve state account
	CurveVault   solana.PublicKey // curve's associated token account
	UserVault    solana.PublicKey // user's associated token account
	CreatorVault solana.PublicKey // creator fee vault
	GlobalVolume solana.PublicKey // global volume accumulator (buy only)
	UserVolume   solana.PublicKey // per-user volume accumulator (buy only)
	FeeConfig    solana.PublicKey // fee schedule account (fee program)
}

// DeriveAddressSet computes the full address set for trading mint as
// user, where creator is the curve's recorded creator. A wrong creator
// yields a creator vault the program will reject at runtime, so the
// caller must take creator from the decoded curve state, not from the
// creation transaction alone.
func DeriveAddressSet(mint, user, creator solana.PublicKey) (AddressSet, error) {
	curve, err := DeriveBondingCurve(mint)
	if err != nil {
		return AddressSet{}, err
	}
	curveVault, _, err := solana.FindAssociatedTokenAddress(curve, mint)
	if err != nil {
		return AddressSet{}, fmt.Errorf("derive curve vault: %w", err)
	}
	userVault, _, err := solana.FindAssociatedTokenAddress(user, mint)
	if err != nil {
		return AddressSet{}, fmt.Errorf("derive user vault: %w", err)
	}
	creatorVault, err := deriveProgram("creator vault", seedCreatorVault, creator[:])
	if err != nil {
		return AddressSet{}, err
	}
	globalVolume, err := deriveProgram("global volume accumulator", seedGlobalVolume)
	if err != nil {
		return AddressSet{}, err
	}
	userVolume, err := deriveProgram("user volume accumulator", seedUserVolume, user[:])
	if err != nil {
		return AddressSet{}, err
	}
	feeConfig, _, err := solana.FindProgramAddress([][]byte{seedFeeConfig, ProgramID[:]}, FeeProgramID)
	if err != nil {
		return AddressSet{}, fmt.Errorf("derive fee config: %w", err)
	}

	return AddressSet{
		BondingCurve: curve,
		CurveVault:   curveVault,
		UserVault:    userVault,
		CreatorVault: creatorVault,
		GlobalVolume: globalVolume,
		UserVolume:   userVolume,
		FeeConfig:    feeConfig,
	}, nil
}

// DeriveBondingCurve returns the curve state account for mint.
func DeriveBondingCurve(mint solana.PublicKey) (solana.PublicKey, error) {
	return deriveProgram("bonding curve", seedBondingCurve, mint[:])
}

func deriveProgram(what string, seeds ...[]byte) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		// No valid bump in 255..0. Unreachable for the seed tags used
		// here; surfacing it as an error keeps the failure loud.
		return solana.PublicKey{}, fmt.Errorf("derive %s: %w", what, err)
	}
	return addr, nil
}
