package oracle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/aml-oracle-backend/interfaces"
)

// Compile-time checks: both variants expose the full oracle surface.
var (
	_ interfaces.AMLOracle     = (*NativeOracle)(nil)
	_ interfaces.AMLOracle     = (*TokenOracle)(nil)
	_ interfaces.DirectFetcher = (*TokenOracle)(nil)
)

// NativeOracle is the deployment variant denominated in the substrate's
// native currency. Fetch fees settle from prepaid escrow only.
type NativeOracle struct {
	*Oracle
}

// NewNativeOracle constructs the native-denominated variant. Unless
// overridden, recovery is gated by the fixed RECOVER_ROLE identifier.
func NewNativeOracle(cfg Config, vault interfaces.AssetVault) (*NativeOracle, error) {
	cfg.Denomination = interfaces.NativeAsset
	if cfg.RecoverRole == interfaces.RoleAdmin {
		cfg.RecoverRole = interfaces.Role("RECOVER_ROLE")
	}
	o, err := newOracle(cfg, vault)
	if err != nil {
		return nil, err
	}
	return &NativeOracle{Oracle: o}, nil
}

// TokenOracle is the deployment variant denominated in a designated token.
// Alongside the prepaid fetch it offers a pay-as-you-go entry point pulling
// the fee straight from the caller's token balance at fetch time.
type TokenOracle struct {
	*Oracle
	token interfaces.AssetID
}

// NewTokenOracle constructs the token-denominated variant. Unless
// overridden, recovery is gated by the role derived from the recovery
// operation's own signature, keeping the two variants structurally
// identical while their role identifiers differ.
func NewTokenOracle(cfg Config, vault interfaces.AssetVault, token interfaces.AssetID) (*TokenOracle, error) {
	cfg.Denomination = token
	if cfg.RecoverRole == interfaces.RoleAdmin {
		cfg.RecoverRole = interfaces.Role("recoverTokens()")
	}
	o, err := newOracle(cfg, vault)
	if err != nil {
		return nil, err
	}
	return &TokenOracle{Oracle: o, token: token}, nil
}

// Token returns the asset the deployment is denominated in.
func (t *TokenOracle) Token() interfaces.AssetID {
	return t.token
}

// FetchAMLStatusDirect behaves like FetchAMLStatus but settles the fee
// pay-as-you-go: the required amount is pulled from the caller's external
// token balance, leaving the caller's escrow untouched. Callers who prefer
// to prepay keep using FetchAMLStatus.
func (t *TokenOracle) FetchAMLStatusDirect(caller common.Address, maxFee *big.Int, target string) (interfaces.AMLID, uint8, uint64, error) {
	return t.fetchWith(directSettlement{}, caller, maxFee, target)
}
