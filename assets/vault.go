package assets

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/aml-oracle-backend/interfaces"
)

// ErrInsufficientFunds is returned when a transfer exceeds the sender's
// vault balance.
var ErrInsufficientFunds = errors.New("insufficient vault funds")

// Vault is an in-memory implementation of interfaces.AssetVault. It stands
// in for the external value-transfer substrate in tests and single-node
// deployments, tracking per-identity balances of arbitrary fungible assets.
//
// A production deployment would back this interface with the hosting
// ledger's own transfer primitives.
type Vault struct {
	mu       sync.RWMutex
	balances map[interfaces.AssetID]map[common.Address]*big.Int
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{
		balances: make(map[interfaces.AssetID]map[common.Address]*big.Int),
	}
}

// Mint credits holder with amount of asset out of thin air. This is the
// seeding hook for tests and the local daemon; the real substrate issues
// value through its own rules.
func (v *Vault) Mint(holder common.Address, asset interfaces.AssetID, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.credit(holder, asset, amount)
}

// BalanceOf returns a copy of holder's balance of asset.
func (v *Vault) BalanceOf(holder common.Address, asset interfaces.AssetID) *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if b, ok := v.balances[asset][holder]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Transfer moves amount of asset from one identity to another. It either
// fully applies or fails without effect. Zero-amount transfers succeed and
// move nothing.
func (v *Vault) Transfer(from, to common.Address, asset interfaces.AssetID, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return interfaces.ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	b, ok := v.balances[asset][from]
	if !ok || b.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	b.Sub(b, amount)
	v.credit(to, asset, amount)
	return nil
}

func (v *Vault) credit(holder common.Address, asset interfaces.AssetID, amount *big.Int) {
	holders, ok := v.balances[asset]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		v.balances[asset] = holders
	}
	if b, ok := holders[holder]; ok {
		b.Add(b, amount)
		return
	}
	holders[holder] = new(big.Int).Set(amount)
}
