package oracle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// feeSettlement is the payment strategy invoked by a fetch. A deployment
// wires exactly one strategy per fetch entry point; the fetch logic itself
// never knows which one is active.
type feeSettlement interface {
	// settleFee moves amount from payer to the fee account within the
	// running transaction. Implementations must keep any vault call their
	// last fallible step.
	settleFee(o *Oracle, s *state, payer common.Address, amount *big.Int) error
}

// prepaidSettlement draws the fee from the payer's escrow balance and
// credits the fee account's escrow. A pure internal transfer: no external
// value moves, so the escrow total is conserved.
type prepaidSettlement struct{}

func (prepaidSettlement) settleFee(_ *Oracle, s *state, payer common.Address, amount *big.Int) error {
	return s.escrow.Transfer(payer, s.feeAccount, amount)
}

// directSettlement pulls the fee from the payer's external vault balance
// into oracle custody and credits the fee account's escrow in the same
// step, bypassing the payer's own escrow entirely.
type directSettlement struct{}

func (directSettlement) settleFee(o *Oracle, s *state, payer common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := o.vault.Transfer(payer, o.account, o.denom, amount); err != nil {
		return err
	}
	// Custody grew by the same amount, so crediting the fee account's
	// escrow keeps the deposit total within the vault balance.
	return s.escrow.Deposit(s.feeAccount, amount)
}
