package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/aml-oracle-backend/interfaces"
)

// Escrow is the per-identity prepaid balance book, denominated in a single
// fungible unit. The running total of all balances is maintained alongside
// the accounts: it is the exclusion bound stray-asset recovery must respect,
// since the vault may hold more of the denomination than was deposited
// through the defined paths.
//
// Deposit and Withdraw move the total; Transfer is a pure internal move and
// leaves it untouched. The escrow is not safe for concurrent use on its own;
// the owning oracle serializes access.
type Escrow struct {
	balances map[common.Address]*big.Int
	total    *big.Int
}

// NewEscrow creates an empty escrow book.
func NewEscrow() *Escrow {
	return &Escrow{
		balances: make(map[common.Address]*big.Int),
		total:    new(big.Int),
	}
}

// BalanceOf returns a copy of the account's balance. Accounts are created
// implicitly on first deposit; unknown accounts report zero.
func (e *Escrow) BalanceOf(account common.Address) *big.Int {
	if b, ok := e.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// TotalDeposits returns a copy of the sum of all escrow balances.
func (e *Escrow) TotalDeposits() *big.Int {
	return new(big.Int).Set(e.total)
}

// Deposit credits the account. The amount must be positive.
func (e *Escrow) Deposit(account common.Address, amount *big.Int) error {
	if !positive(amount) {
		return interfaces.ErrInvalidAmount
	}
	e.credit(account, amount)
	e.total.Add(e.total, amount)
	return nil
}

// Withdraw debits the account. The amount must be positive and must not
// exceed the account's balance.
func (e *Escrow) Withdraw(account common.Address, amount *big.Int) error {
	if !positive(amount) {
		return interfaces.ErrInvalidAmount
	}
	if err := e.debit(account, amount); err != nil {
		return err
	}
	e.total.Sub(e.total, amount)
	return nil
}

// Transfer atomically debits payer and credits payee within the book. No
// external value moves, so the total is conserved. A zero amount is
// permitted: fee charges of zero are legal.
func (e *Escrow) Transfer(payer, payee common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return interfaces.ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := e.debit(payer, amount); err != nil {
		return err
	}
	e.credit(payee, amount)
	return nil
}

// Clone returns a deep copy of the book for the snapshot-and-commit
// transaction wrapper.
func (e *Escrow) Clone() *Escrow {
	c := &Escrow{
		balances: make(map[common.Address]*big.Int, len(e.balances)),
		total:    new(big.Int).Set(e.total),
	}
	for account, balance := range e.balances {
		c.balances[account] = new(big.Int).Set(balance)
	}
	return c
}

func (e *Escrow) credit(account common.Address, amount *big.Int) {
	if b, ok := e.balances[account]; ok {
		b.Add(b, amount)
		return
	}
	e.balances[account] = new(big.Int).Set(amount)
}

func (e *Escrow) debit(account common.Address, amount *big.Int) error {
	b, ok := e.balances[account]
	if !ok || b.Cmp(amount) < 0 {
		return interfaces.ErrInsufficientBalance
	}
	b.Sub(b, amount)
	return nil
}

func positive(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}
