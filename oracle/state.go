package oracle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/aml-oracle-backend/audit"
	"github.com/ruteri/aml-oracle-backend/interfaces"
	"github.com/ruteri/aml-oracle-backend/ledger"
	"github.com/ruteri/aml-oracle-backend/roles"
)

// statusKey is the composite key of the status registry: the paying client
// and the opaque target label the assessment is about.
type statusKey struct {
	client common.Address
	target string
}

// state is everything a transaction may touch: role membership, escrow
// balances, status records and the fee settings, plus the audit events
// staged by the running operation.
//
// Public operations never mutate the live state directly. They work on a
// clone; the oracle swaps the pointer on success and drops the clone on
// failure, which is what makes every operation all-or-nothing.
type state struct {
	roles      *roles.Registry
	escrow     *ledger.Escrow
	statuses   map[statusKey]interfaces.AMLStatus
	feeAccount common.Address
	defaultFee *big.Int

	// events staged by the current transaction, emitted only after commit.
	events []audit.Event
}

func newState(admin common.Address, defaultFee *big.Int) *state {
	return &state{
		roles:      roles.New(admin),
		escrow:     ledger.NewEscrow(),
		statuses:   make(map[statusKey]interfaces.AMLStatus),
		feeAccount: admin,
		defaultFee: new(big.Int).Set(defaultFee),
	}
}

// clone deep-copies the state. The staged event list starts empty: events
// belong to a single transaction.
func (s *state) clone() *state {
	c := &state{
		roles:      s.roles.Clone(),
		escrow:     s.escrow.Clone(),
		statuses:   make(map[statusKey]interfaces.AMLStatus, len(s.statuses)),
		feeAccount: s.feeAccount,
		defaultFee: new(big.Int).Set(s.defaultFee),
	}
	for k, rec := range s.statuses {
		cp := rec
		if rec.Fee != nil {
			cp.Fee = new(big.Int).Set(rec.Fee)
		}
		c.statuses[k] = cp
	}
	return c
}

func (s *state) emit(ev audit.Event) {
	s.events = append(s.events, ev)
}
