package oracle

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/aml-oracle-backend/audit"
	"github.com/ruteri/aml-oracle-backend/interfaces"
)

// ErrNoAdmin is returned when an oracle is constructed without a root admin.
var ErrNoAdmin = errors.New("oracle requires a root admin identity")

// ErrNoAccount is returned when an oracle is constructed without a custody
// account in the vault.
var ErrNoAccount = errors.New("oracle requires a custody account")

// FeePolicy decides when a record's own fee is considered "unset" and the
// default fee applies instead.
type FeePolicy int

const (
	// FeeFallbackOnZero treats a stored fee of zero as unset and falls back
	// to the default fee. This matches the original oracle behavior.
	FeeFallbackOnZero FeePolicy = iota

	// FeeAlwaysStored always charges the stored fee, even when zero.
	FeeAlwaysStored
)

// Config carries the construction-time parameters of an oracle deployment.
type Config struct {
	// Admin is seeded as the root admin, holds every operational role
	// initially and is the initial fee account.
	Admin common.Address

	// Account is the oracle's custody identity in the vault. Deposited
	// escrow funds and directly-settled fees accumulate here.
	Account common.Address

	// Denomination is the fungible unit escrow balances are kept in. Set by
	// the variant constructors.
	Denomination interfaces.AssetID

	// DefaultFee is the query fee charged when a record's own fee is unset.
	DefaultFee *big.Int

	// RecoverRole gates stray-asset recovery. Its derivation differs
	// between deployment variants, so it is injected rather than fixed.
	RecoverRole interfaces.RoleID

	FeePolicy FeePolicy

	// Clock stamps status records and audit events. Defaults to time.Now.
	Clock func() time.Time

	Log   *slog.Logger
	Audit audit.Sink
}

// Oracle is the AML status registry core shared by both deployment
// variants: role-gated status writes, escrow accounting across the two
// payment strategies, and stray-asset recovery.
//
// Every public operation executes as a single indivisible transaction
// against the oracle's state. Failures abort the whole operation: no
// partial writes survive and no audit event is emitted.
type Oracle struct {
	mu    sync.RWMutex
	st    *state
	vault interfaces.AssetVault

	account     common.Address
	denom       interfaces.AssetID
	recoverRole interfaces.RoleID
	feePolicy   FeePolicy

	clock func() time.Time
	log   *slog.Logger
	sink  audit.Sink
}

func newOracle(cfg Config, vault interfaces.AssetVault) (*Oracle, error) {
	if cfg.Admin == interfaces.NullIdentity {
		return nil, ErrNoAdmin
	}
	if cfg.Account == interfaces.NullIdentity {
		return nil, ErrNoAccount
	}
	if cfg.DefaultFee == nil {
		cfg.DefaultFee = new(big.Int)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Audit == nil {
		cfg.Audit = &audit.SlogSink{Log: cfg.Log}
	}

	o := &Oracle{
		st:          newState(cfg.Admin, cfg.DefaultFee),
		vault:       vault,
		account:     cfg.Account,
		denom:       cfg.Denomination,
		recoverRole: cfg.RecoverRole,
		feePolicy:   cfg.FeePolicy,
		clock:       cfg.Clock,
		log:         cfg.Log,
		sink:        cfg.Audit,
	}

	// The admin starts out holding every operational role, mirroring a
	// fresh deployment where the deployer wires up the real operators
	// afterwards.
	for _, role := range []interfaces.RoleID{
		interfaces.RoleSetAMLStatus,
		interfaces.RoleDeleteAMLStatus,
		interfaces.RoleNotifyClients,
		interfaces.RoleSetDefaultFee,
		interfaces.RoleSetFeeAccount,
		cfg.RecoverRole,
	} {
		o.st.roles.Seed(role, cfg.Admin)
	}
	return o, nil
}

// runTx executes fn against a clone of the state and commits the clone only
// if fn succeeds. At most one vault call may happen inside fn and it must
// be fn's last fallible step: the vault either applied it atomically or
// failed without effect, so the commit/rollback decision stays consistent
// across both stores.
func (o *Oracle) runTx(fn func(s *state) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	work := o.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	o.st = work

	events := work.events
	work.events = nil
	for _, ev := range events {
		if err := o.sink.Append(context.Background(), ev); err != nil {
			// The transaction is committed; losing a sink write must not
			// unwind it. Surface loudly instead.
			o.log.Error("audit sink append failed",
				"err", err,
				slog.String("kind", string(ev.Kind)),
				slog.String("id", ev.ID.String()))
		}
	}
	return nil
}

func (o *Oracle) requireRole(s *state, role interfaces.RoleID, caller common.Address) error {
	if !s.roles.HasRole(role, caller) {
		return interfaces.ErrUnauthorized
	}
	return nil
}

// AskAMLStatus emits an advisory signal that the caller wants an assessment
// of target at a fee of at most maxFee. It has no state effect; the
// operator watches the audit trail off-system.
func (o *Oracle) AskAMLStatus(caller common.Address, maxFee *big.Int, target string) error {
	return o.runTx(func(s *state) error {
		ev := audit.New(audit.KindStatusAsked, o.clock(), caller)
		ev.Client = caller.Hex()
		ev.Target = target
		ev.MaxFee = copyAmount(maxFee)
		s.emit(ev)
		return nil
	})
}

// SetAMLStatus records or overwrites the assessment for (client, target).
func (o *Oracle) SetAMLStatus(caller, client common.Address, target string, amlID interfaces.AMLID, cScore uint8, flags uint64, fee *big.Int) error {
	return o.runTx(func(s *state) error {
		if err := o.requireRole(s, interfaces.RoleSetAMLStatus, caller); err != nil {
			return err
		}
		if client == interfaces.NullIdentity {
			return interfaces.ErrInvalidClient
		}
		if cScore > interfaces.MaxCScore {
			return interfaces.ErrInvalidScore
		}

		s.statuses[statusKey{client, target}] = interfaces.AMLStatus{
			AMLID:     amlID,
			CScore:    cScore,
			Flags:     flags,
			Fee:       copyAmount(fee),
			Timestamp: o.clock(),
		}

		ev := audit.New(audit.KindStatusSet, o.clock(), caller)
		ev.Client = client.Hex()
		ev.Target = target
		ev.Score = &cScore
		ev.Flags = &flags
		ev.Fee = copyAmount(fee)
		s.emit(ev)
		return nil
	})
}

// DeleteAMLStatus removes the assessment for (client, target). Absence of a
// prior record is not an error.
func (o *Oracle) DeleteAMLStatus(caller, client common.Address, target string) error {
	return o.runTx(func(s *state) error {
		if err := o.requireRole(s, interfaces.RoleDeleteAMLStatus, caller); err != nil {
			return err
		}
		if client == interfaces.NullIdentity {
			return interfaces.ErrInvalidClient
		}
		delete(s.statuses, statusKey{client, target})

		ev := audit.New(audit.KindStatusDeleted, o.clock(), caller)
		ev.Client = client.Hex()
		ev.Target = target
		s.emit(ev)
		return nil
	})
}

// GetAMLStatusMetadata returns the record's timestamp and the fee a fetch
// would charge right now. Free and callable by anyone: clients use it for
// price discovery before committing to a fetch.
func (o *Oracle) GetAMLStatusMetadata(client common.Address, target string) (time.Time, *big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	rec, err := o.getStatus(o.st, client, target)
	if err != nil {
		return time.Time{}, nil, err
	}
	return rec.Timestamp, o.resolveFee(o.st, rec), nil
}

// GetAMLStatusFee returns only the resolved fee of the record.
func (o *Oracle) GetAMLStatusFee(client common.Address, target string) (*big.Int, error) {
	_, fee, err := o.GetAMLStatusMetadata(client, target)
	return fee, err
}

// GetAMLStatusTimestamp returns only the timestamp of the record.
func (o *Oracle) GetAMLStatusTimestamp(client common.Address, target string) (time.Time, error) {
	ts, _, err := o.GetAMLStatusMetadata(client, target)
	return ts, err
}

// FetchAMLStatus returns the caller's assessment of target, charging the
// resolved fee from the caller's escrow to the fee account. The only read
// path with a financial side effect.
func (o *Oracle) FetchAMLStatus(caller common.Address, maxFee *big.Int, target string) (interfaces.AMLID, uint8, uint64, error) {
	return o.fetchWith(prepaidSettlement{}, caller, maxFee, target)
}

func (o *Oracle) fetchWith(settle feeSettlement, caller common.Address, maxFee *big.Int, target string) (interfaces.AMLID, uint8, uint64, error) {
	var rec interfaces.AMLStatus
	err := o.runTx(func(s *state) error {
		var err error
		rec, err = o.getStatus(s, caller, target)
		if err != nil {
			return err
		}

		required := o.resolveFee(s, rec)
		ceiling := maxFee
		if ceiling == nil {
			ceiling = new(big.Int)
		}
		if required.Cmp(ceiling) > 0 {
			return interfaces.ErrFeeTooHigh
		}
		if err := settle.settleFee(o, s, caller, required); err != nil {
			return err
		}

		ev := audit.New(audit.KindStatusFetched, o.clock(), caller)
		ev.Client = caller.Hex()
		ev.Target = target
		ev.Fee = required
		s.emit(ev)
		return nil
	})
	if err != nil {
		return interfaces.AMLID{}, 0, 0, err
	}
	return rec.AMLID, rec.CScore, rec.Flags, nil
}

// Notify emits a one-way operator advisory to a client. No state change.
func (o *Oracle) Notify(caller, client common.Address, message string) error {
	return o.runTx(func(s *state) error {
		if err := o.requireRole(s, interfaces.RoleNotifyClients, caller); err != nil {
			return err
		}
		if client == interfaces.NullIdentity {
			return interfaces.ErrInvalidClient
		}

		ev := audit.New(audit.KindNotified, o.clock(), caller)
		ev.Client = client.Hex()
		ev.Message = message
		s.emit(ev)
		return nil
	})
}

// Deposit pulls amount of the escrow denomination from the caller's vault
// balance into oracle custody and credits the caller's escrow.
func (o *Oracle) Deposit(caller common.Address, amount *big.Int) error {
	return o.runTx(func(s *state) error {
		if caller == interfaces.NullIdentity {
			return interfaces.ErrInvalidClient
		}
		if err := s.escrow.Deposit(caller, amount); err != nil {
			return err
		}
		if err := o.vault.Transfer(caller, o.account, o.denom, amount); err != nil {
			return err
		}

		ev := audit.New(audit.KindDeposited, o.clock(), caller)
		ev.Amount = copyAmount(amount)
		s.emit(ev)
		return nil
	})
}

// Withdraw debits the caller's escrow and returns the funds to the caller's
// vault balance.
func (o *Oracle) Withdraw(caller common.Address, amount *big.Int) error {
	return o.runTx(func(s *state) error {
		if err := s.escrow.Withdraw(caller, amount); err != nil {
			return err
		}
		if err := o.vault.Transfer(o.account, caller, o.denom, amount); err != nil {
			return err
		}

		ev := audit.New(audit.KindWithdrawn, o.clock(), caller)
		ev.Amount = copyAmount(amount)
		s.emit(ev)
		return nil
	})
}

// BalanceOf reports an identity's escrow balance.
func (o *Oracle) BalanceOf(account common.Address) *big.Int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.st.escrow.BalanceOf(account)
}

// SetDefaultFee updates the fallback query fee.
func (o *Oracle) SetDefaultFee(caller common.Address, fee *big.Int) error {
	return o.runTx(func(s *state) error {
		if err := o.requireRole(s, interfaces.RoleSetDefaultFee, caller); err != nil {
			return err
		}
		if fee == nil || fee.Sign() < 0 {
			return interfaces.ErrInvalidAmount
		}

		ev := audit.New(audit.KindDefaultFeeSet, o.clock(), caller)
		ev.OldValue = s.defaultFee.String()
		ev.NewValue = fee.String()
		s.defaultFee = new(big.Int).Set(fee)
		s.emit(ev)
		return nil
	})
}

// GetDefaultFee returns the fallback query fee.
func (o *Oracle) GetDefaultFee() *big.Int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return new(big.Int).Set(o.st.defaultFee)
}

// SetFeeAccount designates the identity that accrues collected fees.
func (o *Oracle) SetFeeAccount(caller, account common.Address) error {
	return o.runTx(func(s *state) error {
		if err := o.requireRole(s, interfaces.RoleSetFeeAccount, caller); err != nil {
			return err
		}
		if account == interfaces.NullIdentity {
			return interfaces.ErrInvalidClient
		}

		ev := audit.New(audit.KindFeeAccountSet, o.clock(), caller)
		ev.OldValue = s.feeAccount.Hex()
		ev.NewValue = account.Hex()
		s.feeAccount = account
		s.emit(ev)
		return nil
	})
}

// GetFeeAccount returns the identity that accrues collected fees.
func (o *Oracle) GetFeeAccount() common.Address {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.st.feeAccount
}

// GrantRole adds principal to role. The caller must hold the role's admin
// role.
func (o *Oracle) GrantRole(caller common.Address, role interfaces.RoleID, principal common.Address) error {
	return o.runTx(func(s *state) error {
		changed := !s.roles.HasRole(role, principal)
		if err := s.roles.Grant(caller, role, principal); err != nil {
			return err
		}
		if changed {
			ev := audit.New(audit.KindRoleGranted, o.clock(), caller)
			ev.Role = role.String()
			ev.Principal = principal.Hex()
			s.emit(ev)
		}
		return nil
	})
}

// RevokeRole removes principal from role. The caller must hold the role's
// admin role.
func (o *Oracle) RevokeRole(caller common.Address, role interfaces.RoleID, principal common.Address) error {
	return o.runTx(func(s *state) error {
		changed := s.roles.HasRole(role, principal)
		if err := s.roles.Revoke(caller, role, principal); err != nil {
			return err
		}
		if changed {
			ev := audit.New(audit.KindRoleRevoked, o.clock(), caller)
			ev.Role = role.String()
			ev.Principal = principal.Hex()
			s.emit(ev)
		}
		return nil
	})
}

// HasRole reports whether principal currently holds role.
func (o *Oracle) HasRole(role interfaces.RoleID, principal common.Address) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.st.roles.HasRole(role, principal)
}

// RoleMembers returns the role's holders in insertion order.
func (o *Oracle) RoleMembers(role interfaces.RoleID) []common.Address {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.st.roles.Members(role)
}

// RoleMember returns the index-th holder of role.
func (o *Oracle) RoleMember(role interfaces.RoleID, index int) (common.Address, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.st.roles.Member(role, index)
}

// RecoverRole returns the role identifier gating stray-asset recovery for
// this deployment.
func (o *Oracle) RecoverRole() interfaces.RoleID {
	return o.recoverRole
}

// RecoverAssets transfers to the caller any balance of asset the oracle
// holds beyond what the escrow ledger accounts for. On the escrow
// denomination the aggregate deposits are excluded, so recovery can never
// drain user-owned escrowed funds.
func (o *Oracle) RecoverAssets(caller common.Address, asset interfaces.AssetID) (*big.Int, error) {
	recovered := new(big.Int)
	err := o.runTx(func(s *state) error {
		if err := o.requireRole(s, o.recoverRole, caller); err != nil {
			return err
		}

		recoverable := o.vault.BalanceOf(o.account, asset)
		if asset == o.denom {
			recoverable.Sub(recoverable, s.escrow.TotalDeposits())
		}
		if recoverable.Sign() <= 0 {
			return interfaces.ErrNothingToRecover
		}
		if err := o.vault.Transfer(o.account, caller, asset, recoverable); err != nil {
			return err
		}
		recovered.Set(recoverable)

		ev := audit.New(audit.KindAssetsRecovered, o.clock(), caller)
		ev.Asset = asset.String()
		ev.Amount = new(big.Int).Set(recoverable)
		s.emit(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recovered, nil
}

func (o *Oracle) getStatus(s *state, client common.Address, target string) (interfaces.AMLStatus, error) {
	if client == interfaces.NullIdentity {
		return interfaces.AMLStatus{}, interfaces.ErrInvalidClient
	}
	rec, ok := s.statuses[statusKey{client, target}]
	if !ok {
		return interfaces.AMLStatus{}, interfaces.ErrStatusNotFound
	}
	return rec, nil
}

// resolveFee applies the deployment's fee policy to a record's stored fee.
func (o *Oracle) resolveFee(s *state, rec interfaces.AMLStatus) *big.Int {
	stored := rec.Fee
	if stored == nil {
		stored = new(big.Int)
	}
	if o.feePolicy == FeeFallbackOnZero && stored.Sign() == 0 {
		return new(big.Int).Set(s.defaultFee)
	}
	return new(big.Int).Set(stored)
}

func copyAmount(a *big.Int) *big.Int {
	if a == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a)
}
