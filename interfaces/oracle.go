package interfaces

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// AssetVault is the boundary to the external value-transfer substrate. The
// substrate owns actual asset custody; the oracle only instructs transfers
// between identities it knows about. A Transfer either fully applies or
// fails without effect.
type AssetVault interface {
	// BalanceOf reports the amount of asset held by the given identity.
	BalanceOf(holder common.Address, asset AssetID) *big.Int

	// Transfer moves amount of asset from one identity to another.
	Transfer(from, to common.Address, asset AssetID, amount *big.Int) error
}

// RoleGated is the access-control capability shared by all oracle variants:
// role administration plus stray-asset recovery. The recover role identifier
// is deployment dependent and injected at construction.
type RoleGated interface {
	GrantRole(caller common.Address, role RoleID, principal common.Address) error
	RevokeRole(caller common.Address, role RoleID, principal common.Address) error
	HasRole(role RoleID, principal common.Address) bool
	RoleMembers(role RoleID) []common.Address
	RoleMember(role RoleID, index int) (common.Address, error)

	// RecoverAssets transfers out any balance of asset the oracle holds
	// beyond what the escrow ledger accounts for, returning the amount.
	RecoverAssets(caller common.Address, asset AssetID) (*big.Int, error)
}

// DirectFetcher is the optional pay-as-you-go capability of a deployment.
// The fee is pulled from the caller's external balance at fetch time
// instead of from prepaid escrow.
type DirectFetcher interface {
	FetchAMLStatusDirect(caller common.Address, maxFee *big.Int, target string) (AMLID, uint8, uint64, error)
}

// AMLOracle is the full public operation set of a deployed oracle. Every
// method executes as a single indivisible transaction: on failure no state
// change survives and no audit event is emitted.
type AMLOracle interface {
	RoleGated

	// AskAMLStatus is a caller-initiated advisory signal to the operator.
	// It has no state effect beyond the audit event.
	AskAMLStatus(caller common.Address, maxFee *big.Int, target string) error

	// SetAMLStatus records or overwrites the assessment for (client, target).
	SetAMLStatus(caller, client common.Address, target string, amlID AMLID, cScore uint8, flags uint64, fee *big.Int) error

	// DeleteAMLStatus removes the assessment if present. Absence of a prior
	// record is not an error.
	DeleteAMLStatus(caller, client common.Address, target string) error

	// GetAMLStatusMetadata returns the timestamp and resolved fee of the
	// record without charging anything. Callable by anyone for price
	// discovery before fetching.
	GetAMLStatusMetadata(client common.Address, target string) (time.Time, *big.Int, error)
	GetAMLStatusFee(client common.Address, target string) (*big.Int, error)
	GetAMLStatusTimestamp(client common.Address, target string) (time.Time, error)

	// FetchAMLStatus returns the caller's assessment of target, charging the
	// resolved fee through the deployment's payment strategy. This is the
	// only read path with a financial side effect.
	FetchAMLStatus(caller common.Address, maxFee *big.Int, target string) (AMLID, uint8, uint64, error)

	// Notify sends a one-way advisory message from the operator to a client.
	Notify(caller, client common.Address, message string) error

	// Deposit moves amount of the escrow denomination from the caller's
	// external balance into oracle custody and credits the caller's escrow.
	Deposit(caller common.Address, amount *big.Int) error

	// Withdraw debits the caller's escrow and returns the funds to the
	// caller's external balance.
	Withdraw(caller common.Address, amount *big.Int) error

	// BalanceOf reports an identity's escrow balance.
	BalanceOf(account common.Address) *big.Int

	SetDefaultFee(caller common.Address, fee *big.Int) error
	GetDefaultFee() *big.Int

	SetFeeAccount(caller, account common.Address) error
	GetFeeAccount() common.Address
}
