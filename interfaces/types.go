package interfaces

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// RoleID identifies a permission set in the role registry. Role identifiers
// are static: only membership changes over a deployment's lifetime.
type RoleID [32]byte

// Role derives a role identifier from its name, keccak-256 of the literal
// name so identifiers line up with the on-chain access control convention.
func Role(name string) RoleID {
	return RoleID(crypto.Keccak256Hash([]byte(name)))
}

// String returns the hex representation of the role identifier.
func (r RoleID) String() string {
	return hexutil.Encode(r[:])
}

// RoleIDFromHex parses a 32-byte hex role identifier.
func RoleIDFromHex(s string) (RoleID, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return RoleID{}, err
	}
	if len(b) != 32 {
		return RoleID{}, ErrInvalidRoleID
	}
	var r RoleID
	copy(r[:], b)
	return r, nil
}

// The zero role is the root administrative role. It administers itself and,
// by default, every other role.
var RoleAdmin = RoleID{}

// Operational roles of the oracle. The recover role is deployment dependent
// and therefore not listed here; see oracle.Config.RecoverRole.
var (
	RoleSetAMLStatus    = Role("SET_AML_STATUS_ROLE")
	RoleDeleteAMLStatus = Role("DELETE_AML_STATUS_ROLE")
	RoleNotifyClients   = Role("NOTIFY_ROLE")
	RoleSetDefaultFee   = Role("SET_DEFAULT_FEE_ROLE")
	RoleSetFeeAccount   = Role("SET_FEE_ACCOUNT_ROLE")
)

// AssetID identifies a fungible asset held by the vault. The zero value is
// the native currency of the hosting substrate.
type AssetID common.Address

// NativeAsset denominates balances in the substrate's own currency.
var NativeAsset = AssetID{}

// String returns the hex representation of the asset identifier.
func (a AssetID) String() string {
	return common.Address(a).Hex()
}

// AMLIDLength is the size of an assessment identifier blob.
const AMLIDLength = 32

// AMLID is an opaque assessment identifier assigned by the oracle operator.
type AMLID [AMLIDLength]byte

// MaxCScore is the inclusive upper bound for compliance scores.
const MaxCScore = 99

// AMLStatus is a single compliance assessment about a (client, target) pair.
// The fee is the amount charged per fetch; a zero fee means "unset" under the
// default fee policy. Flags are opaque to the oracle.
type AMLStatus struct {
	AMLID     AMLID
	CScore    uint8
	Flags     uint64
	Fee       *big.Int
	Timestamp time.Time
}

// NullIdentity is the reserved "no identity" sentinel. It may never hold
// escrow, never appears as a status record's client, and never receives fees.
var NullIdentity = common.Address{}
