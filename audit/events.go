package audit

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Kind names the operation an audit event records.
type Kind string

// One kind per state-changing or fee-charging operation. Advisory signals
// (ask, notify) are included: they are the oracle's only off-system
// operator channel.
const (
	KindStatusAsked     Kind = "aml_status_asked"
	KindStatusSet       Kind = "aml_status_set"
	KindStatusDeleted   Kind = "aml_status_deleted"
	KindStatusFetched   Kind = "aml_status_fetched"
	KindNotified        Kind = "client_notified"
	KindDeposited       Kind = "deposited"
	KindWithdrawn       Kind = "withdrawn"
	KindDefaultFeeSet   Kind = "default_fee_set"
	KindFeeAccountSet   Kind = "fee_account_set"
	KindRoleGranted     Kind = "role_granted"
	KindRoleRevoked     Kind = "role_revoked"
	KindAssetsRecovered Kind = "assets_recovered"
)

// Event is one entry of the durable audit trail. Exactly one event is
// emitted per successful operation, never for a failed one. Fields not
// relevant to the operation kind are left empty.
type Event struct {
	ID     uuid.UUID `json:"id"`
	Kind   Kind      `json:"kind"`
	At     time.Time `json:"at"`
	Caller string    `json:"caller"`

	Client    string   `json:"client,omitempty"`
	Target    string   `json:"target,omitempty"`
	Principal string   `json:"principal,omitempty"`
	Role      string   `json:"role,omitempty"`
	Asset     string   `json:"asset,omitempty"`
	Amount    *big.Int `json:"amount,omitempty"`
	Fee       *big.Int `json:"fee,omitempty"`
	MaxFee    *big.Int `json:"max_fee,omitempty"`
	Score     *uint8   `json:"score,omitempty"`
	Flags     *uint64  `json:"flags,omitempty"`
	OldValue  string   `json:"old_value,omitempty"`
	NewValue  string   `json:"new_value,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// New creates an event of the given kind, stamped with a fresh id.
func New(kind Kind, at time.Time, caller common.Address) Event {
	return Event{
		ID:     uuid.Must(uuid.NewRandom()),
		Kind:   kind,
		At:     at,
		Caller: caller.Hex(),
	}
}
