package interfaces

import "errors"

// Every operation of the oracle is atomic: a failed call rolls back all of
// its state changes and emits no audit event. These sentinels classify the
// terminal failure modes; callers match them with errors.Is.
var (
	// ErrUnauthorized indicates the caller does not hold the role required
	// for the attempted operation.
	ErrUnauthorized = errors.New("caller lacks required role")

	// ErrInvalidClient indicates the null identity was used where a real
	// identity is required.
	ErrInvalidClient = errors.New("client must not be the null identity")

	// ErrInvalidScore indicates a compliance score outside [0, 99].
	ErrInvalidScore = errors.New("cScore must be between 0 and 99")

	// ErrInvalidAmount indicates a zero or negative amount where a positive
	// one is required.
	ErrInvalidAmount = errors.New("amount must be greater than 0")

	// ErrInsufficientBalance indicates a withdrawal or fee charge exceeding
	// the available escrow balance.
	ErrInsufficientBalance = errors.New("insufficient escrow balance")

	// ErrFeeTooHigh indicates the required fee exceeds the caller's stated
	// fee ceiling.
	ErrFeeTooHigh = errors.New("required fee is greater than the maximum specified fee")

	// ErrStatusNotFound indicates no AML status exists for the requested
	// (client, target) pair.
	ErrStatusNotFound = errors.New("no such AML status")

	// ErrNothingToRecover indicates the computed recoverable amount is zero.
	ErrNothingToRecover = errors.New("must recover a positive amount")

	// ErrInvalidRoleID indicates a malformed role identifier.
	ErrInvalidRoleID = errors.New("invalid role identifier")
)
