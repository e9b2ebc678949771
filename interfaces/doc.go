// Package interfaces defines core interfaces and types for the AML status
// oracle, separating interface definitions from implementations.
//
// The package provides the contracts between the key components:
//
// # Oracle Interfaces
//
// AMLOracle: The full public operation set of a deployed oracle — status
// writes and fee-charging fetches, escrow funding, fee settings, role
// administration and stray-asset recovery. Implemented by both deployment
// variants (native-denominated and token-denominated).
//
// RoleGated: The access-control capability shared by the variants. The
// recovery-permission role identifier differs between deployments and is
// injected at construction rather than hardcoded.
//
// AssetVault: The boundary to the external value-transfer substrate that
// holds actual asset custody. The oracle only ever instructs transfers at
// this boundary; consensus, identity and atomicity of the substrate itself
// are out of scope.
//
// # Core Types
//
//   - RoleID: 32-byte role identifier, keccak-256 of the role name
//   - AssetID: 20-byte fungible asset identifier, zero value = native asset
//   - AMLID: 32-byte opaque assessment identifier
//   - AMLStatus: a single compliance assessment with score, flags and fee
//
// Identities are go-ethereum common.Address values; the zero address is the
// reserved null-identity sentinel and always fails validation where a real
// identity is required.
//
// # Error Taxonomy
//
// All failure modes are package-level sentinels (ErrUnauthorized,
// ErrInvalidClient, ErrInvalidScore, ErrInvalidAmount,
// ErrInsufficientBalance, ErrFeeTooHigh, ErrStatusNotFound,
// ErrNothingToRecover). Every error is terminal for the current operation:
// the whole transaction rolls back and no audit event is emitted.
package interfaces
