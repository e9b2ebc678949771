// Package oracle implements the AML status registry core: role-gated
// status writes, fee-metered fetches across two payment strategies, escrow
// accounting and stray-asset recovery.
//
// # Transactional model
//
// There is no internal parallelism. Every public operation runs as a single
// indivisible transaction: the oracle clones its state, applies the
// operation to the clone and swaps the live pointer only on success. A
// failed operation leaves state exactly as before the call and emits no
// audit event. Calls against the external asset vault are ordered as the
// last fallible step of a transaction, so the two stores commit or abort
// together.
//
// # Deployment variants
//
// NewNativeOracle denominates escrow in the substrate's native currency and
// settles fetch fees from prepaid escrow. NewTokenOracle denominates escrow
// in a designated token and additionally offers FetchAMLStatusDirect, which
// pulls the fee from the caller's token balance at fetch time. The two
// variants differ only in configuration — including the derivation of the
// recovery-permission role — and share all operation logic.
//
// # Stray-asset recovery
//
// Arbitrary fungible assets accidentally sent to the oracle's custody
// account can be recovered by holders of the deployment's recover role.
// The recoverable amount of the escrow denomination excludes the aggregate
// of all escrow balances, so recovery can never touch user-owned funds.
package oracle
