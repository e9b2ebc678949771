// Package ledger implements the escrow account book backing prepaid fetch
// fees.
//
// Balances are denominated in a single fungible unit fixed at deployment
// (native currency or a designated token). External value enters and leaves
// only through Deposit and Withdraw; fee charges are pure internal transfers
// between accounts. The book therefore maintains the invariant that the sum
// of all balances never exceeds what the vault actually holds on the
// oracle's behalf — the boundary stray-asset recovery relies on.
package ledger
