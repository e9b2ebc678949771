// Package assets provides an in-memory asset vault implementing
// interfaces.AssetVault.
//
// The vault models the out-of-scope execution substrate at its interface
// boundary: identity-keyed balances of arbitrary fungible assets and an
// atomic transfer primitive. The oracle's custody account lives here like
// any other identity, which is what makes "stray" balances — amounts sent
// to the oracle outside the defined deposit paths — observable and
// recoverable.
package assets
