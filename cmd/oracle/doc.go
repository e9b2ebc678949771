/*
Command oracle runs the AML compliance-status oracle daemon.

It wires the oracle core to an in-memory asset vault, the configured audit
trail backends and the HTTP API, then serves until interrupted.

Usage:

	oracle-server --admin 0x... --oracle-account 0x... [flags]

The variant flag selects between the native-denominated deployment and the
token-denominated one; the latter additionally offers pay-as-you-go fee
settlement and requires a token address.
*/
package main
