// Package audit defines the oracle's audit event model and emission sinks.
//
// Each state-changing or fee-charging operation produces exactly one event
// on success and none on failure; the oracle stages events inside its
// transaction and hands them to the configured Sink only after commit.
// Sinks compose: a deployment typically fans out to a structured-log sink
// plus one or more persistent backends from the storage package.
package audit
