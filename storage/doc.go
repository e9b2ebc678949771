// Package storage provides durable audit-trail backends with pluggable
// transports.
//
// The storage package persists committed audit events across one or more
// trail backends:
//
//   - File system trail for local deployments, an append-only JSON Lines file
//   - S3-compatible object storage for cloud deployments, one object per event
//
// # Trail URI Format
//
// Trail backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/oracle/audit/
//   - s3://bucket-name/prefix/?region=us-west-2
//
// # Redundancy
//
// MultiTrailBackend fans each event out to every configured backend. An
// append succeeds if at least one backend accepted the event; the oracle
// counts drops but never rolls back a committed operation over a sink
// failure.
//
// # Usage Example
//
//	factory := storage.NewTrailFactory(logger)
//	trail, err := factory.CreateMultiBackend([]string{
//	    "file:///var/lib/oracle/audit/",
//	    "s3://audit-bucket/oracle/?region=us-west-2",
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create audit trail: %v", err)
//	}
package storage
