// Package roles implements the role registry gating every mutating oracle
// operation.
//
// Roles are identified by 32-byte identifiers derived from their names
// (interfaces.Role); the zero identifier is the root administrative role.
// Each role is administered by another role, the root role by itself.
// Membership is ordered by insertion and supports index lookup, matching the
// enumerable access-control convention of the on-chain world this oracle
// grew out of.
//
// The registry deliberately does not stop the last root admin from revoking
// itself; replacing the root admin before stepping down is the operator's
// own discipline.
package roles
