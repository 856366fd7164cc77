// Package store provides SQLite-backed durable storage for authorized addresses.
//
// The store owns a single table, whitelist, keyed by the literal address
// string. Records are created by Add and destroyed by Remove or RemoveByOwner;
// they are never updated in place.
//
// # Failure Policy
//
//   - Open failures wrap ErrStorageUnavailable and must abort startup.
//   - Mutation faults are logged and reported as false or 0.
//   - IsAuthorized fails closed: a fault is reported as "not authorized".
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: every call is serialized through a single handle
//
// Owner labels are compared with COLLATE NOCASE, addresses with exact
// binary equality.
package store
