// Package session provides the persistence layer for the sessiongate engine: the
// bearer token and the profile it belongs to, stored and cleared as one unit.
//
// # Design
//
// [Store] is the single contract all backends implement. Three backends ship with
// the package: [MemoryStore] for tests and short-lived processes, [FileStore] for
// CLI and desktop front ends, and [RedisStore] for server-rendered front ends that
// run more than one replica. All three uphold the same invariants:
//
//   - Save writes the token and the profile atomically from the caller's view.
//   - Load never returns a token without a matching profile. A record that fails
//     to deserialize, or that carries a role the package does not recognize, is
//     removed and reported as [ErrCorruptRecord].
//   - Clear is idempotent.
//
// # What this package must NOT do
//
//   - Inspect the token. It is an opaque string owned by the backend.
//   - Talk to the Authentication Endpoint or perform any auth decision.
//   - Import the sessiongate root package (the root aliases types from here).
package session
