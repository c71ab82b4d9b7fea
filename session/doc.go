// Package session provides session persistence and a compact binary session
// encoding for authentication hot paths.
//
// Two backends are included: [Store], backed by Redis with a per-user index
// set, and [MemoryStore], a mutex-guarded map suitable for tests and
// single-process deployments. Both enforce lazy expiry: reading a session past
// its expiry deletes it and reports [ErrNotFound], so callers never observe a
// stale session regardless of when the background sweep last ran.
//
// # Binary encoding
//
// Sessions are stored in Redis as a versioned binary format (currently v1,
// length-prefixed strings plus big-endian timestamps). The encoder is
// append-only: new versions add fields but never reinterpret old ones.
//
// # What this package must NOT do
//
//   - Import goIdentity or jwt (no upward imports).
//   - Interpret access tokens or enforce authentication policy.
//   - Store plaintext secrets in [Session] fields.
package session
