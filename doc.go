// Package goIdentity provides an embeddable credential verification and
// session lifecycle core: Argon2id password hashing, JWT access tokens bound
// to server-side sessions, and Redis-backed or in-memory persistence.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goIdentity is the public surface. It exposes [Engine], [Builder], [Config],
// the error sentinels, and value types (RegisterResult, LoginResult,
// AuthResult, MetricsSnapshot). Flow orchestration, rate limiting, and audit
// dispatch live under internal/ and are never exported. The password, jwt,
// session, and credential sub-packages are importable on their own for
// applications that want a single capability without the engine.
//
// # Security posture
//
//   - Login failures never reveal whether the email exists; unknown email and
//     wrong password return the same ErrInvalidCredentials.
//   - Session IDs are 256-bit crypto/rand values, never sequential.
//   - Registration closes the duplicate-email race at the store: the insert
//     is an atomic claim, not a check-then-write.
//   - Expired sessions are unreadable the instant they expire, via lazy
//     expiry on read, regardless of sweep timing.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//   - Perform I/O outside of Engine methods and the background sweeper.
//   - Import any sub-package that re-imports goIdentity (no import cycles).
package goIdentity
