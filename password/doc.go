// Package password implements password hashing and verification with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Every call to [Argon2.Hash] draws a fresh random salt, so hashing the same
// plaintext twice produces two distinct encoded strings. Verification reads the
// parameters back out of the stored string, which means parameter upgrades never
// invalidate existing hashes: [Argon2.NeedsRehash] reports when a stored hash was
// produced with weaker parameters so the caller can re-hash on the next
// successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length, email shape, uniqueness) is enforced by the Engine before a plaintext
// ever reaches the hasher.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other goIdentity package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
