// Package credential persists user credential records (email plus password
// hash) behind the [Store] interface.
//
// The one structural guarantee both backends make is that [Store.Create] is an
// atomic insert-if-absent keyed on email: when two registrations race on the
// same address, exactly one wins and the other receives [ErrDuplicateEmail].
// Callers may pre-check with FindByEmail for a friendlier fast path, but the
// uniqueness guarantee lives in Create, not in the check.
//
// Records store only the PHC-encoded password hash. Plaintext passwords never
// reach this package.
package credential
