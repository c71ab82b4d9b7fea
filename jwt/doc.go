// Package jwt issues and parses the signed access tokens used by the Engine.
//
// Tokens carry a compact claim set (user ID, email, session ID) on top of the
// standard registered claims. HS256 is the default signing method; Ed25519 is
// available for deployments that prefer asymmetric keys.
//
// Parse failures collapse into exactly two kinds: [ErrTokenExpired] when the
// token is structurally valid but past its expiry, and [ErrTokenInvalid] for
// everything else (bad signature, wrong method, malformed payload). Callers
// branch on the kind with errors.Is and never inspect library error strings.
package jwt
