package goIdentity

import (
	"errors"

	"github.com/MrEthical07/goIdentity/credential"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/session"
)

// Public sentinel errors. Every failure an Engine method can return matches
// exactly one of these under errors.Is; callers branch on the sentinel, never
// on message text.
var (
	// Validation failures.
	ErrInvalidEmail  = errors.New("goidentity: invalid email address")
	ErrWeakPassword  = errors.New("goidentity: password does not meet minimum length")
	ErrPasswordReuse = errors.New("goidentity: new password must differ from the current one")

	// Conflict failures.
	ErrEmailTaken = errors.New("goidentity: email already registered")

	// Authentication failures. ErrInvalidCredentials covers both an unknown
	// email and a wrong password; the split is never revealed.
	ErrInvalidCredentials = errors.New("goidentity: invalid email or password")
	ErrRateLimited        = errors.New("goidentity: too many failed attempts")

	// Token failures, re-exported so callers need only this package.
	ErrTokenExpired = jwt.ErrTokenExpired
	ErrTokenInvalid = jwt.ErrTokenInvalid

	// Lookup failures.
	ErrUserNotFound    = errors.New("goidentity: user not found")
	ErrSessionNotFound = errors.New("goidentity: session not found or expired")

	// Lifecycle and infrastructure failures.
	ErrEngineClosed       = errors.New("goidentity: engine is closed")
	ErrBackendUnavailable = errors.New("goidentity: storage backend unavailable")
)

// ErrorKind buckets every public error into a closed set of categories, for
// callers that map errors onto transport concerns (HTTP status codes, retry
// policy) without enumerating sentinels themselves.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindToken
	KindNotFound
	KindRateLimited
	KindUnavailable
)

var kindNames = [...]string{
	KindUnknown:        "unknown",
	KindValidation:     "validation",
	KindConflict:       "conflict",
	KindAuthentication: "authentication",
	KindToken:          "token",
	KindNotFound:       "not_found",
	KindRateLimited:    "rate_limited",
	KindUnavailable:    "unavailable",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindOf classifies err. Errors produced outside this module report
// KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrPasswordReuse):
		return KindValidation
	case errors.Is(err, ErrEmailTaken):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials):
		return KindAuthentication
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenInvalid):
		return KindToken
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrSessionNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrBackendUnavailable),
		errors.Is(err, session.ErrBackendUnavailable),
		errors.Is(err, credential.ErrBackendUnavailable):
		return KindUnavailable
	default:
		return KindUnknown
	}
}
