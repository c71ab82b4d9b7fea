// Package flows contains the orchestration logic behind every Engine
// operation: registration, login, logout, token and session validation,
// password change, and session sweeping.
//
// Each flow is a pure function over a deps struct of capability interfaces
// and func-field hooks. The root engine builds the deps once at Build time;
// the flows hold no state of their own. Hooks left nil are normalized to
// no-ops so flow code never nil-checks, and error values injected through the
// Errors bundles let the root package own its public sentinels without an
// upward import.
package flows
