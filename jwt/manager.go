package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Signing methods accepted by NewManager.
const (
	MethodHS256 = "HS256"
	MethodEdDSA = "EdDSA"
)

const minSecretBytes = 32

var (
	// ErrTokenExpired marks a well-formed token whose expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid marks every other parse failure: bad signature, wrong
	// signing method, malformed structure, or missing claims.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the payload carried by every access token.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwtlib.RegisteredClaims
}

// Config holds token issuance parameters.
type Config struct {
	// Method is MethodHS256 or MethodEdDSA. Empty defaults to HS256.
	Method string
	// Secret is the HMAC key for HS256. Must be at least 32 bytes.
	Secret []byte
	// PrivateKey and PublicKey are used for EdDSA. PublicKey may be derived
	// from PrivateKey when omitted.
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	// Issuer is stamped into the iss claim and enforced on parse when set.
	Issuer string
	// TTL is the default token lifetime. Zero defaults to one hour.
	TTL time.Duration
	// Leeway tolerates clock skew between issuer and verifier.
	Leeway time.Duration
}

// Manager signs and verifies access tokens. Safe for concurrent use.
type Manager struct {
	method    jwtlib.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	ttl       time.Duration
	parser    *jwtlib.Parser
	now       func() time.Time
}

// NewManager validates cfg and builds a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL < 0 {
		return nil, errors.New("jwt: negative TTL")
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = time.Hour
	}

	m := &Manager{
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}

	method := cfg.Method
	if method == "" {
		method = MethodHS256
	}

	switch method {
	case MethodHS256:
		if len(cfg.Secret) < minSecretBytes {
			return nil, fmt.Errorf("jwt: HS256 secret must be at least %d bytes", minSecretBytes)
		}
		m.method = jwtlib.SigningMethodHS256
		m.signKey = cfg.Secret
		m.verifyKey = cfg.Secret
	case MethodEdDSA:
		if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("jwt: EdDSA requires a valid ed25519 private key")
		}
		pub := cfg.PublicKey
		if pub == nil {
			pub = cfg.PrivateKey.Public().(ed25519.PublicKey)
		}
		m.method = jwtlib.SigningMethodEdDSA
		m.signKey = cfg.PrivateKey
		m.verifyKey = pub
	default:
		return nil, fmt.Errorf("jwt: unsupported signing method %q", method)
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{method}),
		jwtlib.WithExpirationRequired(),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwtlib.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(cfg.Issuer))
	}
	m.parser = jwtlib.NewParser(opts...)

	return m, nil
}

// Issue signs a token for the given user and session with the default TTL.
func (m *Manager) Issue(userID, email, sessionID string) (string, error) {
	return m.IssueWithTTL(userID, email, sessionID, m.ttl)
}

// IssueWithTTL signs a token with an explicit lifetime. A zero or negative ttl
// produces an already-expired token; Parse will reject it with
// [ErrTokenExpired]. This is intentional: callers that compute remaining
// session lifetime can pass it straight through.
func (m *Manager) IssueWithTTL(userID, email, sessionID string, ttl time.Duration) (string, error) {
	now := m.now()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwtlib.NewWithClaims(m.method, claims)
	signed, err := token.SignedString(m.signKey)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and registered claims of tokenString and
// returns the embedded Claims. Expired tokens fail with [ErrTokenExpired];
// every other failure collapses into [ErrTokenInvalid].
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwtlib.Token) (any, error) {
		return m.verifyKey, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrTokenInvalid)
	}
	return claims, nil
}

// TTL returns the default token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
