package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// ErrMalformedHash is returned when a stored hash is not a well-formed
// argon2id PHC string.
var ErrMalformedHash = errors.New("malformed password hash")

// Config holds Argon2id tuning parameters. Memory is expressed in KiB.
//
// Config instances are intended to be configured during initialization and then
// treated as immutable.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the parameters used when the caller supplies none.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes and verifies passwords using the Argon2id KDF.
//
// Argon2 instances are safe for concurrent use.
type Argon2 struct {
	config Config
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// NewArgon2 builds a hasher after validating the supplied parameters against
// conservative lower bounds.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &Argon2{config: cfg}, nil
}

// Hash derives an Argon2id digest of password under a fresh random salt and
// returns it PHC-encoded. Two calls with the same plaintext yield different
// encoded strings because the salt differs.
func (a *Argon2) Hash(password string) (string, error) {
	// Raw string bytes exactly as provided; no Unicode normalization.
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	saltEncoded := base64.StdEncoding.EncodeToString(salt)
	hashEncoded := base64.StdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		saltEncoded,
		hashEncoded,
	), nil
}

// Verify recomputes the digest of password using the parameters embedded in
// encodedHash and compares the two in constant time. It returns false (with a
// nil error) on a clean mismatch and an error only when encodedHash cannot be
// parsed.
func (a *Argon2) Verify(password string, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced with parameters weaker
// than the hasher's current configuration. Callers typically re-hash on the
// next successful verification.
func (a *Argon2) NeedsRehash(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	if parsed.memory < a.config.Memory {
		return true, nil
	}
	if parsed.time < a.config.Time {
		return true, nil
	}
	if parsed.parallelism < a.config.Parallelism {
		return true, nil
	}
	if parsed.keyLength < a.config.KeyLength {
		return true, nil
	}

	return false, nil
}

func parsePHC(encodedHash string) (parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return parsedPHC{}, ErrMalformedHash
	}
	if parts[0] != "" || parts[1] != algorithmID {
		return parsedPHC{}, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return parsedPHC{}, ErrMalformedHash
	}
	if version != argon2.Version {
		return parsedPHC{}, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHash, version)
	}

	memory, time, parallelism, err := parseParams(parts[3])
	if err != nil {
		return parsedPHC{}, err
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return parsedPHC{}, ErrMalformedHash
	}

	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return parsedPHC{}, ErrMalformedHash
	}
	if len(hash) == 0 {
		return parsedPHC{}, ErrMalformedHash
	}

	return parsedPHC{
		memory:      memory,
		time:        time,
		parallelism: parallelism,
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}

func parseParams(segment string) (uint32, uint32, uint8, error) {
	fields := strings.Split(segment, ",")
	if len(fields) != 3 {
		return 0, 0, 0, ErrMalformedHash
	}

	memory, err := parseParam(fields[0], "m")
	if err != nil {
		return 0, 0, 0, err
	}
	time, err := parseParam(fields[1], "t")
	if err != nil {
		return 0, 0, 0, err
	}
	parallelism, err := parseParam(fields[2], "p")
	if err != nil {
		return 0, 0, 0, err
	}
	if parallelism > 255 {
		return 0, 0, 0, ErrMalformedHash
	}

	return memory, time, uint8(parallelism), nil
}

func parseParam(field, key string) (uint32, error) {
	prefix := key + "="
	if !strings.HasPrefix(field, prefix) {
		return 0, ErrMalformedHash
	}
	value, err := strconv.ParseUint(field[len(prefix):], 10, 32)
	if err != nil {
		return 0, ErrMalformedHash
	}
	return uint32(value), nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return fmt.Errorf("argon2 memory must be at least %d KiB", minMemoryKB)
	}
	if cfg.Time < minTimeCost {
		return fmt.Errorf("argon2 time cost must be at least %d", minTimeCost)
	}
	if cfg.Parallelism < minParallelism {
		return fmt.Errorf("argon2 parallelism must be at least %d", minParallelism)
	}
	if cfg.SaltLength < minSaltLength {
		return fmt.Errorf("argon2 salt length must be at least %d bytes", minSaltLength)
	}
	if cfg.KeyLength < minKeyLength {
		return fmt.Errorf("argon2 key length must be at least %d bytes", minKeyLength)
	}
	return nil
}
