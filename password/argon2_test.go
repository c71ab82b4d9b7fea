package password

import (
	"errors"
	"strings"
	"testing"
)

func newHasherTest(t *testing.T) *Argon2 {
	t.Helper()

	// Floor parameters keep the test suite fast.
	hasher, err := NewArgon2(Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return hasher
}

func TestHashVerifyRoundTrip(t *testing.T) {
	hasher := newHasherTest(t)

	encoded, err := hasher.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %s", encoded)
	}

	ok, err := hasher.Verify("password123", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password did not verify")
	}

	ok, err = hasher.Verify("password124", encoded)
	if err != nil {
		t.Fatalf("Verify wrong password: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashSamePasswordDistinctDigests(t *testing.T) {
	hasher := newHasherTest(t)

	first, err := hasher.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash first: %v", err)
	}
	second, err := hasher.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash second: %v", err)
	}

	if first == second {
		t.Fatal("two hashes of the same password are identical; salt is not random")
	}

	for _, encoded := range []string{first, second} {
		ok, err := hasher.Verify("correct horse battery", encoded)
		if err != nil || !ok {
			t.Fatalf("hash %q did not verify: ok=%v err=%v", encoded, ok, err)
		}
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := newHasherTest(t)

	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=8192,t=1,p=1$notbase64!!$AAAA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA==$AAAA",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA==$AAAA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA==$AAAA",
	}

	for _, encoded := range cases {
		if _, err := hasher.Verify("whatever", encoded); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("Verify(%q): want ErrMalformedHash, got %v", encoded, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := newHasherTest(t)

	encoded, err := weak.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	strong, err := NewArgon2(DefaultConfig())
	if err != nil {
		t.Fatalf("NewArgon2 default: %v", err)
	}

	upgrade, err := strong.NeedsRehash(encoded)
	if err != nil {
		t.Fatalf("NeedsRehash: %v", err)
	}
	if !upgrade {
		t.Fatal("hash produced with floor parameters should need rehash under defaults")
	}

	current, err := strong.Hash("password123")
	if err != nil {
		t.Fatalf("Hash current: %v", err)
	}
	upgrade, err = strong.NeedsRehash(current)
	if err != nil {
		t.Fatalf("NeedsRehash current: %v", err)
	}
	if upgrade {
		t.Fatal("hash at current parameters flagged for rehash")
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := []Config{
		{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	}

	for _, cfg := range cases {
		if _, err := NewArgon2(cfg); err == nil {
			t.Errorf("NewArgon2(%+v): want error, got nil", cfg)
		}
	}
}

func FuzzParsePHC(f *testing.F) {
	f.Add("$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA==$aGFzaGhhc2hoYXNoaGFzaA==")
	f.Add("$argon2id$v=19$m=0,t=0,p=0$$")
	f.Add("garbage")

	f.Fuzz(func(t *testing.T, encoded string) {
		// Must never panic; errors are fine.
		_, _ = parsePHC(encoded)
	})
}
