package keys

import (
	"crypto/sha256"
	"math/rand"
	"testing"
)

func seededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestGenerateIsDeterministicForEqualSeeds(t *testing.T) {
	a, err := Generate(seededRand(42))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(seededRand(42))
	if err != nil {
		t.Fatal(err)
	}
	if string(a.XOnlyPublicKey()) != string(b.XOnlyPublicKey()) {
		t.Fatal("same seed should yield the same keypair")
	}
}

func TestGenerateDiffersAcrossSeeds(t *testing.T) {
	a, err := Generate(seededRand(1))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(seededRand(2))
	if err != nil {
		t.Fatal(err)
	}
	if string(a.XOnlyPublicKey()) == string(b.XOnlyPublicKey()) {
		t.Fatal("different seeds should yield different keypairs")
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	id, err := Generate(seededRand(7))
	if err != nil {
		t.Fatal(err)
	}
	sighash := sha256.Sum256([]byte("tapleaf sighash"))
	sig, err := id.Sign(sighash)
	if err != nil {
		t.Fatal(err)
	}
	if err := Verify(id.PublicKey(), sighash, sig); err != nil {
		t.Fatalf("expected valid signature to verify: %v", err)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	a, err := Generate(seededRand(7))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(seededRand(8))
	if err != nil {
		t.Fatal(err)
	}
	sighash := sha256.Sum256([]byte("tapleaf sighash"))
	sig, err := a.Sign(sighash)
	if err != nil {
		t.Fatal(err)
	}
	if err := Verify(b.PublicKey(), sighash, sig); err == nil {
		t.Fatal("expected verification under the wrong key to fail")
	}
}
