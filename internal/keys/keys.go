// Package keys generates and holds the Schnorr keypairs each party in
// the protocol signs with. The original Rust actor.rs seeds a keypair
// from a random scalar and wraps it behind a Party trait exposing an
// x-only public key; this package keeps the same shape (a KeyProvider
// exposing the keypair plus its x-only encoding) but takes an
// io.Reader for entropy instead of an unseeded global RNG, so setup can
// be made fully deterministic for tests and demos.
package keys

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// KeyProvider is implemented by anything that can produce a Schnorr
// keypair and sign tapleaf sighashes with it. Both Prover and Verifier
// identities satisfy it.
type KeyProvider interface {
	PrivateKey() *btcec.PrivateKey
	PublicKey() *btcec.PublicKey
	XOnlyPublicKey() []byte
	Sign(sighash [32]byte) (*schnorr.Signature, error)
}

// Identity is a concrete KeyProvider backed by a single keypair.
type Identity struct {
	priv *btcec.PrivateKey
}

// Generate draws a fresh keypair from rnd. rnd must supply 32 bytes of
// entropy per call; pass a deterministic seeded reader in tests or
// demos to make setup reproducible.
func Generate(rnd io.Reader) (*Identity, error) {
	var buf [32]byte
	if _, err := io.ReadFull(rnd, buf[:]); err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, "keypair entropy read failed", err)
	}
	priv, pub := btcec.PrivKeyFromBytes(buf[:])
	if pub == nil {
		return nil, protoerr.New(protoerr.BadCircuit, "zero scalar is not a valid private key", nil)
	}
	return &Identity{priv: priv}, nil
}

func (id *Identity) PrivateKey() *btcec.PrivateKey { return id.priv }

func (id *Identity) PublicKey() *btcec.PublicKey { return id.priv.PubKey() }

func (id *Identity) XOnlyPublicKey() []byte { return schnorr.SerializePubKey(id.priv.PubKey()) }

func (id *Identity) Sign(sighash [32]byte) (*schnorr.Signature, error) {
	sig, err := schnorr.Sign(id.priv, sighash[:])
	if err != nil {
		return nil, protoerr.New(protoerr.SignatureInvalid, "schnorr signing failed", err)
	}
	return sig, nil
}

// Verify checks sig against sighash under pk's x-only encoding,
// returning protoerr.SignatureInvalid on mismatch.
func Verify(pk *btcec.PublicKey, sighash [32]byte, sig *schnorr.Signature) error {
	if !sig.Verify(sighash[:], pk) {
		return protoerr.New(protoerr.SignatureInvalid, "schnorr signature verification failed", nil)
	}
	return nil
}
