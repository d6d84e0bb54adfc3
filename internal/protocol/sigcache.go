package protocol

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/rawblock/bitvm-go/internal/keys"
	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// sigSlot identifies one 2-of-2 signature exchanged for a single
// linked transaction: which round it belongs to, and which side signed.
type sigSlot struct {
	round int
	side  Side
}

// Side names which party a signature or keypair belongs to.
type Side int

const (
	SideProver Side = iota
	SideVerifier
)

// SignatureCache holds the Schnorr signatures both parties must
// exchange, over every 2-of-2 tapleaf sighash, before any transaction
// in the chain is broadcast. Grounded on the original MultiSigCache:
// each side knows both x-only public keys, verifies every incoming
// signature against the recomputed sighash, and rejects with a fatal
// error on mismatch rather than silently dropping it.
type SignatureCache struct {
	proverPK   *btcec.PublicKey
	verifierPK *btcec.PublicKey
	own        Side
	sigs       map[sigSlot]*schnorr.Signature
}

// NewSignatureCache builds a cache for the party identified by own,
// holding both parties' public keys.
func NewSignatureCache(own Side, proverPK, verifierPK *btcec.PublicKey) *SignatureCache {
	return &SignatureCache{proverPK: proverPK, verifierPK: verifierPK, own: own, sigs: make(map[sigSlot]*schnorr.Signature)}
}

// counterpartyKeyFor returns the public key of side, the party that
// produced a signature — i.e. the key used to verify it.
func (c *SignatureCache) counterpartyKeyFor(side Side) *btcec.PublicKey {
	if side == SideProver {
		return c.proverPK
	}
	return c.verifierPK
}

// AddSignature verifies sig (produced by side) against sighash under
// that side's x-only public key and, on success, indexes it by round
// and side for later witness assembly. Verification failure is fatal:
// it returns protoerr.SignatureInvalid rather than silently storing an
// unverified signature.
func (c *SignatureCache) AddSignature(round int, side Side, sighash [32]byte, sig *schnorr.Signature) error {
	pk := c.counterpartyKeyFor(side)
	if err := keys.Verify(pk, sighash, sig); err != nil {
		return protoerr.WithRound(protoerr.SignatureInvalid, round, "2-of-2 signature failed verification", err)
	}
	c.sigs[sigSlot{round: round, side: side}] = sig
	return nil
}

// Signature returns the cached signature for (round, side), or
// protoerr.SignatureMissing if it hasn't been exchanged yet.
func (c *SignatureCache) Signature(round int, side Side) (*schnorr.Signature, error) {
	sig, ok := c.sigs[sigSlot{round: round, side: side}]
	if !ok {
		return nil, protoerr.WithRound(protoerr.SignatureMissing, round, "2-of-2 signature not yet exchanged for this side", nil)
	}
	return sig, nil
}

// ProverPublicKey returns the Prover's x-only public key.
func (c *SignatureCache) ProverPublicKey() *btcec.PublicKey { return c.proverPK }

// VerifierPublicKey returns the Verifier's x-only public key.
func (c *SignatureCache) VerifierPublicKey() *btcec.PublicKey { return c.verifierPK }
