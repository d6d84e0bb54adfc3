package protocol

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/rawblock/bitvm-go/internal/keys"
)

// Party is the common surface both roles expose: their own keypair and
// the counterparty's public key, needed to build every script in this
// protocol. Grounded on the original traits::party::Party trait, which
// exposed get_actor()/get_xonly_public_key() the same way.
type Party interface {
	Identity() keys.KeyProvider
	PublicKey() *btcec.PublicKey
	CounterpartyPublicKey() *btcec.PublicKey
}

// Prover proves circuit evaluation and responds to challenges.
type Prover struct {
	identity   keys.KeyProvider
	verifierPK *btcec.PublicKey
	SigCache   *SignatureCache
}

// NewProver builds a Prover identity against a known Verifier public
// key (learned during setup, before any signature exchange).
func NewProver(identity keys.KeyProvider, verifierPK *btcec.PublicKey) *Prover {
	p := &Prover{identity: identity, verifierPK: verifierPK}
	p.SigCache = NewSignatureCache(SideProver, identity.PublicKey(), verifierPK)
	return p
}

func (p *Prover) Identity() keys.KeyProvider              { return p.identity }
func (p *Prover) PublicKey() *btcec.PublicKey             { return p.identity.PublicKey() }
func (p *Prover) CounterpartyPublicKey() *btcec.PublicKey { return p.verifierPK }

// Verifier challenges gate evaluations and claims equivocation bonds.
type Verifier struct {
	identity   keys.KeyProvider
	proverPK   *btcec.PublicKey
	SigCache   *SignatureCache
	Challenges *ChallengeHashesManager
}

// NewVerifier builds a Verifier identity against a known Prover public
// key.
func NewVerifier(identity keys.KeyProvider, proverPK *btcec.PublicKey) *Verifier {
	v := &Verifier{identity: identity, proverPK: proverPK, Challenges: NewChallengeHashesManager()}
	v.SigCache = NewSignatureCache(SideVerifier, proverPK, identity.PublicKey())
	return v
}

func (v *Verifier) Identity() keys.KeyProvider              { return v.identity }
func (v *Verifier) PublicKey() *btcec.PublicKey             { return v.identity.PublicKey() }
func (v *Verifier) CounterpartyPublicKey() *btcec.PublicKey { return v.proverPK }
