package circuit

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// HashValue is a 32-byte SHA-256 digest.
type HashValue = [32]byte

// PreimageValue is a 32-byte secret whose hash forms one side of a bit
// commitment.
type PreimageValue = [32]byte

// HashPair holds the two commitment hashes for a wire: H0 over the
// preimage committing to bit 0, H1 over the preimage committing to bit 1.
type HashPair struct {
	H0 HashValue
	H1 HashValue
}

// PreimagePair holds whatever preimages have been revealed so far for a
// wire. Either slot may be unset until the corresponding bit is revealed
// on-chain (or supplied locally by the Prover who owns both).
type PreimagePair struct {
	P0, P1       PreimageValue
	HasP0, HasP1 bool
}

// Wire is one boolean signal in a circuit: a dual-preimage bit commitment
// plus, once the circuit has been evaluated on concrete input, the bit it
// actually carried.
type Wire struct {
	Index    int
	Hashes   HashPair
	preimage PreimagePair
	selector *bool
}

// NewWire samples two independent 32-byte secrets from rnd and stores
// their SHA-256 digests as the wire's commitment pair. rnd should be
// crypto/rand.Reader in production and a seeded deterministic source in
// tests (see internal/keys).
func NewWire(index int, rnd io.Reader) (*Wire, error) {
	var p0, p1 PreimageValue
	if _, err := io.ReadFull(rnd, p0[:]); err != nil {
		return nil, fmt.Errorf("sampling wire %d preimage 0: %w", index, err)
	}
	if _, err := io.ReadFull(rnd, p1[:]); err != nil {
		return nil, fmt.Errorf("sampling wire %d preimage 1: %w", index, err)
	}
	w := &Wire{
		Index: index,
		Hashes: HashPair{
			H0: sha256.Sum256(p0[:]),
			H1: sha256.Sum256(p1[:]),
		},
		preimage: PreimagePair{P0: p0, HasP0: true, P1: p1, HasP1: true},
	}
	if w.Hashes.H0 == w.Hashes.H1 {
		// Cryptographically implausible for independent 32-byte secrets,
		// but the invariant (H0 != H1) is load-bearing for the
		// bit-commitment script fragment, so fail loudly rather than ship
		// a wire that can never be challenged soundly.
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("wire %d: sampled colliding hash pair", index), nil)
	}
	return w, nil
}

// SetSelector records the concrete boolean value this wire carried during
// an evaluation run.
func (w *Wire) SetSelector(b bool) { w.selector = &b }

// Selector returns the evaluated bit and whether evaluation has set it.
func (w *Wire) Selector() (bool, bool) {
	if w.selector == nil {
		return false, false
	}
	return *w.selector, true
}

// GetPreimageOfSelector returns the preimage corresponding to this wire's
// evaluated bit — the value a response script needs on the stack to prove
// the Prover knows the commitment for the bit the circuit actually
// produced.
func (w *Wire) GetPreimageOfSelector() (PreimageValue, error) {
	if w.selector == nil {
		return PreimageValue{}, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("wire %d: selector not evaluated", w.Index), nil)
	}
	if !*w.selector {
		if !w.preimage.HasP0 {
			return PreimageValue{}, protoerr.New(protoerr.BadPreimage, fmt.Sprintf("wire %d: preimage for bit 0 missing", w.Index), nil)
		}
		return w.preimage.P0, nil
	}
	if !w.preimage.HasP1 {
		return PreimageValue{}, protoerr.New(protoerr.BadPreimage, fmt.Sprintf("wire %d: preimage for bit 1 missing", w.Index), nil)
	}
	return w.preimage.P1, nil
}

// AddPreimage ingests an externally revealed secret. It hashes preimage
// and matches it against H0/H1, storing it in the matching slot. It
// returns true iff this ingestion makes BOTH slots populated — the
// Contradiction signal, not an error, that tells the Verifier the Prover
// has equivocated on this wire.
func (w *Wire) AddPreimage(preimage PreimageValue) (contradiction bool, err error) {
	hash := sha256.Sum256(preimage[:])
	switch hash {
	case w.Hashes.H0:
		w.preimage.P0 = preimage
		w.preimage.HasP0 = true
	case w.Hashes.H1:
		w.preimage.P1 = preimage
		w.preimage.HasP1 = true
	default:
		return false, protoerr.New(protoerr.AlienPreimage, fmt.Sprintf("wire %d: preimage matches neither commitment", w.Index), nil)
	}
	return w.preimage.HasP0 && w.preimage.HasP1, nil
}

// Contradicted reports whether both preimages have been observed for this
// wire, i.e. the Prover has equivocated.
func (w *Wire) Contradicted() bool {
	return w.preimage.HasP0 && w.preimage.HasP1
}

// Preimages returns whatever has been revealed so far, for callers (e.g.
// the equivocation-claim witness assembler) that need both halves.
func (w *Wire) Preimages() PreimagePair { return w.preimage }
