package taproot

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/rawblock/bitvm-go/internal/circuit"
	"github.com/rawblock/bitvm-go/internal/protoerr"
	"github.com/rawblock/bitvm-go/internal/script"
)

// DefaultTimelockBlocks is the default Prover claw-back / Verifier
// response-second timelock, N=10 in the value-schedule rationale.
const DefaultTimelockBlocks = 10

// EquivocationAddress builds the per-circuit, per-party-pair tree: one
// anti_contradiction leaf per wire plus the Prover timelock claw-back
// and the 2-of-2 continuation leaf.
func EquivocationAddress(wires []*circuit.Wire, proverPK, verifierPK *btcec.PublicKey) (*Built, error) {
	if len(wires) == 0 {
		return nil, protoerr.New(protoerr.BadCircuit, "equivocation tree needs at least one wire", nil)
	}

	var scripts [][]byte
	var refs []LeafRef
	for _, w := range wires {
		s, err := script.AntiContradictionScript(w.Hashes, verifierPK)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
		refs = append(refs, LeafRef{Kind: "anti_contradiction", Wire: w.Index})
	}

	tl, err := script.TimelockScript(proverPK, DefaultTimelockBlocks)
	if err != nil {
		return nil, err
	}
	scripts = append(scripts, tl)
	refs = append(refs, LeafRef{Kind: "timelock"})

	ms, err := script.TwoOfTwoScript(proverPK, verifierPK)
	if err != nil {
		return nil, err
	}
	scripts = append(scripts, ms)
	refs = append(refs, LeafRef{Kind: "2_of_2"})

	return AssembleNamed(scripts, refs)
}

// ChallengeAddress builds the per-round tree of challenge(Vpk, ch_i[j])
// leaves, one per gate, in gate order.
func ChallengeAddress(verifierPK *btcec.PublicKey, challengeHashes [][32]byte) (*Built, error) {
	if len(challengeHashes) == 0 {
		return nil, protoerr.New(protoerr.BadCircuit, "challenge tree needs at least one gate", nil)
	}
	var scripts [][]byte
	var refs []LeafRef
	for j, h := range challengeHashes {
		s, err := script.ChallengeScript(verifierPK, h)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
		refs = append(refs, LeafRef{Kind: "challenge", Gate: j})
	}
	return AssembleNamed(scripts, refs)
}

// GateSpec bundles everything GateResponseScript needs for gate j.
type GateSpec struct {
	Gate        int
	Type        circuit.GateType
	InputHashes []circuit.HashPair
	OutputHash  circuit.HashPair
	LockHash    [32]byte
}

// ResponseAddress builds the per-round tree of gate_response(g_j,
// ch_i[j], Ppk) leaves, one per gate, in gate order.
func ResponseAddress(proverPK *btcec.PublicKey, gates []GateSpec) (*Built, error) {
	if len(gates) == 0 {
		return nil, protoerr.New(protoerr.BadCircuit, "response tree needs at least one gate", nil)
	}
	var scripts [][]byte
	var refs []LeafRef
	for _, g := range gates {
		s, err := script.GateResponseScript(g.Type, g.InputHashes, g.OutputHash, g.LockHash, proverPK)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
		refs = append(refs, LeafRef{Kind: "gate_response", Gate: g.Gate})
	}
	return AssembleNamed(scripts, refs)
}

// ResponseSecondAddress builds the continuation-bond tree: the
// Verifier's timelock claw-back plus the 2-of-2 leaf.
func ResponseSecondAddress(proverPK, verifierPK *btcec.PublicKey) (*Built, error) {
	tl, err := script.TimelockScript(verifierPK, DefaultTimelockBlocks)
	if err != nil {
		return nil, err
	}
	ms, err := script.TwoOfTwoScript(proverPK, verifierPK)
	if err != nil {
		return nil, err
	}
	return AssembleNamed(
		[][]byte{tl, ms},
		[]LeafRef{{Kind: "response_second_timelock"}, {Kind: "2_of_2"}},
	)
}
