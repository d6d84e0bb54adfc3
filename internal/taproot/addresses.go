package taproot

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

func schnorrXOnly(pk *btcec.PublicKey) []byte {
	return schnorr.SerializePubKey(pk)
}

func btcutilTaprootAddress(outputKey *btcec.PublicKey, params *chaincfg.Params) (string, error) {
	addr, err := btcutil.NewAddressTaproot(schnorrXOnly(outputKey), params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// Built is the outcome of assembling one of the named address kinds in
// this package: the tree itself plus, in leaf order, a LeafRef naming
// what each leaf is, so callers can find a leaf's index with IndexOf
// without recomputing its script.
type Built struct {
	Tree  *Tree
	Order []LeafRef
}

// LeafRef names what a given leaf index in a Built tree represents, so
// the witness assembler can find "the challenge leaf for gate j" or
// "the 2-of-2 leaf" without re-deriving scripts.
type LeafRef struct {
	Kind string // "anti_contradiction", "timelock", "2_of_2", "challenge", "gate_response", "response_second_timelock"
	Wire int    // meaningful for anti_contradiction leaves
	Gate int    // meaningful for challenge / gate_response leaves
}

// AssembleNamed assembles a tree from parallel leaf-script and leaf-ref
// slices, checking they're the same length.
func AssembleNamed(scripts [][]byte, refs []LeafRef) (*Built, error) {
	if len(scripts) != len(refs) {
		return nil, protoerr.New(protoerr.BadCircuit, "leaf script and leaf ref slices must be the same length", nil)
	}
	t, err := Assemble(scripts)
	if err != nil {
		return nil, err
	}
	return &Built{Tree: t, Order: refs}, nil
}

// IndexOf returns the leaf index matching pred, or -1.
func (b *Built) IndexOf(pred func(LeafRef) bool) int {
	for i, r := range b.Order {
		if pred(r) {
			return i
		}
	}
	return -1
}
