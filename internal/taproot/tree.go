// Package taproot assembles the balanced Taproot script trees the
// challenge/response engine spends from, and the addresses built on top
// of them. Tree construction follows txscript.AssembleTaprootScriptTree,
// the same helper Klingon-tech-klingdex's swap package leans on for its
// single-leaf refund tree; here the leaf list always has n>=2 entries.
package taproot

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// unspendableInternalKeyHex is the fixed, provably-unspendable x-only
// internal key every tree in this package tweaks from. Using a constant
// with no known discrete log disables the key-path spend, forcing every
// spend through a committed leaf.
const unspendableInternalKeyHex = "93c7378d96518a75448821c4f7c8f4bae7ce60f804d03d1f0628dd5dd0f5de51"

// InternalKey parses the fixed unspendable internal key as a 32-byte
// x-only public key.
func InternalKey() (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(unspendableInternalKeyHex)
	if err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, "unspendable internal key malformed", err)
	}
	// schnorr.ParsePubKey wants a 32-byte x-only key; btcec provides
	// ParsePubKey for the 33-byte form, so prefix the even-Y marker.
	full := append([]byte{0x02}, b...)
	pk, err := btcec.ParsePubKey(full)
	if err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, "unspendable internal key does not parse", err)
	}
	return pk, nil
}

// Tree is an assembled Taproot script tree: the output key spendable
// only via one of its leaves, plus per-leaf control blocks.
type Tree struct {
	InternalKey *btcec.PublicKey
	OutputKey   *btcec.PublicKey
	MerkleRoot  [32]byte
	leaves      []txscript.TapLeaf
	indexed     *txscript.IndexedTapScriptTree
}

// Assemble builds a balanced Taproot tree from an ordered list of leaf
// scripts (n>=2), tweaking the fixed unspendable internal key by the
// tree's Merkle root. Leaf placement follows txscript's own balanced
// construction: with m=ceil(log2 n) and k=2^m-n, the first n-k leaves
// land at depth m and the remaining k leaves at depth m-1, matching this
// package's tree-shape invariant exactly since every leaf carries equal
// weight.
func Assemble(leafScripts [][]byte) (*Tree, error) {
	if len(leafScripts) < 2 {
		return nil, protoerr.New(protoerr.BadCircuit, "taproot tree needs at least 2 leaves", nil)
	}

	internalKey, err := InternalKey()
	if err != nil {
		return nil, err
	}

	leaves := make([]txscript.TapLeaf, len(leafScripts))
	for i, s := range leafScripts {
		leaves[i] = txscript.NewBaseTapLeaf(s)
	}

	indexed := txscript.AssembleTaprootScriptTree(leaves...)
	root := indexed.RootNode.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(internalKey, root[:])

	return &Tree{
		InternalKey: internalKey,
		OutputKey:   outputKey,
		MerkleRoot:  root,
		leaves:      leaves,
		indexed:     indexed,
	}, nil
}

// ControlBlock returns the serialized control block proving leaf i's
// membership in the tree.
func (t *Tree) ControlBlock(leafIndex int) ([]byte, error) {
	if leafIndex < 0 || leafIndex >= len(t.leaves) {
		return nil, protoerr.New(protoerr.ControlBlockUnavailable, fmt.Sprintf("leaf index %d out of range", leafIndex), nil)
	}
	proof := t.indexed.LeafMerkleProofs[leafIndex]
	cb := proof.ToControlBlock(t.InternalKey)
	raw, err := cb.ToBytes()
	if err != nil {
		return nil, protoerr.New(protoerr.ControlBlockUnavailable, "control block serialization failed", err)
	}
	return raw, nil
}

// LeafScript returns the raw script for leaf i.
func (t *Tree) LeafScript(leafIndex int) ([]byte, error) {
	if leafIndex < 0 || leafIndex >= len(t.leaves) {
		return nil, protoerr.New(protoerr.ControlBlockUnavailable, fmt.Sprintf("leaf index %d out of range", leafIndex), nil)
	}
	return t.leaves[leafIndex].Script, nil
}

// PkScript returns the P2TR scriptPubKey (OP_1 <32-byte output key>) for
// this tree's output key.
func (t *Tree) PkScript() ([]byte, error) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_1)
	b.AddData(schnorrXOnly(t.OutputKey))
	return b.Script()
}

// Address returns the bech32m P2TR address for this tree on the given
// network.
func (t *Tree) Address(params *chaincfg.Params) (string, error) {
	addr, err := btcutilTaprootAddress(t.OutputKey, params)
	if err != nil {
		return "", protoerr.New(protoerr.BadCircuit, "taproot address encoding failed", err)
	}
	return addr, nil
}
