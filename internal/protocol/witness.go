package protocol

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/rawblock/bitvm-go/internal/keys"
	"github.com/rawblock/bitvm-go/internal/protoerr"
	"github.com/rawblock/bitvm-go/internal/taproot"
)

// TapLeafSighash computes the tapscript sighash for spending inputIndex
// of tx via leafScript, given the full set of previous outputs being
// spent across the transaction (the BIP-341 SigHashDefault digest
// commits to every spent output's amount and scriptPubKey).
func TapLeafSighash(tx *wire.MsgTx, prevOuts []*wire.TxOut, inputIndex int, leafScript []byte) ([32]byte, error) {
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, out := range prevOuts {
		fetcher.AddPrevOut(tx.TxIn[i].PreviousOutPoint, out)
	}
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	leaf := txscript.NewBaseTapLeaf(leafScript)
	hash, err := txscript.CalcTapscriptSignaturehash(sigHashes, txscript.SigHashDefault, tx, inputIndex, fetcher, leaf)
	if err != nil {
		return [32]byte{}, protoerr.New(protoerr.MalformedWitness, "tapscript sighash computation failed", err)
	}
	var out [32]byte
	copy(out[:], hash)
	return out, nil
}

// AssembleChallengeWitness builds vout 0's (challenge leaf) witness:
// [Vsig_challenge, preimage_i_j, script, control_block].
func AssembleChallengeWitness(vsig *schnorr.Signature, preimage [32]byte, challengeScript, controlBlock []byte) wire.TxWitness {
	return wire.TxWitness{vsig.Serialize(), preimage[:], challengeScript, controlBlock}
}

// AssembleMusigWitness builds vout 1's (2-of-2 leaf) witness:
// [Vsig_musig, Psig_musig, script_2of2, control_block].
func AssembleMusigWitness(vsig, psig *schnorr.Signature, musigScript, controlBlock []byte) wire.TxWitness {
	return wire.TxWitness{vsig.Serialize(), psig.Serialize(), musigScript, controlBlock}
}

// AssembleEquivocationClaimWitness builds the equivocation-claim
// witness: [Vsig, P1, P0, anti_contradiction_script, control_block].
func AssembleEquivocationClaimWitness(vsig *schnorr.Signature, p1, p0 [32]byte, antiContradictionScript, controlBlock []byte) wire.TxWitness {
	return wire.TxWitness{vsig.Serialize(), p1[:], p0[:], antiContradictionScript, controlBlock}
}

// AssembleTimelockWitness builds the claw-back witness's stack input:
// [sig]. The caller appends the timelock leaf script and its control
// block to make it a complete script-path witness.
func AssembleTimelockWitness(sig *schnorr.Signature) wire.TxWitness {
	return wire.TxWitness{sig.Serialize()}
}

// PopulateResponseTxWitnesses signs and fills in both inputs of a
// response transaction: vout 0 of challenge tx i (the challenge leaf,
// revealing the Verifier's own challenge preimage) and vout 1 (the
// 2-of-2 leaf of the equivocation tree), exactly the two-signature
// shape witness.rs's populate_response_tx_with_witness_data builds by
// hand. Response tx i always has exactly these two inputs, regardless
// of round — the single-vs-two-input asymmetry in §4.I belongs to the
// challenge tx, not this one.
func PopulateResponseTxWitnesses(
	tx *wire.MsgTx,
	prevOuts []*wire.TxOut,
	verifier keys.KeyProvider,
	challengeTree, equivocationTree *taproot.Built,
	gate int,
	preimage [32]byte,
	sigCache *SignatureCache,
	round int,
) error {
	chIdx := challengeTree.IndexOf(func(r taproot.LeafRef) bool { return r.Kind == "challenge" && r.Gate == gate })
	if chIdx < 0 {
		return protoerr.WithGate(protoerr.MalformedWitness, round, gate, "no challenge leaf for gate", nil)
	}
	chScript, err := challengeTree.Tree.LeafScript(chIdx)
	if err != nil {
		return err
	}
	chSighash, err := TapLeafSighash(tx, prevOuts, 0, chScript)
	if err != nil {
		return err
	}
	vsigChallenge, err := verifier.Sign(chSighash)
	if err != nil {
		return err
	}
	chControl, err := challengeTree.Tree.ControlBlock(chIdx)
	if err != nil {
		return err
	}
	tx.TxIn[0].Witness = AssembleChallengeWitness(vsigChallenge, preimage, chScript, chControl)

	musigIdx := equivocationTree.IndexOf(func(r taproot.LeafRef) bool { return r.Kind == "2_of_2" })
	if musigIdx < 0 {
		return protoerr.WithRound(protoerr.MalformedWitness, round, "no 2-of-2 leaf in equivocation tree", nil)
	}
	musigScript, err := equivocationTree.Tree.LeafScript(musigIdx)
	if err != nil {
		return err
	}
	musigControl, err := equivocationTree.Tree.ControlBlock(musigIdx)
	if err != nil {
		return err
	}
	vsigMusig, err := sigCache.Signature(round, SideVerifier)
	if err != nil {
		return err
	}
	psigMusig, err := sigCache.Signature(round, SideProver)
	if err != nil {
		return err
	}
	tx.TxIn[1].Witness = AssembleMusigWitness(vsigMusig, psigMusig, musigScript, musigControl)
	return nil
}

// PopulateFundingSpendWitness signs and fills in round 0's single
// challenge-tx input: the funding output, spent via the 2-of-2 leaf of
// the equivocation tree. Opening round 0 requires no challenge
// preimage — neither party has issued a challenge yet — so this is a
// plain musig-style co-signed spend, not a gate-challenge response.
func PopulateFundingSpendWitness(
	tx *wire.MsgTx,
	fundingPrevOut *wire.TxOut,
	equivocationTree *taproot.Built,
	sigCache *SignatureCache,
	round int,
) error {
	musigIdx := equivocationTree.IndexOf(func(r taproot.LeafRef) bool { return r.Kind == "2_of_2" })
	if musigIdx < 0 {
		return protoerr.WithRound(protoerr.MalformedWitness, round, "no 2-of-2 leaf in equivocation tree", nil)
	}
	musigScript, err := equivocationTree.Tree.LeafScript(musigIdx)
	if err != nil {
		return err
	}
	musigControl, err := equivocationTree.Tree.ControlBlock(musigIdx)
	if err != nil {
		return err
	}
	vsigMusig, err := sigCache.Signature(round, SideVerifier)
	if err != nil {
		return err
	}
	psigMusig, err := sigCache.Signature(round, SideProver)
	if err != nil {
		return err
	}
	tx.TxIn[0].Witness = AssembleMusigWitness(vsigMusig, psigMusig, musigScript, musigControl)
	return nil
}
