// Package script builds the tapscript leaves the challenge/response
// engine spends: bit-commitment fragments, per-gate response scripts,
// challenge scripts, anti-contradiction scripts, CSV timelocks and the
// 2-of-2 multisig leaf. Every builder returns a txscript.ScriptBuilder
// script the same way the pack's Taproot examples do (see
// Klingon-tech-klingdex's internal/swap/script.go), rather than hand
// assembling opcode byte slices.
package script

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"

	"github.com/rawblock/bitvm-go/internal/circuit"
)

// xonly serializes a public key the way every Taproot leaf in this
// package needs it: a bare 32-byte x-only encoding pushed as script data.
func xonly(pk *btcec.PublicKey) []byte {
	return schnorr.SerializePubKey(pk)
}

// AddBitCommitmentFragment appends the canonical bit-commitment fragment
// for hash pair h to builder. The fragment accepts exactly those
// preimages P with SHA256(P) in {h.H0, h.H1} and leaves the revealed bit
// (1 iff SHA256(P) == h.H1) on the stack; if neither equality holds,
// OP_VERIFY aborts with a script-verify failure (BadPreimage on-chain).
func AddBitCommitmentFragment(builder *txscript.ScriptBuilder, h circuit.HashPair) *txscript.ScriptBuilder {
	return builder.
		AddOp(txscript.OP_SHA256).
		AddOp(txscript.OP_DUP).
		AddData(h.H1[:]).
		AddOp(txscript.OP_EQUAL).
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_ROT).
		AddData(h.H0[:]).
		AddOp(txscript.OP_EQUAL).
		AddOp(txscript.OP_BOOLOR).
		AddOp(txscript.OP_VERIFY)
}

// GateResponseScript builds the per-gate tapleaf script: burn the
// challenge preimage, reveal consistent input/output bit-commitment
// preimages for gate gt, and require the Prover's signature.
//
// inputHashes must have len == gt.InputArity() (1 for NOT, 2 otherwise).
func GateResponseScript(gt circuit.GateType, inputHashes []circuit.HashPair, outputHash circuit.HashPair, lockHash [32]byte, proverPK *btcec.PublicKey) ([]byte, error) {
	if len(inputHashes) != gt.InputArity() {
		return nil, errInputArity(gt, len(inputHashes))
	}

	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_SHA256).
		AddData(lockHash[:]).
		AddOp(txscript.OP_EQUALVERIFY)

	AddBitCommitmentFragment(b, outputHash)
	b.AddOp(txscript.OP_TOALTSTACK)

	switch gt {
	case circuit.AND, circuit.XOR:
		AddBitCommitmentFragment(b, inputHashes[1])
		b.AddOp(txscript.OP_TOALTSTACK)
		AddBitCommitmentFragment(b, inputHashes[0])
		switch gt {
		case circuit.AND:
			b.AddOp(txscript.OP_FROMALTSTACK).AddOp(txscript.OP_BOOLAND)
		case circuit.XOR:
			b.AddOp(txscript.OP_FROMALTSTACK).AddOp(txscript.OP_NUMEQUAL).AddOp(txscript.OP_NOT)
		}
	case circuit.NOT:
		AddBitCommitmentFragment(b, inputHashes[0])
		b.AddOp(txscript.OP_NOT)
	}

	b.AddOp(txscript.OP_FROMALTSTACK).AddOp(txscript.OP_EQUALVERIFY)
	b.AddData(xonly(proverPK)).AddOp(txscript.OP_CHECKSIG)
	return b.Script()
}

// ChallengeScript builds the leaf the Verifier spends to declare "I
// challenge gate j": burn the round's per-gate challenge preimage, then
// require the Verifier's signature.
func ChallengeScript(verifierPK *btcec.PublicKey, challengeHash [32]byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_SHA256).
		AddData(challengeHash[:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddData(xonly(verifierPK)).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// AntiContradictionScript builds the leaf satisfied only by exhibiting
// both preimages of a single wire's hash pair, paying — via its
// signature requirement — the Verifier. Witness order is
// (sig, P1, P0): P0 sits on top of the initial stack, so it is checked
// against H0 first; P1 is checked against H1 second.
func AntiContradictionScript(h circuit.HashPair, verifierPK *btcec.PublicKey) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_SHA256).
		AddData(h.H0[:]).
		AddOp(txscript.OP_EQUAL).
		AddOp(txscript.OP_VERIFY).
		AddOp(txscript.OP_SHA256).
		AddData(h.H1[:]).
		AddOp(txscript.OP_EQUAL).
		AddOp(txscript.OP_VERIFY).
		AddData(xonly(verifierPK)).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// TimelockScript builds a relative-CSV claw-back leaf: after n blocks the
// key holder for pk can spend unilaterally.
func TimelockScript(pk *btcec.PublicKey, n int64) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddInt64(n).
		AddOp(txscript.OP_CHECKSEQUENCEVERIFY).
		AddOp(txscript.OP_DROP).
		AddData(xonly(pk)).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// TwoOfTwoScript builds the 2-of-2 multisig tapleaf shared by every
// linked transaction's continuation output.
func TwoOfTwoScript(proverPK, verifierPK *btcec.PublicKey) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(xonly(proverPK)).
		AddOp(txscript.OP_CHECKSIGVERIFY).
		AddData(xonly(verifierPK)).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}
