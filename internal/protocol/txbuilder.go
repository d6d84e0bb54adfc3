package protocol

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// BondSchedule holds the fixed parameters the value schedule in §4.I is
// computed from: the initial bond, the flat per-tapleaf-spend fee, the
// dust limit every intermediate output carries, and the bisection
// length L the schedule must have enough bond to survive.
type BondSchedule struct {
	Amount    int64
	Fee       int64
	DustLimit int64
	L         int
}

// Validate checks Amount >= 2*L*(Fee+DustLimit), the underflow guard
// the value-schedule rationale requires before any transaction is built.
func (b BondSchedule) Validate() error {
	need := int64(2*b.L) * (b.Fee + b.DustLimit)
	if b.Amount < need {
		return protoerr.New(protoerr.ValueUnderflow, "bond amount cannot cover the bisection's full value schedule", nil)
	}
	return nil
}

// equivocationValue returns the equivocation-address output value for
// challenge tx i: A - (2i+1)(f+d).
func (b BondSchedule) equivocationValue(i int) int64 {
	return b.Amount - int64(2*i+1)*(b.Fee+b.DustLimit)
}

// responseSecondValue returns the response-second-address output value
// for response tx i: A - (2i+2)(f+d).
func (b BondSchedule) responseSecondValue(i int) int64 {
	return b.Amount - int64(2*i+2)*(b.Fee+b.DustLimit)
}

// FundingVout scans fundingTx's outputs for the one paying pkScript,
// asserting exactly one match. Round 0's challenge transaction spends
// this vout rather than a hard-coded 0, since the funding transaction
// may carry change or other outputs ahead of the bond commitment.
func FundingVout(fundingTx *wire.MsgTx, pkScript []byte) (uint32, error) {
	match := -1
	for i, out := range fundingTx.TxOut {
		if bytes.Equal(out.PkScript, pkScript) {
			if match != -1 {
				return 0, protoerr.New(protoerr.BadCircuit, "funding transaction has more than one output matching the bond scriptPubKey", nil)
			}
			match = i
		}
	}
	if match == -1 {
		return 0, protoerr.New(protoerr.BadCircuit, "funding transaction has no output matching the bond scriptPubKey", nil)
	}
	return uint32(match), nil
}

func newUnsignedInput(txid *chainhash.Hash, vout uint32, sequence uint32) *wire.TxIn {
	in := wire.NewTxIn(wire.NewOutPoint(txid, vout), nil, nil)
	in.Sequence = sequence
	return in
}

// BuildChallengeTx builds challenge tx i per §4.I. For i=0 it spends a
// single input (fundingTxid, fundingVout); for i>0 it spends vouts 0
// and 1 of round i-1's response transaction.
func BuildChallengeTx(i int, fundingTxid *chainhash.Hash, fundingVout uint32, prevResponseTxid *chainhash.Hash, challengePkScript, equivocationPkScript []byte, sched BondSchedule) (*wire.MsgTx, error) {
	if i < 0 {
		return nil, protoerr.New(protoerr.WrongRound, "round index must be >= 0", nil)
	}
	tx := wire.NewMsgTx(2)
	if i == 0 {
		tx.AddTxIn(newUnsignedInput(fundingTxid, fundingVout, wire.MaxTxInSequenceNum))
	} else {
		tx.AddTxIn(newUnsignedInput(prevResponseTxid, 0, wire.MaxTxInSequenceNum-2))
		tx.AddTxIn(newUnsignedInput(prevResponseTxid, 1, wire.MaxTxInSequenceNum-2))
	}

	equivValue := sched.equivocationValue(i)
	if equivValue < 0 {
		return nil, protoerr.WithRound(protoerr.ValueUnderflow, i, "challenge tx equivocation output would underflow", nil)
	}
	tx.AddTxOut(wire.NewTxOut(sched.DustLimit, challengePkScript))
	tx.AddTxOut(wire.NewTxOut(equivValue, equivocationPkScript))
	return tx, nil
}

// BuildResponseTx builds response tx i per §4.I, spending vouts 0 and
// 1 of challenge tx i.
func BuildResponseTx(i int, challengeTxid *chainhash.Hash, responsePkScript, responseSecondPkScript []byte, sched BondSchedule) (*wire.MsgTx, error) {
	if i < 0 {
		return nil, protoerr.New(protoerr.WrongRound, "round index must be >= 0", nil)
	}
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(newUnsignedInput(challengeTxid, 0, wire.MaxTxInSequenceNum-2))
	tx.AddTxIn(newUnsignedInput(challengeTxid, 1, wire.MaxTxInSequenceNum-2))

	secondValue := sched.responseSecondValue(i)
	if secondValue < 0 {
		return nil, protoerr.WithRound(protoerr.ValueUnderflow, i, "response tx continuation output would underflow", nil)
	}
	tx.AddTxOut(wire.NewTxOut(sched.DustLimit, responsePkScript))
	tx.AddTxOut(wire.NewTxOut(secondValue, responseSecondPkScript))
	return tx, nil
}

// BuildEquivocationClaimTx builds the fallback equivocation-claim
// transaction: a single input from (challenge_i, 1), paying the
// Verifier A - (2i+2)(f+d), i.e. that output's A - (2i+1)(f+d) less
// one more f+d.
func BuildEquivocationClaimTx(i int, challengeTxid *chainhash.Hash, verifierPkScript []byte, sched BondSchedule) (*wire.MsgTx, error) {
	value := sched.responseSecondValue(i)
	if value < 0 {
		return nil, protoerr.WithRound(protoerr.ValueUnderflow, i, "equivocation claim output would underflow", nil)
	}
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(newUnsignedInput(challengeTxid, 1, wire.MaxTxInSequenceNum-2))
	tx.AddTxOut(wire.NewTxOut(value, verifierPkScript))
	return tx, nil
}
