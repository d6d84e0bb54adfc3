// Package protocol wires the circuit, script and taproot packages into
// the round-by-round challenge/response engine: the challenge-hash
// manager, the signature cache, transaction builders, the witness
// assembler and the per-round state machine. It is grounded on the
// original challenge_hashes.rs / multisig_cache.rs / transactions
// modules, expressed with arena-indexed data the way internal/circuit
// already addresses wires by WireId instead of shared ownership.
package protocol

import (
	"crypto/sha256"
	"io"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// ChallengeHashesManager draws, for every round, one 32-byte preimage
// per gate and records its SHA-256 digest, so the Verifier can burn the
// preimage on-chain as proof of having committed to a specific gate
// challenge without revealing it up front.
type ChallengeHashesManager struct {
	hashes    [][][32]byte
	preimages [][][32]byte
}

// NewChallengeHashesManager returns an empty manager.
func NewChallengeHashesManager() *ChallengeHashesManager {
	return &ChallengeHashesManager{}
}

// GenerateChallengeHashes draws numGates independent preimages from
// rnd, appends both the preimage and hash vectors as the next round's
// history, and returns them.
func (m *ChallengeHashesManager) GenerateChallengeHashes(numGates int, rnd io.Reader) (hashes [][32]byte, preimages [][32]byte, err error) {
	if numGates <= 0 {
		return nil, nil, protoerr.New(protoerr.BadCircuit, "round must challenge at least one gate", nil)
	}
	hashes = make([][32]byte, numGates)
	preimages = make([][32]byte, numGates)
	for j := 0; j < numGates; j++ {
		if _, err := io.ReadFull(rnd, preimages[j][:]); err != nil {
			return nil, nil, protoerr.New(protoerr.BadCircuit, "challenge preimage entropy read failed", err)
		}
		hashes[j] = sha256.Sum256(preimages[j][:])
	}
	m.preimages = append(m.preimages, preimages)
	m.hashes = append(m.hashes, hashes)
	return hashes, preimages, nil
}

// AddChallengeHashes records a round's hash vector received from the
// counterparty (the Prover never learns the preimages, only the
// hashes, until a preimage is revealed on-chain).
func (m *ChallengeHashesManager) AddChallengeHashes(hashes [][32]byte) {
	m.hashes = append(m.hashes, hashes)
}

// HashesForRound returns the hash vector recorded for round.
func (m *ChallengeHashesManager) HashesForRound(round int) ([][32]byte, error) {
	if round < 0 || round >= len(m.hashes) {
		return nil, protoerr.WithRound(protoerr.WrongRound, round, "no challenge hashes recorded for round", nil)
	}
	return m.hashes[round], nil
}

// PreimageForGate returns the preimage the Verifier drew for
// (round, gate). Only the side that generated the round's hashes holds
// these.
func (m *ChallengeHashesManager) PreimageForGate(round, gate int) ([32]byte, error) {
	if round < 0 || round >= len(m.preimages) {
		return [32]byte{}, protoerr.WithRound(protoerr.WrongRound, round, "no challenge preimages recorded for round", nil)
	}
	preimages := m.preimages[round]
	if gate < 0 || gate >= len(preimages) {
		return [32]byte{}, protoerr.WithGate(protoerr.BadCircuit, round, gate, "gate index out of range for round", nil)
	}
	return preimages[gate], nil
}
