package protocol

import (
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/rawblock/bitvm-go/internal/circuit"
	"github.com/rawblock/bitvm-go/internal/keys"
	"github.com/rawblock/bitvm-go/internal/taproot"
)

// buildWires creates n wires with deterministic commitments for use
// across these tests, mirroring how loadOrGenerateCircuit seeds a
// demo circuit.
func buildWires(t *testing.T, n int, seed int64) []*circuit.Wire {
	t.Helper()
	rnd := rand.New(rand.NewSource(seed))
	wires := make([]*circuit.Wire, n)
	for i := 0; i < n; i++ {
		w, err := circuit.NewWire(i, rnd)
		if err != nil {
			t.Fatalf("NewWire(%d): %v", i, err)
		}
		wires[i] = w
	}
	return wires
}

func TestPopulateFundingSpendWitnessFillsMusigSlot(t *testing.T) {
	prover, err := keys.Generate(rand.New(rand.NewSource(10)))
	if err != nil {
		t.Fatal(err)
	}
	verifier, err := keys.Generate(rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatal(err)
	}
	wires := buildWires(t, 3, 12)

	equivTree, err := taproot.EquivocationAddress(wires, prover.PublicKey(), verifier.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	equivPkScript, err := equivTree.Tree.PkScript()
	if err != nil {
		t.Fatal(err)
	}

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{1}, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))
	fundingPrevOut := &wire.TxOut{Value: 100_000, PkScript: equivPkScript}

	musigIdx := equivTree.IndexOf(func(r taproot.LeafRef) bool { return r.Kind == "2_of_2" })
	if musigIdx < 0 {
		t.Fatal("equivocation tree missing 2_of_2 leaf")
	}
	musigScript, err := equivTree.Tree.LeafScript(musigIdx)
	if err != nil {
		t.Fatal(err)
	}
	sighash, err := TapLeafSighash(tx, []*wire.TxOut{fundingPrevOut}, 0, musigScript)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewSignatureCache(SideProver, prover.PublicKey(), verifier.PublicKey())
	psig, err := prover.Sign(sighash)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.AddSignature(-1, SideProver, sighash, psig); err != nil {
		t.Fatal(err)
	}
	vsig, err := verifier.Sign(sighash)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.AddSignature(-1, SideVerifier, sighash, vsig); err != nil {
		t.Fatal(err)
	}

	if err := PopulateFundingSpendWitness(tx, fundingPrevOut, equivTree, cache, -1); err != nil {
		t.Fatalf("PopulateFundingSpendWitness: %v", err)
	}
	got := tx.TxIn[0].Witness
	if len(got) != 4 {
		t.Fatalf("expected a 4-element musig witness, got %d elements", len(got))
	}
	if string(got[2]) != string(musigScript) {
		t.Fatal("witness script element should be the 2-of-2 leaf script")
	}
}

func TestPopulateResponseTxWitnessesFillsBothInputs(t *testing.T) {
	prover, err := keys.Generate(rand.New(rand.NewSource(20)))
	if err != nil {
		t.Fatal(err)
	}
	verifier, err := keys.Generate(rand.New(rand.NewSource(21)))
	if err != nil {
		t.Fatal(err)
	}
	wires := buildWires(t, 2, 22)

	equivTree, err := taproot.EquivocationAddress(wires, prover.PublicKey(), verifier.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	equivPkScript, err := equivTree.Tree.PkScript()
	if err != nil {
		t.Fatal(err)
	}

	mgr := NewChallengeHashesManager()
	hashes, preimages, err := mgr.GenerateChallengeHashes(1, rand.New(rand.NewSource(23)))
	if err != nil {
		t.Fatal(err)
	}
	challengeTree, err := taproot.ChallengeAddress(verifier.PublicKey(), hashes)
	if err != nil {
		t.Fatal(err)
	}
	challengePkScript, err := challengeTree.Tree.PkScript()
	if err != nil {
		t.Fatal(err)
	}

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{1}, 0), nil, nil))
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{1}, 1), nil, nil))
	tx.AddTxOut(wire.NewTxOut(546, []byte{0x51}))
	prevOuts := []*wire.TxOut{
		{Value: 546, PkScript: challengePkScript},
		{Value: 99_000, PkScript: equivPkScript},
	}

	musigIdx := equivTree.IndexOf(func(r taproot.LeafRef) bool { return r.Kind == "2_of_2" })
	musigScript, err := equivTree.Tree.LeafScript(musigIdx)
	if err != nil {
		t.Fatal(err)
	}
	continueSighash, err := TapLeafSighash(tx, prevOuts, 1, musigScript)
	if err != nil {
		t.Fatal(err)
	}
	cache := NewSignatureCache(SideProver, prover.PublicKey(), verifier.PublicKey())
	psig, err := prover.Sign(continueSighash)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.AddSignature(0, SideProver, continueSighash, psig); err != nil {
		t.Fatal(err)
	}
	vsig, err := verifier.Sign(continueSighash)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.AddSignature(0, SideVerifier, continueSighash, vsig); err != nil {
		t.Fatal(err)
	}

	if err := PopulateResponseTxWitnesses(
		tx, prevOuts, verifier,
		challengeTree, equivTree,
		0, preimages[0], cache, 0,
	); err != nil {
		t.Fatalf("PopulateResponseTxWitnesses: %v", err)
	}

	if len(tx.TxIn[0].Witness) != 4 {
		t.Fatalf("challenge-leaf witness should have 4 elements, got %d", len(tx.TxIn[0].Witness))
	}
	if string(tx.TxIn[0].Witness[1]) != string(preimages[0][:]) {
		t.Fatal("challenge-leaf witness should reveal the gate's challenge preimage")
	}
	if len(tx.TxIn[1].Witness) != 4 {
		t.Fatalf("musig-leaf witness should have 4 elements, got %d", len(tx.TxIn[1].Witness))
	}
}

func TestAssembleEquivocationClaimAndTimelockWitnessShapes(t *testing.T) {
	verifier, err := keys.Generate(rand.New(rand.NewSource(30)))
	if err != nil {
		t.Fatal(err)
	}
	var sighash [32]byte
	sighash[0] = 9
	sig, err := verifier.Sign(sighash)
	if err != nil {
		t.Fatal(err)
	}

	var p0, p1 [32]byte
	p0[0], p1[0] = 1, 2
	script := []byte{0x51}
	control := []byte{0x52}

	claimWitness := AssembleEquivocationClaimWitness(sig, p1, p0, script, control)
	if len(claimWitness) != 5 {
		t.Fatalf("expected 5-element equivocation claim witness, got %d", len(claimWitness))
	}
	if string(claimWitness[1]) != string(p1[:]) || string(claimWitness[2]) != string(p0[:]) {
		t.Fatal("equivocation claim witness should reveal P1 before P0")
	}

	timelockWitness := AssembleTimelockWitness(sig)
	if len(timelockWitness) != 1 {
		t.Fatalf("expected a single-element timelock witness, got %d", len(timelockWitness))
	}
}
