package taproot

import (
	"io"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/rawblock/bitvm-go/internal/circuit"
)

func seededRand(seed int64) io.Reader {
	return rand.New(rand.NewSource(seed))
}

func testKey(t *testing.T) *btcec.PublicKey {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	return priv.PubKey()
}

func TestInternalKeyParses(t *testing.T) {
	pk, err := InternalKey()
	if err != nil {
		t.Fatal(err)
	}
	if pk == nil {
		t.Fatal("nil internal key")
	}
}

func leafScript(n byte) []byte {
	return []byte{0x51, n} // OP_1 <n>, a trivially distinct dummy leaf
}

func TestAssembleRejectsSingleLeaf(t *testing.T) {
	if _, err := Assemble([][]byte{leafScript(1)}); err == nil {
		t.Fatal("expected error for a single-leaf tree")
	}
}

func TestAssembleControlBlocksForEveryLeaf(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 7, 8, 9} {
		var scripts [][]byte
		for i := 0; i < n; i++ {
			scripts = append(scripts, leafScript(byte(i)))
		}
		tree, err := Assemble(scripts)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		for i := 0; i < n; i++ {
			cb, err := tree.ControlBlock(i)
			if err != nil {
				t.Fatalf("n=%d leaf=%d: %v", n, i, err)
			}
			if len(cb) == 0 {
				t.Fatalf("n=%d leaf=%d: empty control block", n, i)
			}
		}
		if _, err := tree.ControlBlock(n); err == nil {
			t.Fatalf("n=%d: expected out-of-range error", n)
		}
	}
}

func TestPkScriptAndAddress(t *testing.T) {
	tree, err := Assemble([][]byte{leafScript(1), leafScript(2), leafScript(3)})
	if err != nil {
		t.Fatal(err)
	}
	pkScript, err := tree.PkScript()
	if err != nil {
		t.Fatal(err)
	}
	if len(pkScript) != 34 || pkScript[0] != 0x51 {
		t.Fatalf("unexpected P2TR pkScript: %x", pkScript)
	}
	addr, err := tree.Address(&chaincfg.RegressionNetParams)
	if err != nil {
		t.Fatal(err)
	}
	if addr == "" {
		t.Fatal("empty address")
	}
}

func TestEquivocationAddressCoversEveryWireAndClaims(t *testing.T) {
	rnd := seededRand(1)
	prover := testKey(t)
	verifier := testKey(t)

	var wires []*circuit.Wire
	for i := 0; i < 4; i++ {
		w, err := circuit.NewWire(i, rnd)
		if err != nil {
			t.Fatal(err)
		}
		wires = append(wires, w)
	}

	built, err := EquivocationAddress(wires, prover, verifier)
	if err != nil {
		t.Fatal(err)
	}
	if len(built.Order) != len(wires)+2 {
		t.Fatalf("expected %d leaves, got %d", len(wires)+2, len(built.Order))
	}
	for _, w := range wires {
		idx := built.IndexOf(func(r LeafRef) bool { return r.Kind == "anti_contradiction" && r.Wire == w.Index })
		if idx < 0 {
			t.Fatalf("no anti_contradiction leaf for wire %d", w.Index)
		}
	}
	if built.IndexOf(func(r LeafRef) bool { return r.Kind == "timelock" }) < 0 {
		t.Fatal("missing timelock leaf")
	}
	if built.IndexOf(func(r LeafRef) bool { return r.Kind == "2_of_2" }) < 0 {
		t.Fatal("missing 2_of_2 leaf")
	}
}

func TestChallengeAndResponseAddressesMatchGateCount(t *testing.T) {
	verifier := testKey(t)
	prover := testKey(t)

	var hashes [][32]byte
	for i := 0; i < 5; i++ {
		var h [32]byte
		h[0] = byte(i)
		hashes = append(hashes, h)
	}
	chAddr, err := ChallengeAddress(verifier, hashes)
	if err != nil {
		t.Fatal(err)
	}
	if len(chAddr.Order) != len(hashes) {
		t.Fatalf("expected %d challenge leaves, got %d", len(hashes), len(chAddr.Order))
	}

	var gates []GateSpec
	var op [32]byte
	for j := 0; j < 5; j++ {
		var lock [32]byte
		lock[0] = byte(j)
		gates = append(gates, GateSpec{
			Gate:        j,
			Type:        circuit.NOT,
			InputHashes: []circuit.HashPair{{H0: op, H1: op}},
			OutputHash:  circuit.HashPair{H0: op, H1: op},
			LockHash:    lock,
		})
	}
	respAddr, err := ResponseAddress(prover, gates)
	if err != nil {
		t.Fatal(err)
	}
	if len(respAddr.Order) != len(gates) {
		t.Fatalf("expected %d response leaves, got %d", len(gates), len(respAddr.Order))
	}
}

func TestResponseSecondAddressHasTwoLeaves(t *testing.T) {
	prover := testKey(t)
	verifier := testKey(t)
	built, err := ResponseSecondAddress(prover, verifier)
	if err != nil {
		t.Fatal(err)
	}
	if len(built.Order) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(built.Order))
	}
}
